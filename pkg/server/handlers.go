package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "igserve/pkg/errors"
	"igserve/pkg/metrics"
	"igserve/pkg/models"
	"igserve/pkg/scraper"
)

type handlers struct {
	countries CountryService
	videos    VideoFetcher
	health    HealthChecker
	metrics   metrics.Recorder
}

type statesResponse struct {
	States []string `json:"states"`
	Count  int      `json:"count"`
}

type countriesResponse struct {
	Countries []models.Country `json:"countries"`
	Count     int              `json:"count"`
}

type createCountryRequest struct {
	Name string `json:"name"`
}

type createCountryResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type downloadRequest struct {
	URL string `json:"url"`
}

type messageResponse struct {
	Message string `json:"message"`
}

const maxBodyBytes = 1 << 20

// decodeBody reads a single JSON object into v. An empty body leaves v
// untouched; anything after the object other than whitespace is rejected.
func decodeBody(r *http.Request, v interface{}) error {
	malformed := apperrors.MissingInput("Request body must be a JSON object")

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return malformed
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return malformed
	}
	return nil
}

func (h *handlers) healthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.PingContext(ctx); err != nil {
			writeErrorMessage(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) listStates(w http.ResponseWriter, r *http.Request) {
	states := h.countries.States()
	writeJSON(w, http.StatusOK, statesResponse{States: states, Count: len(states)})
}

func (h *handlers) listCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.countries.List(r.Context())
	if err != nil {
		requestLogger(r).WithError(err).Error("failed to list countries")
		writeError(w, err)
		return
	}
	if countries == nil {
		countries = []models.Country{}
	}
	writeJSON(w, http.StatusOK, countriesResponse{Countries: countries, Count: len(countries)})
}

func (h *handlers) createCountry(w http.ResponseWriter, r *http.Request) {
	var req createCountryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	country, err := h.countries.Create(r.Context(), req.Name)
	if err != nil {
		if apperrors.StatusCode(err) >= http.StatusInternalServerError {
			requestLogger(r).WithError(err).Error("failed to add country")
		}
		writeError(w, err)
		return
	}

	h.metrics.RecordCountryCreated()
	writeJSON(w, http.StatusCreated, createCountryResponse{
		Message: fmt.Sprintf("Country '%s' added.", country.Name),
		ID:      country.ID,
	})
}

func (h *handlers) downloadInstagram(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, scraper.ModeAnonymous)
}

func (h *handlers) downloadInstagramLogin(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, scraper.ModeAuthenticated)
}

func (h *handlers) download(w http.ResponseWriter, r *http.Request, mode scraper.Mode) {
	var req downloadRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	video, err := h.videos.FetchVideo(r.Context(), req.URL, mode)
	if err != nil {
		h.metrics.RecordInstagramFetch(string(mode), string(apperrors.TypeOf(err)))
		requestLogger(r).WithError(err).WarnWithFields("instagram download failed", map[string]interface{}{
			"mode": string(mode),
		})
		writeError(w, err)
		return
	}

	h.metrics.RecordInstagramFetch(string(mode), "ok")
	writeJSON(w, http.StatusOK, video)
}

func (h *handlers) loginInstagram(w http.ResponseWriter, r *http.Request) {
	username, err := h.videos.Login(r.Context())
	if err != nil {
		h.metrics.RecordInstagramLogin(string(apperrors.TypeOf(err)))
		requestLogger(r).WithError(err).Warn("instagram login failed")
		writeError(w, err)
		return
	}

	h.metrics.RecordInstagramLogin("ok")
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Logged in to Instagram as %s and saved the session.", username),
	})
}
