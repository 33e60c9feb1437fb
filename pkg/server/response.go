package server

import (
	"encoding/json"
	"net/http"

	apperrors "igserve/pkg/errors"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError answers with the status and message derived from err
func writeError(w http.ResponseWriter, err error) {
	writeErrorMessage(w, apperrors.StatusCode(err), apperrors.Message(err))
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
