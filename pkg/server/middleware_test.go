package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igserve/pkg/logger"
	"igserve/pkg/models"
	"igserve/pkg/ratelimit"
	"igserve/pkg/scraper"
)

type recordedRequest struct {
	method string
	route  string
	status int
}

type fakeRecorder struct {
	mu          sync.Mutex
	requests    []recordedRequest
	fetches     []string
	logins      []string
	created     int
	rateLimited []string
}

func (f *fakeRecorder) RecordRequest(method, route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{method, route, status})
}

func (f *fakeRecorder) RecordInstagramFetch(mode, result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, mode+":"+result)
}

func (f *fakeRecorder) RecordInstagramLogin(result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, result)
}

func (f *fakeRecorder) RecordCountryCreated() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
}

func (f *fakeRecorder) RecordRateLimited(route string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rateLimited = append(f.rateLimited, route)
}

func TestRequestID(t *testing.T) {
	router := newTestRouter(nil, nil)

	rec := doRequest(t, router, http.MethodGet, "/health", "")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "trace-abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "trace-abc", rec.Header().Get(RequestIDHeader))
}

func TestRequestLogging(t *testing.T) {
	log := logger.NewTestLogger()
	router := NewRouter(&Deps{Countries: &mockCountryService{}, Videos: &mockVideoFetcher{}, Logger: log})

	req := httptest.NewRequest(http.MethodGet, "/countries", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	infos := log.GetMessagesByLevel("INFO")
	require.Len(t, infos, 1)
	assert.Equal(t, "http_request", infos[0].Message)
	assert.Equal(t, "req-1", infos[0].Fields["request_id"])
	assert.Equal(t, "/countries", infos[0].Fields["path"])
	assert.Equal(t, http.StatusOK, infos[0].Fields["status"])

	log.Clear()
	doRequest(t, router, http.MethodPost, "/countries", `{"name":`)
	warns := log.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, http.StatusBadRequest, warns[0].Fields["status"])
}

func TestRecovery(t *testing.T) {
	log := logger.NewTestLogger()
	svc := &mockCountryService{listFn: func(ctx context.Context) ([]models.Country, error) {
		panic("boom")
	}}
	router := NewRouter(&Deps{Countries: svc, Videos: &mockVideoFetcher{}, Logger: log})

	rec := doRequest(t, router, http.MethodGet, "/countries", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	assert.True(t, log.HasMessage("panic recovered"))
}

func TestMetricsMiddleware(t *testing.T) {
	recorder := &fakeRecorder{}
	videos := &mockVideoFetcher{fetchFn: func(ctx context.Context, rawURL string, mode scraper.Mode) (*models.Video, error) {
		return &models.Video{VideoURL: "v"}, nil
	}}
	router := NewRouter(&Deps{
		Countries: &mockCountryService{},
		Videos:    videos,
		Logger:    logger.NewTestLogger(),
		Metrics:   recorder,
	})

	doRequest(t, router, http.MethodPost, "/countries", `{"name":"Chile"}`)
	doRequest(t, router, http.MethodPost, "/download_instagram_login", `{"url":"x"}`)
	doRequest(t, router, http.MethodGet, "/missing/path", "")

	require.Len(t, recorder.requests, 3)
	assert.Equal(t, recordedRequest{http.MethodPost, "/countries", http.StatusCreated}, recorder.requests[0])
	assert.Equal(t, recordedRequest{http.MethodPost, "/download_instagram_login", http.StatusOK}, recorder.requests[1])
	assert.Equal(t, "unmatched", recorder.requests[2].route)
	assert.Equal(t, 1, recorder.created)
	assert.Equal(t, []string{"authenticated:ok"}, recorder.fetches)
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(&Deps{
		Countries: &mockCountryService{},
		Videos:    &mockVideoFetcher{},
		Logger:    logger.NewTestLogger(),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	})

	rec := doRequest(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: 1, Burst: 2})
	t.Cleanup(limiter.Stop)

	recorder := &fakeRecorder{}
	videos := &mockVideoFetcher{fetchFn: func(ctx context.Context, rawURL string, mode scraper.Mode) (*models.Video, error) {
		return &models.Video{VideoURL: "v"}, nil
	}}
	router := NewRouter(&Deps{
		Countries: &mockCountryService{},
		Videos:    videos,
		Logger:    logger.NewTestLogger(),
		Limiter:   limiter,
		Metrics:   recorder,
	})

	send := func(path, remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("/download_instagram", "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusOK, send("/download_instagram_login", "10.0.0.1:5001").Code)

	rec := send("/download_instagram", "10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests, please try again later"}`, rec.Body.String())
	assert.Equal(t, []string{"/download_instagram"}, recorder.rateLimited)

	// other clients and the catalog routes are not throttled
	assert.Equal(t, http.StatusOK, send("/download_instagram", "10.0.0.2:5000").Code)
	assert.Equal(t, http.StatusCreated, send("/countries", "10.0.0.1:5003").Code)
}

func TestRateLimitIgnoresForwardedHeaders(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: 1, Burst: 1})
	t.Cleanup(limiter.Stop)

	videos := &mockVideoFetcher{fetchFn: func(ctx context.Context, rawURL string, mode scraper.Mode) (*models.Video, error) {
		return &models.Video{VideoURL: "v"}, nil
	}}
	newRouter := func(trustProxy bool) http.Handler {
		return NewRouter(&Deps{
			Countries:  &mockCountryService{},
			Videos:     videos,
			Logger:     logger.NewTestLogger(),
			Limiter:    limiter,
			TrustProxy: trustProxy,
		})
	}

	send := func(router http.Handler, remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/download_instagram", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	direct := newRouter(false)
	assert.Equal(t, http.StatusOK, send(direct, "10.0.0.1:5000", "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send(direct, "10.0.0.1:5001", "203.0.113.2"))

	proxied := newRouter(true)
	assert.Equal(t, http.StatusOK, send(proxied, "10.0.0.9:5000", "203.0.113.3"))
	assert.Equal(t, http.StatusOK, send(proxied, "10.0.0.9:5001", "203.0.113.4"))
	assert.Equal(t, http.StatusTooManyRequests, send(proxied, "10.0.0.9:5002", "203.0.113.4"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	assert.Equal(t, "192.0.2.10", clientIP(req))

	req.RemoteAddr = "not-an-addr"
	assert.Equal(t, "not-an-addr", clientIP(req))
}
