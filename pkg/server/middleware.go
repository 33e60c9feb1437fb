package server

import (
	"context"
	"math"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apperrors "igserve/pkg/errors"
	"igserve/pkg/logger"
	"igserve/pkg/metrics"
	"igserve/pkg/ratelimit"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

type contextKey int

const (
	requestIDKey contextKey = iota
	loggerKey
)

// RequestIDFromContext returns the id assigned by the request id middleware
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestLogger(r *http.Request) logger.Logger {
	if log, ok := r.Context().Value(loggerKey).(logger.Logger); ok {
		return log
	}
	return logger.GetLogger()
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder remembers the status code written by the handler
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

// recoveryMiddleware turns a handler panic into a 500 JSON response
func recoveryMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.ErrorWithFields("panic recovered", map[string]interface{}{
					"panic":      rec,
					"method":     r.Method,
					"path":       r.URL.Path,
					"request_id": RequestIDFromContext(r.Context()),
					"stack":      string(debug.Stack()),
				})
				writeErrorMessage(w, http.StatusInternalServerError, "Internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware attaches a request scoped logger and logs one line per request
func loggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.WithField("request_id", RequestIDFromContext(r.Context()))
			ctx := context.WithValue(r.Context(), loggerKey, reqLog)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.statusCode,
				"duration_ms": float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond),
				"remote_addr": r.RemoteAddr,
			}
			switch {
			case rec.statusCode >= 500:
				reqLog.ErrorWithFields("http_request", fields)
			case rec.statusCode >= 400:
				reqLog.WarnWithFields("http_request", fields)
			default:
				reqLog.InfoWithFields("http_request", fields)
			}
		})
	}
}

func metricsMiddleware(recorder metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)
			recorder.RecordRequest(r.Method, routePattern(r), rec.statusCode, time.Since(start))
		})
	}
}

// routePattern keeps metric labels bounded to the registered routes
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type retryAfterer interface {
	RetryAfter() time.Duration
}

// rateLimitMiddleware rejects clients that exceed their per address budget
func rateLimitMiddleware(limiter ratelimit.Limiter, recorder metrics.Recorder, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if limiter.Allow(key) {
				next.ServeHTTP(w, r)
				return
			}

			recorder.RecordRateLimited(r.URL.Path)
			log.WarnWithFields("rate limit exceeded", map[string]interface{}{
				"client":     key,
				"path":       r.URL.Path,
				"request_id": RequestIDFromContext(r.Context()),
			})

			retry := time.Second
			if ra, ok := limiter.(retryAfterer); ok {
				retry = ra.RetryAfter()
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			writeError(w, apperrors.RateLimited("Too many requests, please try again later"))
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
