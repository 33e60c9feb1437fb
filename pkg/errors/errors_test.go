package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"missing input", MissingInput("URL is required"), http.StatusBadRequest},
		{"invalid url", InvalidURL("Invalid Instagram URL"), http.StatusBadRequest},
		{"duplicate", Duplicate("Country already exists"), http.StatusBadRequest},
		{"not video", NotVideo("not a video"), http.StatusBadRequest},
		{"rate limit", RateLimited("slow down"), http.StatusTooManyRequests},
		{"fetch", Wrap(ErrorTypeFetch, "fetch failed", stderrors.New("boom")), http.StatusInternalServerError},
		{"auth", New(ErrorTypeAuth, "login failed"), http.StatusInternalServerError},
		{"plain error", stderrors.New("db down"), http.StatusInternalServerError},
		{"wrapped typed error", fmt.Errorf("create: %w", Duplicate("Country already exists")), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusCode(tt.err))
		})
	}
}

func TestIsMatchesByType(t *testing.T) {
	err := fmt.Errorf("handler: %w", Duplicate("Country already exists"))

	assert.True(t, stderrors.Is(err, ErrDuplicate))
	assert.False(t, stderrors.Is(err, ErrNotVideo))
	assert.True(t, stderrors.Is(RateLimited("slow down"), ErrRateLimit))
	assert.Equal(t, ErrorTypeDuplicate, TypeOf(err))
	assert.Equal(t, ErrorTypeInternal, TypeOf(stderrors.New("other")))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Country already exists", Message(Duplicate("Country already exists")))
	assert.Equal(t, "raw", Message(stderrors.New("raw")))
	assert.Equal(t, "cause", Message(Wrap(ErrorTypeFetch, "", stderrors.New("cause"))))
	assert.Equal(t, "Failed to fetch post: timeout",
		Message(Wrap(ErrorTypeFetch, "Failed to fetch post", stderrors.New("timeout"))))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrap(ErrorTypeFetch, "Failed to fetch post", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
