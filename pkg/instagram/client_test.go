package instagram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igserve/pkg/instagram/instagramtest"
	"igserve/pkg/logger"
)

func newTestClient(t *testing.T, baseURL string) (*Client, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()
	client, err := NewClient(Options{BaseURL: baseURL, Timeout: 5 * time.Second}, log)
	require.NoError(t, err)
	return client, log
}

func newFakeInstagram(t *testing.T) *instagramtest.Server {
	t.Helper()
	server := instagramtest.NewServer()
	t.Cleanup(server.Close)

	server.AddAccount("reel_fan", "hunter2")
	server.AddPost(instagramtest.Post{
		Shortcode: "VID123",
		IsVideo:   true,
		VideoURL:  "https://cdn.example.com/VID123.mp4",
		Caption:   "sunset over the ghats",
		Owner:     "traveller",
	})
	server.AddPost(instagramtest.Post{
		Shortcode: "PIC456",
		Owner:     "photographer",
	})
	return server
}

func TestNewClient(t *testing.T) {
	client, _ := newTestClient(t, "")
	assert.Equal(t, BaseURL, client.BaseURL())
	assert.Equal(t, AppID, client.headers["X-IG-App-ID"])
	assert.Equal(t, DefaultUserAgent, client.headers["User-Agent"])

	_, err := NewClient(Options{BaseURL: "not a url"}, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestCheckResponseStatus(t *testing.T) {
	client, _ := newTestClient(t, "")

	tests := []struct {
		name         string
		statusCode   int
		expectedType ErrorType
	}{
		{"200 OK", http.StatusOK, ""},
		{"302 Found", http.StatusFound, ""},
		{"401 Unauthorized", http.StatusUnauthorized, ErrorTypeAuth},
		{"403 Forbidden", http.StatusForbidden, ErrorTypeAuth},
		{"404 Not Found", http.StatusNotFound, ErrorTypeNotFound},
		{"429 Too Many Requests", http.StatusTooManyRequests, ErrorTypeRateLimit},
		{"500 Internal Server Error", http.StatusInternalServerError, ErrorTypeServerError},
		{"503 Service Unavailable", http.StatusServiceUnavailable, ErrorTypeServerError},
		{"400 Bad Request", http.StatusBadRequest, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://example.com/graphql/query/", nil)
			err := client.checkResponseStatus(&http.Response{StatusCode: tt.statusCode, Request: req})
			if tt.expectedType == "" {
				assert.NoError(t, err)
				return
			}

			var igErr *Error
			require.ErrorAs(t, err, &igErr)
			assert.Equal(t, tt.expectedType, igErr.Type)
			assert.Equal(t, tt.statusCode, igErr.Code)
		})
	}
}

func TestGetJSONParsingError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client, log := newTestClient(t, server.URL)

	var target map[string]interface{}
	err := client.getJSON(context.Background(), server.URL+"/graphql/query/", &target)

	var igErr *Error
	require.ErrorAs(t, err, &igErr)
	assert.Equal(t, ErrorTypeParsing, igErr.Type)

	errs := log.GetMessagesByLevel("ERROR")
	require.NotEmpty(t, errs)
	assert.Equal(t, "<html>not json</html>", errs[0].Fields["body_preview"])
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, _ := newTestClient(t, url)
	_, err := client.FetchPost(context.Background(), "VID123")

	var igErr *Error
	require.ErrorAs(t, err, &igErr)
	assert.Equal(t, ErrorTypeNetwork, igErr.Type)
}

func TestFetchPost(t *testing.T) {
	server := newFakeInstagram(t)
	client, _ := newTestClient(t, server.URL)
	ctx := context.Background()

	t.Run("video", func(t *testing.T) {
		media, err := client.FetchPost(ctx, "VID123")
		require.NoError(t, err)
		assert.True(t, media.HasVideo())
		assert.Equal(t, "https://cdn.example.com/VID123.mp4", media.VideoURL)
		assert.Equal(t, "sunset over the ghats", media.Caption())
		assert.Equal(t, "traveller", media.Owner.Username)
	})

	t.Run("image", func(t *testing.T) {
		media, err := client.FetchPost(ctx, "PIC456")
		require.NoError(t, err)
		assert.False(t, media.HasVideo())
		assert.Equal(t, "", media.Caption())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := client.FetchPost(ctx, "NOPE")
		var igErr *Error
		require.ErrorAs(t, err, &igErr)
		assert.Equal(t, ErrorTypeNotFound, igErr.Type)
	})

	t.Run("rate limited", func(t *testing.T) {
		server.SetErrorResponse(GraphQLEndpoint, http.StatusTooManyRequests)
		defer server.SetErrorResponse(GraphQLEndpoint, 0)

		_, err := client.FetchPost(ctx, "VID123")
		var igErr *Error
		require.ErrorAs(t, err, &igErr)
		assert.Equal(t, ErrorTypeRateLimit, igErr.Type)
	})
}

func TestFetchPostRequiresLogin(t *testing.T) {
	server := newFakeInstagram(t)
	server.RequireLogin(true)
	client, _ := newTestClient(t, server.URL)

	_, err := client.FetchPost(context.Background(), "VID123")

	var igErr *Error
	require.ErrorAs(t, err, &igErr)
	assert.Equal(t, ErrorTypeAuth, igErr.Type)
}

func TestMediaShortcodeMediaFallback(t *testing.T) {
	legacy := &Media{Shortcode: "OLD"}
	assert.Equal(t, legacy, PostData{ShortcodeMedia: legacy}.Media())
	assert.Nil(t, PostData{}.Media())
}
