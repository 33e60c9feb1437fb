package instagram

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	server := newFakeInstagram(t)
	server.RequireLogin(true)
	client, log := newTestClient(t, server.URL)

	session, err := client.Login(context.Background(), "@reel_fan", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "reel_fan", session.Username)
	assert.NotEmpty(t, session.UserID)
	assert.Equal(t, "sess-reel_fan-1", session.Cookies[SessionCookie])
	assert.Equal(t, "csrf-reel_fan", session.CSRFToken)
	assert.False(t, session.CreatedAt.IsZero())
	assert.True(t, log.HasMessage("logged in to Instagram"))

	media, err := client.FetchPost(context.Background(), "VID123")
	require.NoError(t, err)
	assert.True(t, media.HasVideo())
}

func TestLoginFailures(t *testing.T) {
	server := newFakeInstagram(t)
	server.AddAccount("guarded", "s3cret")
	server.RequireTwoFactor("guarded")

	tests := []struct {
		name     string
		username string
		password string
		message  string
	}{
		{"missing password", "reel_fan", "", "username and password are required"},
		{"unknown user", "nobody", "pw", "unknown username"},
		{"wrong password", "reel_fan", "wrong", "invalid password"},
		{"two factor", "guarded", "s3cret", "two-factor authentication required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, server.URL)
			_, err := client.Login(context.Background(), tt.username, tt.password)

			var igErr *Error
			require.ErrorAs(t, err, &igErr)
			assert.Equal(t, ErrorTypeAuth, igErr.Type)
			assert.Equal(t, tt.message, igErr.Message)
		})
	}
}

func TestLoginPageUnavailable(t *testing.T) {
	server := newFakeInstagram(t)
	server.SetErrorResponse(LoginPageEndpoint, http.StatusServiceUnavailable)
	client, _ := newTestClient(t, server.URL)

	_, err := client.Login(context.Background(), "reel_fan", "hunter2")

	var igErr *Error
	require.ErrorAs(t, err, &igErr)
	assert.Equal(t, ErrorTypeServerError, igErr.Type)
	assert.Equal(t, 0, server.LoginCount())
}

func TestSessionRoundTrip(t *testing.T) {
	server := newFakeInstagram(t)
	server.RequireLogin(true)

	first, _ := newTestClient(t, server.URL)
	session, err := first.Login(context.Background(), "reel_fan", "hunter2")
	require.NoError(t, err)

	blob, err := session.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalSession(blob)
	require.NoError(t, err)
	assert.Equal(t, session.Cookies, restored.Cookies)

	second, _ := newTestClient(t, server.URL)
	second.ApplySession(restored)

	_, err = second.FetchPost(context.Background(), "VID123")
	require.NoError(t, err)
	assert.Equal(t, 1, server.LoginCount())
}

func TestUnmarshalSessionRejectsBadBlobs(t *testing.T) {
	_, err := UnmarshalSession([]byte("not json"))
	assert.Error(t, err)

	_, err = UnmarshalSession([]byte(`{"username":"reel_fan","cookies":{"csrftoken":"x"}}`))
	assert.Error(t, err)
}
