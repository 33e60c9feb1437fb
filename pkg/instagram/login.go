package instagram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Login authenticates with a username and password and returns the
// resulting session. The client keeps the session cookies afterwards.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	username = SanitizeUsername(username)
	if username == "" || password == "" {
		return nil, &Error{Type: ErrorTypeAuth, Message: "username and password are required"}
	}

	log := c.logger.WithField("username", username)
	log.Info("logging in to Instagram")

	csrf, err := c.fetchCSRFToken(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"username":             {username},
		"enc_password":         {passwordPrefix + strconv.FormatInt(time.Now().Unix(), 10) + ":" + password},
		"queryParams":          {"{}"},
		"optIntoOneTap":        {"false"},
		"trustedDeviceRecords": {"{}"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(LoginEndpoint, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &Error{Type: ErrorTypeUnknown, Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	c.SetHeader("X-CSRFToken", csrf)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.endpoint(LoginPageEndpoint, nil))

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Challenges come back as 400 with a JSON body worth reading.
	if resp.StatusCode != http.StatusBadRequest {
		if err := c.checkResponseStatus(resp); err != nil {
			return nil, err
		}
	}

	var result loginResponse
	if err := c.decodeJSON(resp, &result); err != nil {
		return nil, err
	}

	switch {
	case result.TwoFactorRequired:
		log.Warn("two-factor authentication required")
		return nil, &Error{Type: ErrorTypeAuth, Message: "two-factor authentication required", Code: resp.StatusCode}
	case result.CheckpointURL != "":
		log.WarnWithFields("login checkpoint required", map[string]interface{}{
			"checkpoint_url": result.CheckpointURL,
		})
		return nil, &Error{Type: ErrorTypeAuth, Message: "login checkpoint required", Code: resp.StatusCode}
	case !result.User:
		return nil, &Error{Type: ErrorTypeAuth, Message: "unknown username", Code: resp.StatusCode}
	case !result.Authenticated:
		msg := "invalid password"
		if result.Message != "" {
			msg = result.Message
		}
		return nil, &Error{Type: ErrorTypeAuth, Message: msg, Code: resp.StatusCode}
	}

	if c.cookie(SessionCookie) == "" {
		return nil, &Error{Type: ErrorTypeAuth, Message: "login succeeded but no session cookie was issued", Code: resp.StatusCode}
	}

	session := c.exportSession(username, result.UserID)
	c.SetHeader("X-CSRFToken", session.CSRFToken)

	log.InfoWithFields("logged in to Instagram", map[string]interface{}{
		"user_id": result.UserID,
	})

	return session, nil
}

// fetchCSRFToken loads the login page so Instagram issues a csrftoken cookie
func (c *Client) fetchCSRFToken(ctx context.Context) (string, error) {
	resp, err := c.get(ctx, c.endpoint(LoginPageEndpoint, nil))
	if err != nil {
		return "", err
	}
	resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return "", err
	}

	token := c.cookie("csrftoken")
	if token == "" {
		return "", &Error{Type: ErrorTypeAuth, Message: "no csrftoken cookie on login page", Code: resp.StatusCode}
	}
	return token, nil
}
