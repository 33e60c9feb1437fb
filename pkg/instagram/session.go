package instagram

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SessionCookie is the cookie that carries an authenticated Instagram login
const SessionCookie = "sessionid"

// Session is a serializable authenticated Instagram login
type Session struct {
	Username  string            `json:"username"`
	UserID    string            `json:"user_id,omitempty"`
	Cookies   map[string]string `json:"cookies"`
	CSRFToken string            `json:"csrf_token,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Marshal encodes the session for a session store
func (s *Session) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSession decodes a stored session blob.
// Blobs without a session cookie are rejected.
func UnmarshalSession(blob []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(blob, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Cookies[SessionCookie] == "" {
		return nil, fmt.Errorf("session for %q has no %s cookie", s.Username, SessionCookie)
	}
	return &s, nil
}

// ApplySession loads a stored session into the client's cookie jar
func (c *Client) ApplySession(s *Session) {
	cookies := make([]*http.Cookie, 0, len(s.Cookies))
	for name, value := range s.Cookies {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	c.jar.SetCookies(c.baseURL, cookies)

	if s.CSRFToken != "" {
		c.SetHeader("X-CSRFToken", s.CSRFToken)
	}

	c.logger.DebugWithFields("applied stored session", map[string]interface{}{
		"username": s.Username,
		"cookies":  len(cookies),
	})
}

// exportSession snapshots the client's cookies as a Session
func (c *Client) exportSession(username, userID string) *Session {
	cookies := make(map[string]string)
	for _, ck := range c.jar.Cookies(c.baseURL) {
		cookies[ck.Name] = ck.Value
	}
	return &Session{
		Username:  username,
		UserID:    userID,
		Cookies:   cookies,
		CSRFToken: cookies["csrftoken"],
		CreatedAt: time.Now().UTC(),
	}
}
