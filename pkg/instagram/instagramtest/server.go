// Package instagramtest provides an in-process fake of the Instagram web
// endpoints used by the instagram client.
package instagramtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
)

// Post is a post served by the fake
type Post struct {
	Shortcode string
	IsVideo   bool
	VideoURL  string
	Caption   string
	Owner     string
}

// Server simulates Instagram login and post lookups
type Server struct {
	*httptest.Server

	mu             sync.RWMutex
	posts          map[string]Post
	accounts       map[string]string
	twoFactor      map[string]bool
	sessions       map[string]string
	errorResponses map[string]int
	requireLogin   bool

	loginCount   int32
	postRequests int32
	sessionSeq   int32
}

// NewServer starts a fake Instagram server. Close it when done.
func NewServer() *Server {
	s := &Server{
		posts:          make(map[string]Post),
		accounts:       make(map[string]string),
		twoFactor:      make(map[string]bool),
		sessions:       make(map[string]string),
		errorResponses: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/login/", s.handleLoginPage)
	mux.HandleFunc("/api/v1/web/accounts/login/ajax/", s.handleLogin)
	mux.HandleFunc("/graphql/query/", s.handlePost)

	s.Server = httptest.NewServer(mux)
	return s
}

// AddPost registers a post under its shortcode
func (s *Server) AddPost(p Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.Shortcode] = p
}

// AddAccount registers valid credentials
func (s *Server) AddAccount(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[username] = password
}

// RequireTwoFactor makes logins for username stop at a two-factor challenge
func (s *Server) RequireTwoFactor(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.twoFactor[username] = true
}

// RequireLogin rejects post lookups that carry no valid session cookie
func (s *Server) RequireLogin(required bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLogin = required
}

// SetErrorResponse forces an HTTP status for every request to path
func (s *Server) SetErrorResponse(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorResponses[path] = status
}

// InvalidateSessions forgets every issued session cookie
func (s *Server) InvalidateSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]string)
}

// LoginCount returns how many credential posts were received
func (s *Server) LoginCount() int {
	return int(atomic.LoadInt32(&s.loginCount))
}

// PostRequestCount returns how many post lookups were received
func (s *Server) PostRequestCount() int {
	return int(atomic.LoadInt32(&s.postRequests))
}

func (s *Server) forcedError(w http.ResponseWriter, r *http.Request) bool {
	s.mu.RLock()
	status := s.errorResponses[r.URL.Path]
	s.mu.RUnlock()

	if status == 0 {
		return false
	}
	writeJSON(w, status, map[string]interface{}{
		"message": http.StatusText(status),
		"status":  "fail",
	})
	return true
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.forcedError(w, r) {
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf-anonymous", Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "mid", Value: "fake-mid", Path: "/"})
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, "<html><body>login</body></html>")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.loginCount, 1)
	if s.forcedError(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	cookie, err := r.Cookie("csrftoken")
	if err != nil || cookie.Value == "" || r.Header.Get("X-CSRFToken") != cookie.Value {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"message": "CSRF token missing or incorrect",
			"status":  "fail",
		})
		return
	}

	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")
	password := passwordFromForm(r.PostForm.Get("enc_password"))

	s.mu.Lock()
	expected, known := s.accounts[username]
	twoFactor := s.twoFactor[username]
	s.mu.Unlock()

	switch {
	case !known:
		writeJSON(w, http.StatusOK, map[string]interface{}{"user": false, "authenticated": false, "status": "ok"})
		return
	case expected != password:
		writeJSON(w, http.StatusOK, map[string]interface{}{"user": true, "authenticated": false, "status": "ok"})
		return
	case twoFactor:
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message":             "",
			"two_factor_required": true,
			"status":              "fail",
		})
		return
	}

	seq := atomic.AddInt32(&s.sessionSeq, 1)
	sessionID := fmt.Sprintf("sess-%s-%d", username, seq)
	userID := fmt.Sprintf("%d", 1000+len(username))

	s.mu.Lock()
	s.sessions[sessionID] = username
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: sessionID, Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf-" + username, Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "ds_user_id", Value: userID, Path: "/"})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":          true,
		"authenticated": true,
		"userId":        userID,
		"status":        "ok",
	})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.postRequests, 1)
	if s.forcedError(w, r) {
		return
	}

	var variables struct {
		Shortcode string `json:"shortcode"`
	}
	if err := json.Unmarshal([]byte(r.URL.Query().Get("variables")), &variables); err != nil || variables.Shortcode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "invalid variables", "status": "fail"})
		return
	}

	s.mu.RLock()
	requireLogin := s.requireLogin
	post, found := s.posts[variables.Shortcode]
	s.mu.RUnlock()

	if requireLogin && !s.validSession(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"message":       "Please wait a few minutes before you try again.",
			"require_login": true,
			"status":        "fail",
		})
		return
	}

	if !found {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data":   map[string]interface{}{"xdt_shortcode_media": nil},
			"status": "ok",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":   map[string]interface{}{"xdt_shortcode_media": mediaJSON(post)},
		"status": "ok",
	})
}

func (s *Server) validSession(r *http.Request) bool {
	cookie, err := r.Cookie("sessionid")
	if err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[cookie.Value]
	return ok
}

func mediaJSON(p Post) map[string]interface{} {
	typeName := "XDTGraphImage"
	if p.IsVideo {
		typeName = "XDTGraphVideo"
	}

	captions := []interface{}{}
	if p.Caption != "" {
		captions = append(captions, map[string]interface{}{
			"node": map[string]interface{}{"text": p.Caption},
		})
	}

	media := map[string]interface{}{
		"id":          "3100" + p.Shortcode,
		"shortcode":   p.Shortcode,
		"__typename":  typeName,
		"is_video":    p.IsVideo,
		"display_url": "https://cdn.example.com/" + p.Shortcode + ".jpg",
		"owner": map[string]interface{}{
			"id":       "42",
			"username": p.Owner,
		},
		"edge_media_to_caption": map[string]interface{}{"edges": captions},
	}
	if p.IsVideo {
		media["video_url"] = p.VideoURL
	}
	return media
}

// passwordFromForm extracts the plaintext password from
// "#PWD_INSTAGRAM_BROWSER:0:<timestamp>:<password>".
func passwordFromForm(encoded string) string {
	parts := strings.SplitN(encoded, ":", 4)
	if len(parts) != 4 {
		return ""
	}
	return parts[3]
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
