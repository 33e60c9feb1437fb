package instagram

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// AppID is the web application id Instagram expects in X-IG-App-ID
	AppID = "936619743392459"

	// DefaultUserAgent is sent when no user agent is configured
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// LoginPageEndpoint issues the initial csrftoken cookie
	LoginPageEndpoint = "/accounts/login/"

	// LoginEndpoint accepts the credential form post
	LoginEndpoint = "/api/v1/web/accounts/login/ajax/"

	// GraphQLEndpoint serves post lookups by shortcode
	GraphQLEndpoint = "/graphql/query/"

	// PostDocID is the persisted GraphQL query for a single post
	PostDocID = "8845758582119845"

	// passwordPrefix marks a plaintext password in the browser login form
	passwordPrefix = "#PWD_INSTAGRAM_BROWSER:0:"
)

// Checked in order; the first matching kind wins.
var shortcodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/reel/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/p/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/tv/([A-Za-z0-9_-]+)`),
}

// ExtractShortcode returns the post shortcode in an Instagram URL.
// Reel links are preferred over /p/ links, which are preferred over /tv/.
func ExtractShortcode(rawURL string) (string, bool) {
	for _, pattern := range shortcodePatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// PostQueryValues builds the query string for a shortcode lookup
func PostQueryValues(shortcode string) url.Values {
	variables, _ := json.Marshal(map[string]string{"shortcode": shortcode})
	return url.Values{
		"doc_id":    {PostDocID},
		"variables": {string(variables)},
	}
}

// GetPostURL constructs the public URL for a specific post
func GetPostURL(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return BaseURL + "/p/" + shortcode + "/"
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername strips a leading @ and surrounding whitespace
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}
