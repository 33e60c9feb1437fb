package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"igserve/pkg/logger"
)

// Error types for Instagram API operations
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents an Instagram API error
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("instagram %s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Options configures a Client. Zero values fall back to package defaults.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Transport overrides the HTTP transport, mainly for tests
	Transport http.RoundTripper
}

// Client talks to Instagram's web endpoints. Each client owns its own
// cookie jar, so one client corresponds to one browser-like session.
type Client struct {
	httpClient *http.Client
	jar        *cookiejar.Jar
	headers    map[string]string
	baseURL    *url.URL
	logger     logger.Logger
}

// NewClient creates a new Instagram client
func NewClient(opts Options, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid instagram base URL %q", opts.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Jar:       jar,
			Transport: opts.Transport,
		},
		jar: jar,
		headers: map[string]string{
			"User-Agent":      opts.UserAgent,
			"Accept":          "*/*",
			"Accept-Language": "en-US,en;q=0.9",
			"X-IG-App-ID":     AppID,
			"Sec-Fetch-Site":  "same-origin",
		},
		baseURL: base,
		logger:  log,
	}, nil
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// BaseURL returns the Instagram origin this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// cookie returns the current value of a cookie scoped to the base URL
func (c *Client) cookie(name string) string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"path":   req.URL.Path,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"path":     req.URL.Path,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &Error{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// get performs a GET request against the given absolute URL
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	return c.doRequest(req)
}

// getJSON performs a GET request and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, rawURL string, target interface{}) error {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	return c.decodeJSON(resp, target)
}

func (c *Client) decodeJSON(resp *http.Response, target interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"path":         resp.Request.URL.Path,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &Error{
			Type:    ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// checkResponseStatus checks the HTTP response status and returns appropriate errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"path":   resp.Request.URL.Path,
	}

	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", fields)
		return &Error{
			Type:    ErrorTypeAuth,
			Message: "authentication required",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return &Error{
			Type:    ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", fields)
		return &Error{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		c.logger.ErrorWithFields("server error", fields)
		return &Error{
			Type:    ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		c.logger.ErrorWithFields("unexpected API error", fields)
		return &Error{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}
