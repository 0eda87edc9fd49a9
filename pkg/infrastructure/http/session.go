package httputil

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// userAgent mimics a desktop browser; the SSO endpoints reject unknown
// clients.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/54.0.2816.0 Safari/537.36"

// Session is an HTTP client with a shared cookie jar, holding the
// authenticated Garmin Connect session for the duration of one export run.
// All requests carry the browser User-Agent and the "nk: NT" header
// (without it the service answers 402).
type Session struct {
	client *http.Client
}

// NewSession creates a session with a fresh cookie jar.
func NewSession() (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Session{
		client: &http.Client{
			Jar: jar,
			// original-format downloads can be large; generous timeout
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// Request performs a GET, or a form-encoded POST when post is non-nil, and
// returns the response body. A 204 is success with an empty body (e.g. GPX
// export of an activity without GPS). Any other non-200 status yields an
// *HTTPError.
func (s *Session) Request(ctx context.Context, rawURL string, post url.Values, headers map[string]string) ([]byte, error) {
	var req *http.Request
	var err error
	if post != nil {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(post.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	}
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("nk", "NT")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("Failed to reach url", "url", rawURL, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	slog.Debug("HTTP response", "status", resp.StatusCode, "elapsed", time.Since(start), "url", rawURL)

	if resp.StatusCode == http.StatusNoContent {
		slog.Info("Got 204, returning empty response", "url", rawURL)
		return []byte{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newHTTPError(resp, body)
	}
	return body, nil
}

// RequestString is Request returning the body as a string.
func (s *Session) RequestString(ctx context.Context, rawURL string, post url.Values, headers map[string]string) (string, error) {
	body, err := s.Request(ctx, rawURL, post, headers)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
