// Package httputil provides the cookie-bearing HTTP session and the error
// handling used against Garmin Connect.
package httputil

import (
	"errors"
	"fmt"
	"net/http"
)

// MaxErrorBodySize is the maximum size of an error body to include in
// error messages.
const MaxErrorBodySize = 500

// HTTPError represents an HTTP error with status code and response body.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	URL        string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s (status %d) for %s: %s", e.Status, e.StatusCode, e.URL, e.Body)
	}
	return fmt.Sprintf("%s (status %d) for %s", e.Status, e.StatusCode, e.URL)
}

// StatusOf returns the HTTP status code carried by err, or 0 when err does
// not wrap an HTTPError. Callers that tolerate specific statuses (gear
// lookups, TCX generation) branch on this.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func newHTTPError(resp *http.Response, body []byte) *HTTPError {
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
		Body:       truncate(string(body), MaxErrorBodySize),
		URL:        resp.Request.URL.String(),
	}
}
