package services

import (
	"fmt"
	"net/http"
	"strings"
)

// StatusError classifies a non-success HTTP response. The returned error
// matches marker plus ErrAuth for 401/403, ErrNotFound for 404 and
// ErrTransient for 429 and 5xx.
func StatusError(marker error, component, operation string, status int, body string) error {
	message := fmt.Sprintf("status %d", status)
	if body = strings.TrimSpace(body); body != "" {
		if len(body) > 256 {
			body = body[:256] + "..."
		}
		message += ": " + body
	}
	var class error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		class = ErrAuth
	case status == http.StatusNotFound:
		class = ErrNotFound
	case status == http.StatusTooManyRequests || status >= 500:
		class = ErrTransient
	}
	return Wrap(marker, component, operation, message, class)
}
