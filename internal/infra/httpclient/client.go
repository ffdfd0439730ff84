package httpclient

import (
	"net/http"
	"time"
)

// New returns a plain client with a hard timeout. Callers that talk to
// slow external services (vision, geocoding) pass their own budget.
func New(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
