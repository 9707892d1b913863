// Package eodhd provides a client for the EODHD (End of Day Historical Data) API.
// It resolves listing exchange names and real-time previous closes for US symbols.
package eodhd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/premarket/internal/models"
)

// APIError represents an error from the EODHD API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Is reports a 404 as models.ErrNoData: the symbol is simply unknown.
func (e *APIError) Is(target error) bool {
	return target == models.ErrNoData && e.StatusCode == http.StatusNotFound
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("EODHD rate limit exceeded, retry after %v", e.RetryAfter)
}
