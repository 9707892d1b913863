package common

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/premarket/internal/models"
)

// NewBreaker returns a circuit breaker guarding one remote source.
// Three consecutive failures open it; while open, calls fail fast with
// gobreaker.ErrOpenState and the caller degrades to "unavailable".
func NewBreaker(name string, logger arbor.ILogger) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.5
		},
		// An empty answer is a healthy source
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, models.ErrNoData)
		},
	}
	if logger != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		}
	}
	return gobreaker.NewCircuitBreaker(st)
}

// Guard runs fn through the breaker and restores its static result type.
// A nil breaker runs fn directly.
func Guard[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	if cb == nil {
		return fn()
	}
	v, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	t, _ := v.(T)
	return t, err
}
