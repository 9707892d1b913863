package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/premarket/internal/models"
)

func newTestSource(t *testing.T, status int, body string) *Source {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "ABCD", r.URL.Query().Get("symbol"))
		assert.Equal(t, "k", r.URL.Query().Get("token"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewSource(NewClient("k", WithBaseURL(srv.URL), WithRateLimit(100)), nil)
}

func TestSource_PreviousClose(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   float64
		result models.LookupStatus
	}{
		{"previous close", http.StatusOK, `{"c":2.05,"pc":1.98}`, 1.98, models.LookupFound},
		{"current when no previous", http.StatusOK, `{"c":2.05,"pc":0}`, 2.05, models.LookupFound},
		{"unknown symbol", http.StatusOK, `{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`, 0, models.LookupUnavailable},
		{"server error", http.StatusInternalServerError, `oops`, 0, models.LookupUnavailable},
		{"malformed", http.StatusOK, `{"c":`, 0, models.LookupMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestSource(t, tt.status, tt.body).PreviousClose(context.Background(), "ABCD")
			assert.Equal(t, tt.result, got.Status)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestClient_APIError(t *testing.T) {
	s := newTestSource(t, http.StatusNotFound, "not found")
	_, err := s.client.GetQuote(context.Background(), "ABCD")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "/quote", apiErr.Endpoint)
	assert.True(t, errors.Is(err, models.ErrNoData))
	assert.Equal(t, "finnhub", s.Name())
}
