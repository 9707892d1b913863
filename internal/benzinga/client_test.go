package benzinga

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("k", WithBaseURL(srv.URL), WithRateLimit(100))
}

func TestClient_FetchNews(t *testing.T) {
	since := time.Date(2025, 3, 13, 20, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/news", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("token"))
		assert.Equal(t, "1741896000", r.URL.Query().Get("updatedSince"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`[
			{"id":1,"title":"ABCD Announces Buyback","url":"https://x/1","created":"Fri, 14 Mar 2025 08:10:00 -0400","stocks":[{"name":"ABCD"},{"name":"$efgh"}]},
			{"id":2,"title":"No tickers","url":"https://x/2","created":"yesterday","stocks":[]}
		]`))
	})

	rows, err := client.FetchNews(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "ABCD Announces Buyback", rows[0].Headline)
	assert.Equal(t, []string{"ABCD", "$efgh"}, rows[0].Symbols)
	assert.True(t, rows[0].PublishedAt.Equal(time.Date(2025, 3, 14, 12, 10, 0, 0, time.UTC)))
	assert.Equal(t, "Fri, 14 Mar 2025 08:10:00 -0400", rows[0].PublishedRaw)

	assert.True(t, rows[1].PublishedAt.IsZero())
	assert.Equal(t, "yesterday", rows[1].PublishedRaw)
	assert.Empty(t, rows[1].Symbols)
}

func TestClient_FetchNewsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	_, err := client.FetchNews(context.Background(), time.Now())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "benzinga", client.Name())
}

func TestParseCreated(t *testing.T) {
	assert.True(t, ParseCreated("2025-03-14T12:10:00Z").Equal(time.Date(2025, 3, 14, 12, 10, 0, 0, time.UTC)))
	assert.True(t, ParseCreated("").IsZero())
}
