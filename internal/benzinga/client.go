// Package benzinga reads the Benzinga newsfeed, the structured news source
// whose stories carry their own ticker lists.
package benzinga

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/premarket/internal/common"
	"github.com/ternarybob/premarket/internal/models"
)

const (
	// DefaultBaseURL is the base URL for the Benzinga API.
	DefaultBaseURL = "https://api.benzinga.com/api/v2"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultPageSize is the newsfeed page size.
	DefaultPageSize = 100
)

// Story is one newsfeed item.
type Story struct {
	ID      int64   `json:"id"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Created string  `json:"created"` // RFC1123Z, e.g. "Fri, 14 Mar 2025 08:10:00 -0400"
	Updated string  `json:"updated"`
	Stocks  []Stock `json:"stocks"`
}

// Stock is a ticker attached to a story.
type Stock struct {
	Name string `json:"name"`
}

// APIError represents a non-200 response.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Benzinga API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Client is a Benzinga newsfeed client.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets requests per second.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithBreaker guards requests with a circuit breaker.
func WithBreaker(cb *gobreaker.CircuitBreaker) ClientOption {
	return func(c *Client) {
		c.breaker = cb
	}
}

// NewClient creates a new Benzinga client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		pageSize:   DefaultPageSize,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns "benzinga".
func (c *Client) Name() string {
	return "benzinga"
}

// FetchNews returns stories created on or after since. Rows whose created
// timestamp cannot be parsed keep the raw value and a zero PublishedAt.
func (c *Client) FetchNews(ctx context.Context, since time.Time) ([]models.NewsRow, error) {
	stories, err := common.Guard(c.breaker, func() ([]Story, error) {
		return c.getNews(ctx, since)
	})
	if err != nil {
		return nil, err
	}

	rows := make([]models.NewsRow, 0, len(stories))
	for _, s := range stories {
		symbols := make([]string, 0, len(s.Stocks))
		for _, st := range s.Stocks {
			symbols = append(symbols, st.Name)
		}
		rows = append(rows, models.NewsRow{
			Headline:     s.Title,
			URL:          s.URL,
			PublishedAt:  ParseCreated(s.Created),
			PublishedRaw: s.Created,
			Symbols:      symbols,
		})
	}
	return rows, nil
}

func (c *Client) getNews(ctx context.Context, since time.Time) ([]Story, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("benzinga rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("token", c.apiKey)
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	params.Set("displayOutput", "headline")
	params.Set("sort", "created:desc")
	params.Set("updatedSince", strconv.FormatInt(since.Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/news?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("since", since.UTC().Format(time.RFC3339)).
			Msg("Benzinga news request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   "/news",
		}
	}

	var stories []Story
	if err := json.NewDecoder(resp.Body).Decode(&stories); err != nil {
		return nil, fmt.Errorf("failed to decode news: %v: %w", err, models.ErrMalformed)
	}
	return stories, nil
}

// ParseCreated parses a newsfeed timestamp, returning zero on failure.
func ParseCreated(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
