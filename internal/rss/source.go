// Package rss reads press-release feeds as the unstructured news fallback.
package rss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/premarket/internal/common"
	"github.com/ternarybob/premarket/internal/models"
)

// feedWorkers bounds concurrent feed downloads.
const feedWorkers = 4

// Source fetches and merges a fixed list of RSS/Atom feeds.
type Source struct {
	feeds      []string
	httpClient *http.Client
	logger     arbor.ILogger
}

// NewSource creates a feed source. Non-http(s) URLs are ignored.
func NewSource(feeds []string, timeout time.Duration, logger arbor.ILogger) *Source {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	valid := make([]string, 0, len(feeds))
	for _, feed := range feeds {
		feed = strings.TrimSpace(feed)
		if strings.HasPrefix(feed, "http://") || strings.HasPrefix(feed, "https://") {
			valid = append(valid, feed)
		}
	}
	return &Source{
		feeds:      valid,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Name returns "rss".
func (s *Source) Name() string {
	return "rss"
}

// FetchNews returns items from every feed in feed order. A failing feed is
// logged and skipped; an error is returned only when every feed failed.
func (s *Source) FetchNews(ctx context.Context, since time.Time) ([]models.NewsRow, error) {
	if len(s.feeds) == 0 {
		return nil, errors.New("no rss feeds configured")
	}

	results := make([][]models.NewsRow, len(s.feeds))
	failures := make([]error, len(s.feeds))
	var mu sync.Mutex

	errs := common.ForEachBounded(ctx, s.logger, "rss-feed", feedWorkers, len(s.feeds), func(ctx context.Context, i int) {
		rows, err := s.fetchFeed(ctx, s.feeds[i])
		mu.Lock()
		defer mu.Unlock()
		results[i], failures[i] = rows, err
	})

	var rows []models.NewsRow
	failed := 0
	for i, feed := range s.feeds {
		err := failures[i]
		if err == nil {
			err = errs[i]
		}
		if err != nil {
			failed++
			s.logger.Warn().Err(err).Str("feed", feed).Msg("RSS feed unavailable")
			continue
		}
		rows = append(rows, results[i]...)
	}

	if failed == len(s.feeds) {
		return nil, fmt.Errorf("all %d rss feeds failed", failed)
	}
	return rows, nil
}

func (s *Source) fetchFeed(ctx context.Context, feedURL string) ([]models.NewsRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "premarket/"+common.GetVersion())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status: %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	rows := make([]models.NewsRow, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		row := models.NewsRow{
			Headline:     PlainText(item.Title),
			URL:          item.Link,
			PublishedRaw: item.Published,
		}
		switch {
		case item.PublishedParsed != nil:
			row.PublishedAt = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			row.PublishedAt = *item.UpdatedParsed
			if row.PublishedRaw == "" {
				row.PublishedRaw = item.Updated
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PlainText strips markup and entities from a feed title.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
