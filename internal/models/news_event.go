package models

import (
	"strings"
	"time"
)

// NewsRow is a single row as returned by a news source, before symbol resolution.
type NewsRow struct {
	Headline     string    `json:"headline"`
	URL          string    `json:"url"`
	PublishedAt  time.Time `json:"published_at"`  // Zero when the source timestamp could not be parsed
	PublishedRaw string    `json:"published_raw"` // Source timestamp exactly as received
	Symbols      []string  `json:"symbols"`       // Structured symbols, empty when the source has none
}

// NewsEvent is a headline attributed to one ticker symbol.
type NewsEvent struct {
	Symbol       string    `json:"symbol"`
	Headline     string    `json:"headline"`
	URL          string    `json:"url"`
	PublishedAt  time.Time `json:"published_at"`
	PublishedRaw string    `json:"published_raw"`
	Source       string    `json:"source"`
}

// DedupKey identifies the same story reported more than once for a symbol.
type DedupKey struct {
	Symbol string
	Prefix string
}

// Key returns the dedup key using the first n runes of the headline.
func (e NewsEvent) Key(n int) DedupKey {
	return DedupKey{Symbol: e.Symbol, Prefix: HeadlinePrefix(e.Headline, n)}
}

// Published returns the publication time as text, preferring the raw source value.
func (e NewsEvent) Published() string {
	if e.PublishedRaw != "" {
		return e.PublishedRaw
	}
	if e.PublishedAt.IsZero() {
		return ""
	}
	return e.PublishedAt.UTC().Format(time.RFC3339)
}

// HeadlinePrefix returns the first n runes of headline.
func HeadlinePrefix(headline string, n int) string {
	if n <= 0 {
		return headline
	}
	runes := []rune(headline)
	if len(runes) <= n {
		return headline
	}
	return string(runes[:n])
}

// NormalizeHeadline collapses runs of whitespace and trims the result.
func NormalizeHeadline(headline string) string {
	return strings.Join(strings.Fields(headline), " ")
}
