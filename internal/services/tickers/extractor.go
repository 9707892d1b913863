// Package tickers extracts candidate ticker symbols from free-text headlines.
package tickers

import (
	"regexp"
)

// Matcher is one headline pattern. Group selects the capture holding the symbol.
type Matcher struct {
	Name    string
	Pattern *regexp.Regexp
	Group   int
}

// DefaultBlocklist drops warrant, unit and preferred share conventions.
var DefaultBlocklist = regexp.MustCompile(`(-W|W$|WS$|WT$|\.W|U$|\.U|/WS|/W|/U|PR$|P$)`)

// derivativeForm only matches separator-delimited share classes, e.g.
// ABCD.WS, ABCD-U, ABCD/W or ABCD-PRA.
var derivativeForm = regexp.MustCompile(`[-./](WS|WT|W|U|PR|P)[A-Z]?$`)

// IsDerivativeForm reports whether an exchange-formatted symbol names a
// warrant, unit or preferred class. Bare symbols such as SNAP or MU never match.
func IsDerivativeForm(symbol string) bool {
	return derivativeForm.MatchString(symbol)
}

// DefaultMatchers returns the matchers ordered from most to least specific.
// The bare-word matcher over-matches acronyms on purpose; the eligibility
// gate downstream is what removes them.
func DefaultMatchers() []Matcher {
	return []Matcher{
		{
			Name:    "exchange-prefixed",
			Pattern: regexp.MustCompile(`(NASDAQ|Nasdaq|NYSE(?:\s+American)?|AMEX)[:\s-]*([A-Z]{1,5})`),
			Group:   2,
		},
		{
			Name:    "parenthesized",
			Pattern: regexp.MustCompile(`\((NASDAQ|NYSE|NYSE\s+American|AMEX):\s*([A-Z]{1,5})\)`),
			Group:   2,
		},
		{
			Name:    "bare-word",
			Pattern: regexp.MustCompile(`\b([A-Z]{1,5})\b`),
			Group:   1,
		},
	}
}

// Extractor unions the symbols found by every matcher.
type Extractor struct {
	matchers  []Matcher
	blocklist *regexp.Regexp
}

// NewExtractor creates an extractor. A nil blocklist disables suffix filtering.
func NewExtractor(matchers []Matcher, blocklist *regexp.Regexp) *Extractor {
	return &Extractor{
		matchers:  matchers,
		blocklist: blocklist,
	}
}

// NewDefaultExtractor creates an extractor with the default matchers and blocklist.
func NewDefaultExtractor() *Extractor {
	return NewExtractor(DefaultMatchers(), DefaultBlocklist)
}

// Extract returns the distinct symbols in headline. Order is matcher order,
// then position within the headline. Matchers never short-circuit each other.
func (e *Extractor) Extract(headline string) []string {
	seen := make(map[string]bool)
	var symbols []string

	for _, m := range e.matchers {
		for _, groups := range m.Pattern.FindAllStringSubmatch(headline, -1) {
			if m.Group >= len(groups) {
				continue
			}
			sym := groups[m.Group]
			if !valid(sym) || seen[sym] {
				continue
			}
			seen[sym] = true
			if e.Blocked(sym) {
				continue
			}
			symbols = append(symbols, sym)
		}
	}

	return symbols
}

// Blocked reports whether symbol is a derivative share class.
func (e *Extractor) Blocked(symbol string) bool {
	return e.blocklist != nil && e.blocklist.MatchString(symbol)
}

// valid keeps 1-5 uppercase ASCII letters.
func valid(sym string) bool {
	if len(sym) < 1 || len(sym) > 5 {
		return false
	}
	for i := 0; i < len(sym); i++ {
		if sym[i] < 'A' || sym[i] > 'Z' {
			return false
		}
	}
	return true
}
