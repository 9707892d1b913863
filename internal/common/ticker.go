// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// Ticker represents a parsed, optionally exchange-qualified US ticker.
// Format: EXCHANGE:CODE (e.g., "NASDAQ:ABCD") or bare CODE.
type Ticker struct {
	// Exchange is the exchange prefix when one was given (e.g., "NASDAQ", "NYSE")
	Exchange string
	// Code is the symbol (e.g., "ABCD")
	Code string
	// Raw is the original ticker string
	Raw string
}

// USExchanges maps exchange prefixes seen in news feeds to their MIC codes.
var USExchanges = map[string]string{
	"NASDAQ":        "XNAS",
	"NYSE":          "XNYS",
	"NYSE AMERICAN": "XASE",
	"NYSEAMERICAN":  "XASE",
	"AMEX":          "XASE",
	"NYSE ARCA":     "ARCX",
	"NYSEARCA":      "ARCX",
}

// ParseTicker parses a ticker as it appears in structured news payloads.
// Supports formats:
//   - "NASDAQ:ABCD" -> Exchange="NASDAQ", Code="ABCD"
//   - "$abcd"       -> Exchange="", Code="ABCD"
//   - "ABCD.US"     -> Exchange="", Code="ABCD" (EODHD style suffix)
func ParseTicker(ticker string) Ticker {
	raw := ticker
	ticker = strings.TrimSpace(ticker)
	ticker = strings.TrimPrefix(ticker, "$")
	if ticker == "" {
		return Ticker{}
	}

	// Exchange prefix with colon separator (EXCHANGE:CODE)
	if idx := strings.LastIndex(ticker, ":"); idx > 0 {
		return Ticker{
			Exchange: strings.ToUpper(strings.TrimSpace(ticker[:idx])),
			Code:     strings.ToUpper(strings.TrimSpace(ticker[idx+1:])),
			Raw:      raw,
		}
	}

	code := strings.ToUpper(ticker)
	code = strings.TrimSuffix(code, ".US")

	return Ticker{
		Code: code,
		Raw:  raw,
	}
}

// String returns the exchange-qualified ticker string when an exchange is known.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// MIC returns the market identifier code for the exchange prefix, or "".
func (t Ticker) MIC() string {
	return USExchanges[t.Exchange]
}

// EODHDSymbol returns the EODHD API symbol format.
// Example: "ABCD" -> "ABCD.US"
func EODHDSymbol(symbol string) string {
	t := ParseTicker(symbol)
	if t.Code == "" {
		return ""
	}
	return t.Code + ".US"
}

// NormalizeSymbols parses, de-duplicates and upper-cases a list of symbols, keeping order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	result := make([]string, 0, len(symbols))
	for _, s := range symbols {
		code := ParseTicker(s).Code
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		result = append(result, code)
	}
	return result
}
