package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MinuteBar is one aggregated minute of trading.
// VWAP is zero when the source did not supply a volume-weighted price.
type MinuteBar struct {
	Timestamp time.Time `json:"timestamp"`
	High      float64   `json:"high"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	VWAP      float64   `json:"vwap"`
}

// ExchangeInfo is the listing venue of a symbol. Either field may be empty.
type ExchangeInfo struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Empty reports whether no exchange information is present at all.
func (e ExchangeInfo) Empty() bool {
	return e.Name == "" && e.Code == ""
}

// Label returns the most readable identifier, or "N/A".
func (e ExchangeInfo) Label() string {
	switch {
	case e.Name != "":
		return e.Name
	case e.Code != "":
		return e.Code
	default:
		return "N/A"
	}
}

// Metrics are the premarket statistics derived from minute bars.
// Nil pointers mean "insufficient data", which is distinct from zero.
type Metrics struct {
	PHL   *float64 `json:"phl,omitempty"`
	VWAP  *float64 `json:"vwap,omitempty"`
	RVOL1 *float64 `json:"rvol1,omitempty"`
	RVOL3 *float64 `json:"rvol3,omitempty"`
	RVOL5 *float64 `json:"rvol5,omitempty"`
	DV5K  *int     `json:"dv5k,omitempty"`
	Last  float64  `json:"last"`
	Bars  int      `json:"bars"`
}

// GapPercent returns the percentage move of Last over ref in decimal, so
// boundary moves such as 1.00 to 1.12 compare exactly.
// The second result is false when no bars backed Last or ref is not positive.
func (m Metrics) GapPercent(ref decimal.Decimal) (decimal.Decimal, bool) {
	if m.Bars == 0 || !ref.IsPositive() {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(m.Last).Sub(ref).Div(ref).Mul(hundred), true
}

var hundred = decimal.NewFromInt(100)
