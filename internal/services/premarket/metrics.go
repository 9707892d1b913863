// Package premarket derives intraday statistics from premarket minute bars.
package premarket

import (
	"math"

	"github.com/ternarybob/premarket/internal/models"
)

// BaselineBars is the number of bars averaged for the relative-volume baseline.
const BaselineBars = 20

// DollarVolumeBars is the trailing bar count summed for dollar volume.
const DollarVolumeBars = 5

// Compute derives Metrics from ascending minute bars.
// With no bars every derived field is unset and Last is prevClose.
func Compute(prevClose float64, bars []models.MinuteBar) models.Metrics {
	m := models.Metrics{Last: prevClose, Bars: len(bars)}
	if len(bars) == 0 {
		return m
	}

	phl := bars[0].High
	var pv, vol float64
	for _, b := range bars {
		if b.High > phl {
			phl = b.High
		}
		price := b.VWAP
		if price <= 0 {
			price = b.Close
		}
		pv += price * b.Volume
		vol += b.Volume
	}
	m.PHL = &phl
	if vol > 0 {
		vwap := pv / vol
		m.VWAP = &vwap
	}

	m.Last = bars[len(bars)-1].Close
	m.RVOL1 = RelativeVolume(bars, 1)
	m.RVOL3 = RelativeVolume(bars, 3)
	m.RVOL5 = RelativeVolume(bars, 5)

	dv := DollarVolumeK(bars)
	m.DV5K = &dv

	return m
}

// RelativeVolume returns the mean volume of the last n bars over the mean
// volume of the BaselineBars bars before them. Nil when fewer than
// n+BaselineBars bars exist or the baseline mean is zero.
func RelativeVolume(bars []models.MinuteBar, n int) *float64 {
	if n <= 0 || len(bars) < n+BaselineBars {
		return nil
	}

	end := len(bars) - n
	var baseline float64
	for _, b := range bars[end-BaselineBars : end] {
		baseline += b.Volume
	}
	baseline /= BaselineBars
	if baseline == 0 {
		return nil
	}

	var recent float64
	for _, b := range bars[end:] {
		recent += b.Volume
	}

	r := recent / float64(n) / baseline
	return &r
}

// DollarVolumeK returns sum(volume*close) over the last DollarVolumeBars bars,
// truncated to whole thousands.
func DollarVolumeK(bars []models.MinuteBar) int {
	start := len(bars) - DollarVolumeBars
	if start < 0 {
		start = 0
	}
	var dv float64
	for _, b := range bars[start:] {
		dv += b.Volume * b.Close
	}
	return int(math.Trunc(dv / 1000))
}
