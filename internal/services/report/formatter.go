// Package report renders a ranking for delivery.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/premarket/internal/models"
)

// Formats
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Formatter renders rankings as text, JSON, Markdown or HTML.
type Formatter struct {
	format    string
	loc       *time.Location
	secondary *time.Location
}

// NewFormatter creates a formatter. The run time is shown in loc and, when
// secondary is non-nil, also in secondary.
func NewFormatter(format string, loc, secondary *time.Location) *Formatter {
	if format == "" {
		format = FormatText
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{format: format, loc: loc, secondary: secondary}
}

// Format renders r. An empty ranking renders an explicit no-candidates block.
func (f *Formatter) Format(r models.Ranking) (string, error) {
	switch f.format {
	case FormatText:
		return f.text(r), nil
	case FormatJSON:
		return f.json(r)
	case FormatMarkdown:
		return f.markdown(r), nil
	case FormatHTML:
		return f.html(r)
	default:
		return "", fmt.Errorf("unknown report format: %s", f.format)
	}
}

// DualTime renders t as "YYYY-MM-DD HH:MM ET / YYYY-MM-DD HH:MM KST".
func (f *Formatter) DualTime(t time.Time) string {
	s := stamp(t, f.loc)
	if f.secondary != nil {
		s += " / " + stamp(t, f.secondary)
	}
	return s
}

func (f *Formatter) text(r models.Ranking) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Premarket Scout | %s\n", f.DualTime(r.GeneratedAt))
	fmt.Fprintf(&b, "Phase: %s | Threshold: %d | Considered: %d\n", r.Phase, r.Threshold, r.Considered)
	if r.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	}
	b.WriteString("\n")

	if r.Empty() {
		fmt.Fprintf(&b, "No candidates cleared the %s threshold (%d).\n", r.Phase, r.Threshold)
		return b.String()
	}

	for i, c := range r.Candidates {
		if i > 0 {
			b.WriteString("\n")
		}
		writeCandidate(&b, i+1, c)
	}
	return b.String()
}

func writeCandidate(b *strings.Builder, rank int, c models.ScoredCandidate) {
	fmt.Fprintf(b, "%d) %s  %s  $%s\n", rank, c.Event.Symbol, c.Exchange, c.Price.StringFixed(2))
	fmt.Fprintf(b, "   Probability %d%% (base %d + bonus %d) | Event score %d",
		c.FinalProbability, c.BaseProbability, c.Bonus, c.EventScore)
	if len(c.Keywords) > 0 {
		fmt.Fprintf(b, " [%s]", strings.Join(c.Keywords, ", "))
	}
	b.WriteString("\n")

	if c.Metrics != nil && c.Metrics.Bars > 0 {
		m := c.Metrics
		fmt.Fprintf(b, "   PHL %s | VWAP %s | Last %.2f | RVOL 1/3/5 %s/%s/%s | DV5K %s\n",
			price(m.PHL), price(m.VWAP), m.Last, ratio(m.RVOL1), ratio(m.RVOL3), ratio(m.RVOL5), thousands(m.DV5K))
	}

	fmt.Fprintf(b, "   %s\n", c.Event.Headline)
	if c.Event.URL != "" {
		fmt.Fprintf(b, "   %s\n", c.Event.URL)
	}
}

type jsonReport struct {
	RunTime string `json:"run_time"`
	models.Ranking
	NoCandidates bool `json:"no_candidates"`
}

func (f *Formatter) json(r models.Ranking) (string, error) {
	if r.Candidates == nil {
		r.Candidates = []models.ScoredCandidate{}
	}
	data, err := json.MarshalIndent(jsonReport{
		RunTime:      f.DualTime(r.GeneratedAt),
		Ranking:      r,
		NoCandidates: r.Empty(),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}

func stamp(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return local.Format("2006-01-02 15:04") + " " + ZoneLabel(local)
}

// ZoneLabel returns a short zone name, "ET" for US Eastern.
func ZoneLabel(t time.Time) string {
	switch t.Location().String() {
	case "America/New_York":
		return "ET"
	case "UTC":
		return "UTC"
	}
	return t.Format("MST")
}

func price(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func ratio(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

func thousands(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%dK", *v)
}
