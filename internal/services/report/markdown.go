package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ternarybob/premarket/internal/models"
)

// markdownRenderer converts GitHub Flavored Markdown to XHTML.
var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
		html.WithXHTML(),
	),
)

func (f *Formatter) markdown(r models.Ranking) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Premarket Scout | %s\n\n", f.DualTime(r.GeneratedAt))
	fmt.Fprintf(&b, "**Phase:** %s | **Threshold:** %d | **Considered:** %d\n\n", r.Phase, r.Threshold, r.Considered)

	if r.Empty() {
		fmt.Fprintf(&b, "_No candidates cleared the %s threshold (%d)._\n", r.Phase, r.Threshold)
		return b.String()
	}

	b.WriteString("| # | Symbol | Exchange | Price | Probability | Score | RVOL3 | DV5K | Headline |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for i, c := range r.Candidates {
		var rvol3 *float64
		var dv *int
		if c.Metrics != nil && c.Metrics.Bars > 0 {
			rvol3 = c.Metrics.RVOL3
			dv = c.Metrics.DV5K
		}
		fmt.Fprintf(&b, "| %d | %s | %s | $%s | %d%% | %d | %s | %s | %s |\n",
			i+1, c.Event.Symbol, c.Exchange, c.Price.StringFixed(2),
			c.FinalProbability, c.EventScore, ratio(rvol3), thousands(dv),
			markdownLink(c.Event.Headline, c.Event.URL))
	}
	return b.String()
}

func (f *Formatter) html(r models.Ranking) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(f.markdown(r)), &buf); err != nil {
		return "", fmt.Errorf("failed to render report html: %w", err)
	}
	return buf.String(), nil
}

// markdownLink renders a table-safe headline, linked when url is set.
func markdownLink(text, url string) string {
	text = strings.NewReplacer("|", "\\|", "[", "\\[", "]", "\\]").Replace(text)
	if url == "" {
		return text
	}
	return fmt.Sprintf("[%s](%s)", text, url)
}
