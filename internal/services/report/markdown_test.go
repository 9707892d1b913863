package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_Markdown(t *testing.T) {
	ny, seoul := zones(t)

	out, err := NewFormatter(FormatMarkdown, ny, seoul).Format(sampleRanking())
	require.NoError(t, err)

	assert.Contains(t, out, "## Premarket Scout | 2025-03-14 04:15 ET / 2025-03-14 17:15 KST")
	assert.Contains(t, out, "| 1 | ABCD | NASDAQ | $1.50 | 89% | 35 | 2.5 | 120K | [XYZ Corp (NASDAQ: ABCD) Announces Stock Buyback](https://example.com/abcd) |")
}

func TestFormat_HTML(t *testing.T) {
	ny, seoul := zones(t)

	out, err := NewFormatter(FormatHTML, ny, seoul).Format(sampleRanking())
	require.NoError(t, err)

	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>ABCD</td>")
	assert.Contains(t, out, `<a href="https://example.com/abcd">`)
}

func TestFormat_HTMLNoCandidates(t *testing.T) {
	r := sampleRanking()
	r.Candidates = nil

	out, err := NewFormatter(FormatHTML, nil, nil).Format(r)
	require.NoError(t, err)
	assert.Contains(t, out, "<em>No candidates cleared the live threshold (65).</em>")
	assert.NotContains(t, out, "<table>")
}

func TestMarkdownLink(t *testing.T) {
	assert.Equal(t, `A \| B`, markdownLink("A | B", ""))
	assert.Equal(t, "[x](https://e.com)", markdownLink("x", "https://e.com"))
}
