// Package catalyst scores headlines by the corporate events they mention.
package catalyst

import (
	"math"
	"sort"
	"strings"
)

// Keyword is a lowercase phrase and its signed weight.
type Keyword struct {
	Phrase string
	Weight int
}

// PositiveKeywords are catalysts that tend to move low-priced shares up.
var PositiveKeywords = []Keyword{
	{"buyback", 35},
	{"repurchase", 35},
	{"stock repurchase", 35},
	{"10b5-1", 12},
	{"fda approval", 40},
	{"clearance", 28},
	{"de novo", 30},
	{"510(k)", 26},
	{"ce mark", 20},
	{"contract", 26},
	{"award", 22},
	{"partnership", 20},
	{"distribution", 18},
	{"merger", 32},
	{"definitive", 10},
	{"acquisition", 26},
	{"earnings", 18},
	{"guidance raise", 24},
	{"beats", 18},
	{"record revenue", 16},
}

// NegativeKeywords flag dilution and capital-structure events.
// This is a keyword heuristic, not a filing analysis.
var NegativeKeywords = []Keyword{
	{"s-3", -25},
	{"s-1", -18},
	{"424b5", -25},
	{"atm", -20},
	{"registered direct", -22},
	{"warrant", -12},
	{"reverse split", -30},
}

// Match is a keyword found in a headline.
type Match struct {
	Phrase string
	Weight int
}

// Scorer sums keyword weights over substring matches.
// Overlapping phrases are all counted ("stock repurchase" also hits "repurchase").
type Scorer struct {
	positive []Keyword
	negative []Keyword
}

// NewScorer creates a scorer with the given tables. Phrases are lowercased.
func NewScorer(positive, negative []Keyword) *Scorer {
	return &Scorer{
		positive: lowerAll(positive),
		negative: lowerAll(negative),
	}
}

// DefaultScorer creates a scorer with the built-in keyword tables.
func DefaultScorer() *Scorer {
	return NewScorer(PositiveKeywords, NegativeKeywords)
}

// Score returns the signed event score of text.
func (s *Scorer) Score(text string) int {
	score, _ := s.Explain(text)
	return score
}

// Explain returns the score and the keywords that produced it,
// strongest absolute weight first.
func (s *Scorer) Explain(text string) (int, []Match) {
	lower := strings.ToLower(text)
	score := 0
	var matches []Match

	for _, table := range [][]Keyword{s.positive, s.negative} {
		for _, kw := range table {
			if kw.Phrase == "" || !strings.Contains(lower, kw.Phrase) {
				continue
			}
			score += kw.Weight
			matches = append(matches, Match{Phrase: kw.Phrase, Weight: kw.Weight})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return abs(matches[i].Weight) > abs(matches[j].Weight)
	})

	return score, matches
}

// BaseProbability maps an event score to a probability:
// clamp(offset + round(score*weight), 0, ceiling).
func BaseProbability(score, offset int, weight float64, ceiling int) int {
	p := offset + int(math.Round(float64(score)*weight))
	return Clamp(p, 0, ceiling)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Phrases returns the phrases of matches, in order.
func Phrases(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Phrase
	}
	return out
}

func lowerAll(in []Keyword) []Keyword {
	out := make([]Keyword, len(in))
	for i, kw := range in {
		out[i] = Keyword{Phrase: strings.ToLower(kw.Phrase), Weight: kw.Weight}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
