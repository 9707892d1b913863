package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Phase is the scoring mode of a run, fixed once from exchange-local time.
type Phase string

const (
	// PhasePreScan runs before live bars are meaningful; no metrics, no bonus.
	PhasePreScan Phase = "prescan"
	// PhaseLive uses live premarket bars and applies intraday bonuses.
	PhaseLive Phase = "live"
)

// Candidate is a news event that passed the eligibility gate and has been scored.
type Candidate struct {
	Event           NewsEvent       `json:"event"`
	Price           decimal.Decimal `json:"price"`
	Exchange        string          `json:"exchange"`
	EventScore      int             `json:"event_score"`
	Keywords        []string        `json:"keywords,omitempty"`
	BaseProbability int             `json:"base_probability"`
}

// ScoredCandidate is a candidate with intraday metrics and its final probability.
type ScoredCandidate struct {
	Candidate
	Metrics          *Metrics `json:"metrics,omitempty"`
	Bonus            int      `json:"bonus"`
	FinalProbability int      `json:"final_probability"`
}

// Ranking is the output of one pipeline run.
type Ranking struct {
	RunID       string            `json:"run_id"`
	Phase       Phase             `json:"phase"`
	Threshold   int               `json:"threshold"`
	GeneratedAt time.Time         `json:"generated_at"`
	Considered  int               `json:"considered"`
	Candidates  []ScoredCandidate `json:"candidates"`
}

// Empty reports the explicit no-candidates outcome.
func (r Ranking) Empty() bool {
	return len(r.Candidates) == 0
}
