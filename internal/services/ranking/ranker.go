// Package ranking applies the phase gate, intraday bonuses and thresholds.
package ranking

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/premarket/internal/common"
	"github.com/ternarybob/premarket/internal/models"
	"github.com/ternarybob/premarket/internal/services/catalyst"
)

// Ranker turns scored candidates into the final shortlist.
type Ranker struct {
	config    common.RankingConfig
	liveStart common.Clock
}

// NewRanker creates a ranker. An unparseable live_start falls back to 04:10.
func NewRanker(config common.RankingConfig) *Ranker {
	liveStart, err := common.ParseClock(config.LiveStart)
	if err != nil {
		liveStart = common.Clock{Hour: 4, Minute: 10}
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 5
	}
	return &Ranker{config: config, liveStart: liveStart}
}

// PhaseAt returns the phase for now read in loc.
func (r *Ranker) PhaseAt(now time.Time, loc *time.Location) models.Phase {
	if r.liveStart.AtOrAfter(now, loc) {
		return models.PhaseLive
	}
	return models.PhasePreScan
}

// Threshold returns the minimum final probability for phase.
func (r *Ranker) Threshold(phase models.Phase) int {
	if phase == models.PhaseLive {
		return r.config.LiveThreshold
	}
	return r.config.PreScanThreshold
}

// BaseProbability maps an event score using the configured offset, weight and cap.
func (r *Ranker) BaseProbability(score int) int {
	return catalyst.BaseProbability(score, r.config.BaseOffset, r.config.ScoreWeight, r.config.BaseCap)
}

// Bonus returns the intraday bonus for a candidate. Unset metrics never qualify,
// and no bonus applies outside the live phase.
func (r *Ranker) Bonus(phase models.Phase, c models.Candidate, m *models.Metrics) int {
	if phase != models.PhaseLive || m == nil {
		return 0
	}

	bonus := 0
	if m.RVOL3 != nil && *m.RVOL3 >= r.config.RVOLMin {
		bonus += r.config.RVOLBonus
	}
	if m.DV5K != nil && *m.DV5K >= r.config.DollarVolumeMin && *m.DV5K <= r.config.DollarVolumeMax {
		bonus += r.config.DollarVolumeBonus
	}
	if gap, ok := m.GapPercent(c.Price); ok &&
		gap.GreaterThanOrEqual(decimal.NewFromFloat(r.config.GapMin)) &&
		gap.LessThanOrEqual(decimal.NewFromFloat(r.config.GapMax)) {
		bonus += r.config.GapBonus
	}
	return bonus
}

// Rank scores every input, drops those under the phase threshold, sorts the
// rest by final probability (stable on input order) and keeps the top results.
func (r *Ranker) Rank(phase models.Phase, in []models.ScoredCandidate) models.Ranking {
	threshold := r.Threshold(phase)
	kept := make([]models.ScoredCandidate, 0, len(in))

	for _, sc := range in {
		if phase != models.PhaseLive {
			sc.Metrics = nil
		}
		sc.Bonus = r.Bonus(phase, sc.Candidate, sc.Metrics)
		sc.FinalProbability = catalyst.Clamp(sc.BaseProbability+sc.Bonus, 0, r.config.FinalCap)
		if sc.FinalProbability < threshold {
			continue
		}
		kept = append(kept, sc)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].FinalProbability > kept[j].FinalProbability
	})
	if len(kept) > r.config.MaxResults {
		kept = kept[:r.config.MaxResults]
	}

	return models.Ranking{
		Phase:      phase,
		Threshold:  threshold,
		Considered: len(in),
		Candidates: kept,
	}
}
