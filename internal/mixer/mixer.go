// Package mixer implements LayerMixer: five blending strategies that
// differ in which tiers a search considers and how their results are
// weighted, plus automatic strategy selection from query shape.
package mixer

import (
	"sort"
	"strings"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// Strategy names one of the five blending strategies.
type Strategy string

const (
	StrategyAdaptive    Strategy = "adaptive"
	StrategyContextual  Strategy = "contextual"
	StrategyComprehensive Strategy = "comprehensive"
	StrategyPerformance Strategy = "performance"
	StrategyDiscovery   Strategy = "discovery"
)

var discoveryKeywords = []string{"explore", "discover", "related", "similar", "anything about"}

// SelectStrategy chooses a strategy automatically from query shape:
// short queries favor Performance, exploratory keywords favor
// Discovery, date-constrained queries favor Contextual, long/analytical
// queries favor Comprehensive, and everything else falls to Adaptive.
// A date constraint is checked first, so it wins over query length.
func SelectStrategy(query types.MemoryQuery) Strategy {
	text := strings.TrimSpace(query.Text)
	tokens := len(strings.Fields(text))

	if query.Filters.CreatedAfter != nil || query.Filters.CreatedBefore != nil {
		return StrategyContextual
	}
	if tokens <= 3 && len(text) < 20 {
		return StrategyPerformance
	}
	lower := strings.ToLower(text)
	for _, kw := range discoveryKeywords {
		if strings.Contains(lower, kw) {
			return StrategyDiscovery
		}
	}
	if len(text) > 100 || tokens > 10 {
		return StrategyComprehensive
	}
	return StrategyAdaptive
}

// Plan is what a strategy resolves to: which tiers to query and the
// per-tier weight applied to that tier's raw scores before the cross-
// tier scoring function runs, plus an optional novelty boost.
type Plan struct {
	Tiers        []types.Tier
	TierWeights  map[types.Tier]float64
	NoveltyBoost bool
}

// recentQuery is one entry in the Adaptive strategy's rolling history.
type recentQuery struct {
	tiersHit map[types.Tier]int
}

// Mixer holds the state Adaptive needs: a short rolling window of which
// tiers recently produced results, used to bias future dispatch toward
// tiers that have been paying off.
type Mixer struct {
	history []recentQuery
	maxHist int
}

func New() *Mixer {
	return &Mixer{maxHist: 20}
}

// RecordOutcome feeds Adaptive's learning window: which tiers produced
// at least one result for a completed search.
func (m *Mixer) RecordOutcome(tiersHit map[types.Tier]int) {
	m.history = append(m.history, recentQuery{tiersHit: tiersHit})
	if len(m.history) > m.maxHist {
		m.history = m.history[len(m.history)-m.maxHist:]
	}
}

// Plan builds the tier set and weights for strategy.
func (m *Mixer) Plan(strategy Strategy, query types.MemoryQuery) Plan {
	switch strategy {
	case StrategyPerformance:
		return Plan{
			Tiers:       []types.Tier{types.TierSession, types.TierProject},
			TierWeights: map[types.Tier]float64{types.TierSession: 1.0, types.TierProject: 0.6},
		}
	case StrategyContextual:
		return Plan{
			Tiers: []types.Tier{types.TierSession, types.TierProject, types.TierTemporal},
			TierWeights: map[types.Tier]float64{
				types.TierSession: 1.0, types.TierProject: 0.9, types.TierTemporal: 0.7,
			},
		}
	case StrategyComprehensive:
		return Plan{
			Tiers: []types.Tier{types.TierSession, types.TierProject, types.TierGlobal, types.TierTemporal},
			TierWeights: map[types.Tier]float64{
				types.TierSession: 0.8, types.TierProject: 0.9, types.TierGlobal: 1.0, types.TierTemporal: 0.8,
			},
		}
	case StrategyDiscovery:
		return Plan{
			Tiers: []types.Tier{types.TierSession, types.TierProject, types.TierGlobal, types.TierTemporal},
			TierWeights: map[types.Tier]float64{
				types.TierSession: 0.7, types.TierProject: 0.8, types.TierGlobal: 0.9, types.TierTemporal: 0.9,
			},
			NoveltyBoost: true,
		}
	default: // Adaptive
		return m.adaptivePlan()
	}
}

// adaptivePlan weights tiers by how often they've produced hits in the
// recent window, falling back to an even blend with no history yet.
func (m *Mixer) adaptivePlan() Plan {
	counts := make(map[types.Tier]int)
	total := 0
	for _, h := range m.history {
		for t, n := range h.tiersHit {
			counts[t] += n
			total += n
		}
	}
	allTiers := []types.Tier{types.TierSession, types.TierProject, types.TierGlobal, types.TierTemporal}
	weights := make(map[types.Tier]float64, len(allTiers))
	if total == 0 {
		for _, t := range allTiers {
			weights[t] = 0.75
		}
		return Plan{Tiers: allTiers, TierWeights: weights}
	}
	for _, t := range allTiers {
		w := float64(counts[t]) / float64(total)
		if w < 0.3 {
			w = 0.3 // every tier stays in play, just discounted
		}
		weights[t] = w
	}
	return Plan{Tiers: allTiers, TierWeights: weights}
}

// ApplyNoveltyBoost raises the score of results whose ids have not
// appeared in any prior recorded outcome, used by Discovery to surface
// previously unseen items over well-trodden ones.
func ApplyNoveltyBoost(results []types.MemorySearchResult, seen map[string]bool) []types.MemorySearchResult {
	const boost = 0.1
	out := make([]types.MemorySearchResult, len(results))
	copy(out, results)
	for i := range out {
		if !seen[out[i].Item.ID] {
			out[i].Score += boost
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}
