package router

import (
	"math"
	"time"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

var tierBonus = map[types.Tier]float64{
	types.TierSession:  0.10,
	types.TierProject:  0.05,
	types.TierGlobal:   0.02,
	types.TierTemporal: 0.01,
}

// crossTierScore applies the documented cross-tier scoring function to
// every merged result: final = baseScore*w_relevance + recencyScore*w_r
// + frequencyScore*w_f + priorityScore*w_p + tierBonus.
func (r *Router) crossTierScore(results []types.MemorySearchResult) []types.MemorySearchResult {
	w := r.cfg.Weights
	now := time.Now()
	out := make([]types.MemorySearchResult, len(results))
	for i, res := range results {
		recency := recencyScore(res.Item.CreatedAt, now)
		frequency := frequencyScore(res.Item.AccessCount)
		priority := priorityScore(res.Item.Metadata.Priority)
		bonus := tierBonus[res.Source]

		final := res.Score*w.Relevance + recency*w.Recency + frequency*w.Frequency + priority*w.Priority + bonus
		out[i] = res
		out[i].Score = final
	}
	return out
}

// recencyScore decays exponentially with a 7-day half-life, in [0,1].
func recencyScore(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	if age < 0 {
		age = 0
	}
	return math.Exp(-math.Ln2 * float64(age) / float64(7*24*time.Hour))
}

// frequencyScore saturates around 50 accesses, in [0,1].
func frequencyScore(accessCount int64) float64 {
	return math.Min(math.Log1p(float64(accessCount))/math.Log1p(50), 1.0)
}

// priorityScore maps the 1-10 priority scale to [0.1,1.0].
func priorityScore(priority int) float64 {
	if priority <= 0 {
		return 0.1
	}
	if priority > 10 {
		priority = 10
	}
	return float64(priority) / 10.0
}
