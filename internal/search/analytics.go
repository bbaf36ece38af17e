package search

import (
	"sync"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// ScoreBucket classifies a result's score for distribution analytics.
type ScoreBucket string

const (
	ScoreHigh   ScoreBucket = "high"   // > 0.8
	ScoreMedium ScoreBucket = "medium" // 0.4-0.8
	ScoreLow    ScoreBucket = "low"    // < 0.4
)

func bucketScore(score float64) ScoreBucket {
	switch {
	case score > 0.8:
		return ScoreHigh
	case score >= 0.4:
		return ScoreMedium
	default:
		return ScoreLow
	}
}

// Snapshot is a point-in-time view of recorded analytics.
type Snapshot struct {
	TotalQueries       int
	ByType             map[QueryType]int
	ByComplexity       map[Complexity]int
	LayerDistribution  map[types.Tier]int
	ScoreDistribution  map[ScoreBucket]int
}

// Analytics accumulates per-call statistics: query type, complexity
// bucket, layer distribution, and score distribution.
type Analytics struct {
	mu sync.Mutex
	s  Snapshot
}

func newAnalytics() *Analytics {
	return &Analytics{s: Snapshot{
		ByType:            make(map[QueryType]int),
		ByComplexity:      make(map[Complexity]int),
		LayerDistribution: make(map[types.Tier]int),
		ScoreDistribution: make(map[ScoreBucket]int),
	}}
}

func (a *Analytics) record(qt QueryType, complexity Complexity, results []types.MemorySearchResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.s.TotalQueries++
	a.s.ByType[qt]++
	a.s.ByComplexity[complexity]++
	for _, r := range results {
		a.s.LayerDistribution[r.Source]++
		a.s.ScoreDistribution[bucketScore(r.Score)]++
	}
}

func (a *Analytics) snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := Snapshot{
		TotalQueries:      a.s.TotalQueries,
		ByType:            make(map[QueryType]int, len(a.s.ByType)),
		ByComplexity:      make(map[Complexity]int, len(a.s.ByComplexity)),
		LayerDistribution: make(map[types.Tier]int, len(a.s.LayerDistribution)),
		ScoreDistribution: make(map[ScoreBucket]int, len(a.s.ScoreDistribution)),
	}
	for k, v := range a.s.ByType {
		cp.ByType[k] = v
	}
	for k, v := range a.s.ByComplexity {
		cp.ByComplexity[k] = v
	}
	for k, v := range a.s.LayerDistribution {
		cp.LayerDistribution[k] = v
	}
	for k, v := range a.s.ScoreDistribution {
		cp.ScoreDistribution[k] = v
	}
	return cp
}
