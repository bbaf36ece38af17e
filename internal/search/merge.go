package search

import (
	"sort"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// dedupeByID collapses duplicate ids, keeping the highest-scoring copy.
func dedupeByID(results []types.MemorySearchResult) []types.MemorySearchResult {
	best := make(map[string]types.MemorySearchResult, len(results))
	for _, r := range results {
		if cur, ok := best[r.Item.ID]; !ok || r.Score > cur.Score {
			best[r.Item.ID] = r
		}
	}
	out := make([]types.MemorySearchResult, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

// mergeAndRank unions the enabled modes' result sets and re-ranks per the
// hybrid composition: final = 0.4*lex + 0.6*sem if semantic is present,
// then *0.8 + 0.2*temporal if temporal is present, then *0.9 +
// 0.1*relationshipStrength if relationship is present. A mode absent
// from the call contributes nothing and is skipped in the formula.
// tierWeights, typically a LayerMixer Plan's per-tier weighting, scales
// the composed score for each result's tier; a nil or missing entry
// weighs 1.0 (no effect).
func mergeAndRank(lexical, semantic, temporal, relationship []types.MemorySearchResult, tierWeights map[types.Tier]float64) []types.MemorySearchResult {
	lexByID := scoreByID(lexical)
	semByID := scoreByID(semantic)
	temByID := scoreByID(temporal)
	relByID := scoreByID(relationship)

	items := make(map[string]types.MemoryItem)
	for _, set := range [][]types.MemorySearchResult{lexical, semantic, temporal, relationship} {
		for _, r := range set {
			items[r.Item.ID] = r.Item
		}
	}

	hasSem := len(semantic) > 0
	hasTem := len(temporal) > 0
	hasRel := len(relationship) > 0

	out := make([]types.MemorySearchResult, 0, len(items))
	for id, item := range items {
		score := lexByID[id]
		if hasSem {
			score = 0.4*score + 0.6*semByID[id]
		}
		if hasTem {
			score = 0.8*score + 0.2*temByID[id]
		}
		if hasRel {
			score = 0.9*score + 0.1*relByID[id]
		}
		if w, ok := tierWeights[item.Tier]; ok {
			score *= w
		}
		out = append(out, types.MemorySearchResult{
			Item: item, Score: score, Source: item.Tier,
			Explanation: "hybrid composition",
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

func scoreByID(results []types.MemorySearchResult) map[string]float64 {
	out := make(map[string]float64, len(results))
	for _, r := range results {
		out[r.Item.ID] = r.Score
	}
	return out
}
