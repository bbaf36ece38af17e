package relationship

import (
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

const conflictSimilarityThreshold = 0.7

// DetectConflicts flags pairs from items whose content is semantically
// close (cosine similarity >= 0.7) but whose polarity disagrees — one
// negates what the other asserts. Grounded in the contradiction-detector
// idiom of comparing near-duplicate claims rather than arbitrary pairs.
func (e *Engine) DetectConflicts(items []types.MemoryItem, sim SimilarityFunc) []types.Contradiction {
	var out []types.Contradiction
	if sim == nil {
		return out
	}
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			a, b := items[i], items[j]
			s := sim(a, b)
			if s < conflictSimilarityThreshold {
				continue
			}
			if hasNegation(a.Content) == hasNegation(b.Content) {
				continue
			}
			out = append(out, types.Contradiction{
				MemoryIDs:  [2]string{a.ID, b.ID},
				Similarity: s,
				Resolution: resolveContradiction(a, b),
				Reason:     "semantically similar content with disagreeing polarity",
			})
		}
	}
	return out
}

func resolveContradiction(a, b types.MemoryItem) types.ContradictionResolution {
	// The newer item is assumed to supersede the older one unless both
	// were created close enough together that neither is clearly later,
	// in which case the conflict is surfaced for manual review.
	const closeEnough = 0
	delta := a.CreatedAt.Sub(b.CreatedAt)
	if delta == closeEnough {
		return types.ResolveManualReview
	}
	return types.ResolveSupersedeOlder
}
