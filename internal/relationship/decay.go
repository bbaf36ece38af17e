package relationship

import (
	"math"
	"time"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// decay bucket thresholds, exact per the documented decay model.
const (
	urgentHorizon       = 7 * 24 * time.Hour
	urgentThreshold     = 0.2
	archiveImportance   = 0.3
	archiveObsolescence = 30 * 24 * time.Hour
	promoteMultiplier   = 1.5
	promoteConfidence   = 0.6

	// halfLife is the base exponential decay constant, generalized from
	// the teacher's half-life formula to fold in access frequency,
	// priority, and incoming relationship count as importance boosts
	// rather than a bare age-only curve.
	halfLife = 14 * 24 * time.Hour
)

// currentImportance derives an item's present importance from priority,
// access frequency, and recency: priority anchors the baseline, frequent
// and recent access lift it, age alone does not erase it (decay is
// applied separately as a forward-looking prediction).
func currentImportance(item types.MemoryItem, now time.Time, incomingRelationships int) float64 {
	base := float64(item.Metadata.Priority) / 10.0
	if base <= 0 {
		base = 0.1
	}

	accessBoost := math.Log1p(float64(item.AccessCount)) * 0.05
	recencySince := now.Sub(item.LastAccessedAt)
	if item.LastAccessedAt.IsZero() {
		recencySince = now.Sub(item.CreatedAt)
	}
	recencyBoost := math.Exp(-float64(recencySince) / float64(7*24*time.Hour)) * 0.2
	relBoost := math.Min(float64(incomingRelationships)*0.03, 0.3)

	importance := base + accessBoost + recencyBoost + relBoost
	if importance > 2.0 {
		importance = 2.0
	}
	return importance
}

// PredictDecay forecasts an item's importance trajectory and assigns a
// recommendation bucket.
//
//   - urgent:  predicted importance will fall below 0.2 within 7 days.
//   - archive: predicted importance < 0.3 and time-to-obsolescence > 30 days.
//   - promote: predicted importance > 1.5x current importance AND confidence >= 0.6.
//   - retain:  otherwise.
func (e *Engine) PredictDecay(item types.MemoryItem, now time.Time, incomingRelationships int) types.DecayPrediction {
	current := currentImportance(item, now, incomingRelationships)

	age := now.Sub(item.CreatedAt)
	if age < 0 {
		age = 0
	}
	decayRate := math.Ln2 / float64(halfLife)
	trend := trendMultiplier(item, now)
	predictedAt7d := current * trend * math.Exp(-decayRate*float64(urgentHorizon))

	// time-to-obsolescence: how long until predicted importance decays
	// below archiveImportance, following the same exponential curve.
	var timeToObsolescence time.Duration
	if current > archiveImportance {
		t := math.Log(current/archiveImportance) / decayRate
		timeToObsolescence = time.Duration(t)
	}

	confidence := confidenceFromSignals(item, incomingRelationships)

	factors := map[string]float64{
		"priority":             float64(item.Metadata.Priority) / 10.0,
		"accessCount":          float64(item.AccessCount),
		"incomingRelationships": float64(incomingRelationships),
		"decayRate":            decayRate,
	}

	bucket := types.DecayRetain
	switch {
	case predictedAt7d < urgentThreshold:
		bucket = types.DecayUrgent
	case predictedAt7d < archiveImportance && timeToObsolescence > archiveObsolescence:
		bucket = types.DecayArchive
	case predictedAt7d > current*promoteMultiplier && confidence >= promoteConfidence:
		bucket = types.DecayPromote
	}

	return types.DecayPrediction{
		ItemID:              item.ID,
		CurrentImportance:   current,
		PredictedImportance: predictedAt7d,
		DecayRate:           decayRate,
		TimeToObsolescence:  timeToObsolescence,
		Confidence:          confidence,
		Recommendation:      bucket,
		ContributingFactors: factors,
	}
}

// trendMultiplier captures rising attention: an item accessed frequently
// and very recently is forecast to keep gaining importance for a while
// before decay dominates, which is what lets the promote bucket fire
// even though the base curve is monotonically decaying.
func trendMultiplier(item types.MemoryItem, now time.Time) float64 {
	if item.AccessCount < 3 || item.LastAccessedAt.IsZero() {
		return 1.0
	}
	sinceAccess := now.Sub(item.LastAccessedAt)
	if sinceAccess > 24*time.Hour {
		return 1.0
	}
	velocity := float64(item.AccessCount) / math.Max(now.Sub(item.CreatedAt).Hours(), 1)
	boost := 1.0 + math.Min(velocity*2, 2.0)
	return boost
}

// confidenceFromSignals scores how much evidence backs the prediction:
// more access history and more corroborating relationships raise it.
func confidenceFromSignals(item types.MemoryItem, incomingRelationships int) float64 {
	c := 0.4
	if item.AccessCount > 0 {
		c += math.Min(float64(item.AccessCount)*0.02, 0.3)
	}
	c += math.Min(float64(incomingRelationships)*0.05, 0.3)
	if c > 1.0 {
		c = 1.0
	}
	return c
}
