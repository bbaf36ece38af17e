package relationship_test

import (
	"context"
	"testing"
	"time"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/relationship"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

func newEngine() *relationship.Engine {
	return relationship.New(config.RelationshipConfig{Enabled: true, MinConfidence: 0.6, BatchSize: 50}, nil)
}

// scenario 7: storing two items in the same session two minutes apart
// should yield both a TEMPORAL and a CONTEXT relationship.
func TestDetectRelationships_TemporalAndContext(t *testing.T) {
	e := newEngine()
	now := time.Now()

	a := types.MemoryItem{ID: "a", Content: "wrote the onboarding doc", CreatedAt: now, Metadata: types.MemoryMetadata{SessionID: "s1"}}
	b := types.MemoryItem{ID: "b", Content: "reviewed the onboarding doc", CreatedAt: now.Add(2 * time.Minute), Metadata: types.MemoryMetadata{SessionID: "s1"}}

	rels := e.DetectRelationships(context.Background(), a, []types.MemoryItem{b}, nil)

	var hasTemporal, hasContext bool
	for _, r := range rels {
		if r.Type == types.RelationshipTemporal {
			hasTemporal = true
		}
		if r.Type == types.RelationshipContext {
			hasContext = true
			if r.Strength != 0.8 {
				t.Errorf("expected CONTEXT strength 0.8, got %v", r.Strength)
			}
		}
	}
	if !hasTemporal {
		t.Error("expected a TEMPORAL relationship within the 1-hour window")
	}
	if !hasContext {
		t.Error("expected a CONTEXT relationship for shared sessionId")
	}
}

func TestDetectRelationships_References(t *testing.T) {
	e := newEngine()
	now := time.Now()
	a := types.MemoryItem{ID: "item-123", Content: "root cause", CreatedAt: now}
	b := types.MemoryItem{ID: "item-456", Content: "see item-123 for the root cause", CreatedAt: now.Add(-3 * time.Hour)}

	rels := e.DetectRelationships(context.Background(), b, []types.MemoryItem{a}, nil)

	found := false
	for _, r := range rels {
		if r.Type == types.RelationshipReferences && r.Confidence == 1.0 {
			found = true
		}
	}
	if !found {
		t.Error("expected a REFERENCES relationship with confidence 1.0")
	}
}

func TestDetectRelationships_SemanticBelowThresholdBecomesSuggestion(t *testing.T) {
	e := relationship.New(config.RelationshipConfig{Enabled: true, MinConfidence: 0.9, BatchSize: 50}, nil)
	now := time.Now()

	a := types.MemoryItem{ID: "a", Content: "alpha", CreatedAt: now}
	b := types.MemoryItem{ID: "b", Content: "beta", CreatedAt: now.Add(-2 * time.Hour)} // outside temporal window

	sim := func(x, y types.MemoryItem) float64 { return 0.55 }

	rels := e.DetectRelationships(context.Background(), a, []types.MemoryItem{b}, sim)
	if len(rels) != 0 {
		t.Fatalf("expected no auto-stored relationship below minConfidence, got %v", rels)
	}
	suggestions := e.GetRelationshipSuggestions()
	if len(suggestions) == 0 {
		t.Fatal("expected the sub-threshold candidate to surface as a suggestion")
	}
}

func TestValidateRelationship_ConfirmPersists(t *testing.T) {
	e := relationship.New(config.RelationshipConfig{Enabled: true, MinConfidence: 0.99, BatchSize: 50}, nil)
	now := time.Now()
	a := types.MemoryItem{ID: "a", Content: "alpha", CreatedAt: now}
	b := types.MemoryItem{ID: "b", Content: "beta", CreatedAt: now.Add(-2 * time.Hour)}
	sim := func(x, y types.MemoryItem) float64 { return 0.5 }

	e.DetectRelationships(context.Background(), a, []types.MemoryItem{b}, sim)
	suggestions := e.GetRelationshipSuggestions()
	if len(suggestions) == 0 {
		t.Fatal("expected a suggestion")
	}

	ok, err := e.ValidateRelationship(suggestions[0].ID, relationship.ValidationConfirmed)
	if err != nil || !ok {
		t.Fatalf("expected validate to succeed, got ok=%v err=%v", ok, err)
	}
	if len(e.GetRelationships("a")) == 0 {
		t.Error("expected confirmed suggestion to become a stored relationship")
	}
}

func TestDetectConflicts_SimilarButContradicting(t *testing.T) {
	e := newEngine()
	now := time.Now()
	a := types.MemoryItem{ID: "a", Content: "the deploy pipeline is stable", CreatedAt: now}
	b := types.MemoryItem{ID: "b", Content: "the deploy pipeline is not stable", CreatedAt: now.Add(time.Hour)}

	sim := func(x, y types.MemoryItem) float64 { return 0.85 }
	conflicts := e.DetectConflicts([]types.MemoryItem{a, b}, sim)
	if len(conflicts) != 1 {
		t.Fatalf("expected exactly one contradiction, got %d", len(conflicts))
	}
	if conflicts[0].Resolution != types.ResolveSupersedeOlder {
		t.Errorf("expected supersede_older resolution, got %v", conflicts[0].Resolution)
	}
}

// scenario 8: decay bucket boundary behavior across the documented cases.
func TestPredictDecay_Urgent(t *testing.T) {
	e := newEngine()
	now := time.Now()
	stale := types.MemoryItem{
		ID:             "stale",
		Content:        "one-off debugging note",
		CreatedAt:      now.Add(-60 * 24 * time.Hour),
		LastAccessedAt: now.Add(-60 * 24 * time.Hour),
		Metadata:       types.MemoryMetadata{Priority: 1},
	}
	pred := e.PredictDecay(stale, now, 0)
	if pred.Recommendation != types.DecayUrgent {
		t.Errorf("expected urgent bucket for a stale, low-priority, unreferenced item, got %v (predicted=%v)", pred.Recommendation, pred.PredictedImportance)
	}
}

func TestPredictDecay_Promote(t *testing.T) {
	e := newEngine()
	now := time.Now()
	trending := types.MemoryItem{
		ID:             "trending",
		Content:        "incident runbook",
		CreatedAt:      now.Add(-2 * time.Hour),
		LastAccessedAt: now.Add(-5 * time.Minute),
		AccessCount:    40,
		Metadata:       types.MemoryMetadata{Priority: 6},
	}
	pred := e.PredictDecay(trending, now, 10)
	if pred.Recommendation != types.DecayPromote {
		t.Errorf("expected promote bucket for a high-velocity, well-connected item, got %v", pred.Recommendation)
	}
}

func TestSummarizeCluster_Deterministic(t *testing.T) {
	items := []types.MemoryItem{
		{ID: "b", Content: "second item with a longer body of text to truncate", Metadata: types.MemoryMetadata{Tags: []string{"x", "y"}, Category: "infra"}},
		{ID: "a", Content: "first item", Metadata: types.MemoryMetadata{Tags: []string{"x"}, Category: "infra"}},
	}
	s1 := relationship.SummarizeCluster(items)
	s2 := relationship.SummarizeCluster(items)
	if s1.Snippet != s2.Snippet || s1.Snippet != "first item" {
		t.Errorf("expected deterministic snippet from lexicographically first id, got %q vs %q", s1.Snippet, s2.Snippet)
	}
	if len(s1.TopTags) == 0 || s1.TopTags[0] != "x" {
		t.Errorf("expected 'x' to rank first by frequency, got %v", s1.TopTags)
	}
}
