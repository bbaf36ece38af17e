// Package relationship implements RelationshipEngine: relationship
// detection, conflict detection, versioning, decay prediction, and
// cluster summarization.
package relationship

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/ontology"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// ValidationStatus is the state of a below-threshold candidate
// relationship awaiting a human/automated decision.
type ValidationStatus string

const (
	ValidationPending  ValidationStatus = "pending"
	ValidationConfirmed ValidationStatus = "confirmed"
	ValidationRejected ValidationStatus = "rejected"
	ValidationModified ValidationStatus = "modified"
)

// Suggestion is a candidate relationship below minConfidence, offered to
// the validation surface instead of being auto-stored.
type Suggestion struct {
	ID           string
	Relationship types.MemoryRelationship
	Status       ValidationStatus
}

// SimilarityFunc computes semantic similarity between two items' content,
// typically backed by GlobalLayer's vector index.
type SimilarityFunc func(a, b types.MemoryItem) float64

// Engine is the RelationshipEngine. It is append-only for relationship
// storage during detection; relationships are pruned only through
// InvalidateEndpoint when an item is deleted.
type Engine struct {
	cfg    config.RelationshipConfig
	logger *log.Logger

	mu            sync.RWMutex
	relationships map[string][]types.MemoryRelationship // by item id, both directions indexed
	suggestions   map[string]*Suggestion
	versions      map[string][]types.MemoryVersion

	enricher ontology.Enricher
}

func New(cfg config.RelationshipConfig, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		cfg:           cfg,
		logger:        logger,
		relationships: make(map[string][]types.MemoryRelationship),
		suggestions:   make(map[string]*Suggestion),
		versions:      make(map[string][]types.MemoryVersion),
	}
}

// DetectRelationships evaluates m against a bounded candidate set S and
// stores every candidate with confidence >= cfg.MinConfidence; the rest
// become validation suggestions.
func (e *Engine) DetectRelationships(ctx context.Context, m types.MemoryItem, candidates []types.MemoryItem, sim SimilarityFunc) []types.MemoryRelationship {
	batch := candidates
	if e.cfg.BatchSize > 0 && len(batch) > e.cfg.BatchSize {
		batch = batch[:e.cfg.BatchSize]
	}

	var stored []types.MemoryRelationship
	for _, other := range batch {
		if other.ID == m.ID {
			continue
		}
		for _, cand := range detectCandidates(m, other, sim) {
			if cand.Confidence >= e.cfg.MinConfidence {
				e.store(cand)
				stored = append(stored, cand)
			} else {
				e.offerSuggestion(cand)
			}
		}
	}
	return stored
}

func detectCandidates(m, other types.MemoryItem, sim SimilarityFunc) []types.MemoryRelationship {
	var out []types.MemoryRelationship
	now := m.CreatedAt

	// TEMPORAL: co-occurrence within a 1-hour window.
	if delta := abs(now.Sub(other.CreatedAt)); delta <= hourWindow {
		strength := 1 - float64(delta)/float64(hourWindow)
		if strength < 0 {
			strength = 0
		}
		out = append(out, newRelationship(m.ID, other.ID, types.RelationshipTemporal, strength, strength, "temporal-cooccurrence"))
	}

	// SEMANTIC: vector cosine similarity >= 0.5.
	if sim != nil {
		if s := sim(m, other); s >= 0.5 {
			out = append(out, newRelationship(m.ID, other.ID, types.RelationshipSemantic, s, s, "vector-cosine"))
		}
	}

	// CONTEXT: identical projectId or sessionId.
	sameContext := (m.Metadata.ProjectID != "" && m.Metadata.ProjectID == other.Metadata.ProjectID) ||
		(m.Metadata.SessionID != "" && m.Metadata.SessionID == other.Metadata.SessionID)
	if sameContext {
		out = append(out, newRelationship(m.ID, other.ID, types.RelationshipContext, 0.8, 0.8, "shared-context"))
	}

	// REFERENCES: one item's content contains the other's id.
	if containsToken(m.Content, other.ID) || containsToken(other.Content, m.ID) {
		out = append(out, newRelationship(m.ID, other.ID, types.RelationshipReferences, 1.0, 1.0, "id-reference"))
	}

	// CAUSAL / SUPERSEDES: validator-curated, never auto-confirmed above
	// a ceiling (default 0.8) regardless of how strong the heuristic is.
	if hasCausalMarker(m.Content) {
		out = append(out, newRelationship(m.ID, other.ID, types.RelationshipCausal, 0.5, capConfidence(0.5), "causal-marker-heuristic"))
	}
	if hasSupersedesMarker(m.Content) {
		out = append(out, newRelationship(m.ID, other.ID, types.RelationshipSupersedes, 0.5, capConfidence(0.5), "supersedes-marker-heuristic"))
	}

	return out
}

const causalConfidenceCeiling = 0.8

func capConfidence(c float64) float64 {
	if c > causalConfidenceCeiling {
		return causalConfidenceCeiling
	}
	return c
}

func newRelationship(fromID, toID string, t types.RelationshipType, strength, confidence float64, algorithm string) types.MemoryRelationship {
	return types.MemoryRelationship{
		ID: uuid.NewString(), FromID: fromID, ToID: toID, Type: t,
		Strength: strength, Confidence: confidence,
		Meta: types.RelationshipMeta{Algorithm: algorithm},
	}
}

func (e *Engine) store(rel types.MemoryRelationship) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.relationships[rel.FromID] = append(e.relationships[rel.FromID], rel)
	e.relationships[rel.ToID] = append(e.relationships[rel.ToID], rel)
}

func (e *Engine) offerSuggestion(rel types.MemoryRelationship) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := uuid.NewString()
	e.suggestions[id] = &Suggestion{ID: id, Relationship: rel, Status: ValidationPending}
}

// GetRelationships returns every relationship touching itemID.
func (e *Engine) GetRelationships(itemID string) []types.MemoryRelationship {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]types.MemoryRelationship(nil), e.relationships[itemID]...)
}

// GetRelationshipSuggestions returns pending validation suggestions.
func (e *Engine) GetRelationshipSuggestions() []Suggestion {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Suggestion
	for _, s := range e.suggestions {
		if s.Status == ValidationPending {
			out = append(out, *s)
		}
	}
	return out
}

// ValidateRelationship applies a confirm/reject/modify decision to a
// pending suggestion.
func (e *Engine) ValidateRelationship(suggestionID string, action ValidationStatus) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.suggestions[suggestionID]
	if !ok {
		return false, types.NewError(types.KindNotFound, "no such suggestion", nil)
	}
	s.Status = action
	if action == ValidationConfirmed || action == ValidationModified {
		rel := s.Relationship
		e.relationships[rel.FromID] = append(e.relationships[rel.FromID], rel)
		e.relationships[rel.ToID] = append(e.relationships[rel.ToID], rel)
	}
	return true, nil
}

// GetValidationStats reports counts by status, an aggregate view of the
// model's insight into its own accuracy.
func (e *Engine) GetValidationStats() map[ValidationStatus]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	stats := make(map[ValidationStatus]int)
	for _, s := range e.suggestions {
		stats[s.Status]++
	}
	return stats
}

// InvalidateEndpoint garbage-collects relationships referencing a deleted
// item id; Router.Delete calls it as soon as a delete succeeds.
func (e *Engine) InvalidateEndpoint(itemID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.relationships, itemID)
	for id, rels := range e.relationships {
		kept := rels[:0]
		for _, r := range rels {
			if r.FromID != itemID && r.ToID != itemID {
				kept = append(kept, r)
			}
		}
		e.relationships[id] = kept
	}
}
