// Package router implements Router, the coordination surface that
// classifies stores into a target tier, dispatches searches across
// tiers in parallel, merges and re-scores results, and drives
// promotion, migration, and scheduled cross-tier optimization.
package router

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/graphlayer"
	"github.com/mnemosyne/mnemosyne/internal/indexutil"
	"github.com/mnemosyne/mnemosyne/internal/layer"
	"github.com/mnemosyne/mnemosyne/internal/middleware"
	"github.com/mnemosyne/mnemosyne/internal/ontology"
	"github.com/mnemosyne/mnemosyne/internal/relationship"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// Promoter is implemented by tiers that can report promotion candidates
// beyond the generic Capability surface (currently only SessionLayer).
type Promoter interface {
	GetPromotionCandidates() []string
}

// Router is the coordination surface wiring every tier together.
type Router struct {
	cfg    config.RouterConfig
	logger *log.Logger

	tiers map[types.Tier]layer.Capability
	order []types.Tier // stable iteration order for deterministic fan-out

	relEngine *relationship.Engine
	graph     graphlayer.GraphLayer
	checker   *middleware.Checker
	sim       relationship.SimilarityFunc

	bus *EventBus

	mu sync.RWMutex
}

// New constructs a Router over the given tiers (keyed by Tier). checker
// may be nil, in which case every mutating operation is allowed through
// unconditionally (suitable for tests and embedded use without an
// exposed tool-call surface). sim supplies the content-similarity
// function used to seed SEMANTIC relationship detection and
// similarity-based graph autolink on every store; a nil sim disables
// both (they degrade to the non-semantic detection rules only).
func New(cfg config.RouterConfig, logger *log.Logger, tiers map[types.Tier]layer.Capability, relEngine *relationship.Engine, graph graphlayer.GraphLayer, checker *middleware.Checker, sim relationship.SimilarityFunc) *Router {
	if logger == nil {
		logger = log.Default()
	}
	order := []types.Tier{types.TierSession, types.TierProject, types.TierGlobal, types.TierTemporal}
	return &Router{
		cfg:       cfg,
		logger:    logger,
		tiers:     tiers,
		order:     order,
		relEngine: relEngine,
		graph:     graph,
		checker:   checker,
		sim:       sim,
		bus:       NewEventBus(logger),
	}
}

// Subscribe registers a best-effort event handler. See events.go.
func (r *Router) Subscribe(eventType EventType, handler Handler) { r.bus.Subscribe(eventType, handler) }

// checkRequest consults the check-request hook, when configured,
// before a mutating operation proceeds. A denial fails fast with no
// side effects.
func (r *Router) checkRequest(ctx context.Context, op string, payload any) error {
	if r.checker == nil {
		return nil
	}
	return r.checker.CheckRequest(op, middleware.FromContext(ctx), payload)
}

// classify picks the single target tier for a store, per the first
// matching rule in the documented priority order.
func (r *Router) classify(meta types.MemoryMetadata, contentLen int) types.Tier {
	if meta.Additional != nil {
		if raw, ok := meta.Additional["targetTier"]; ok {
			if s, ok := raw.(string); ok {
				switch types.Tier(s) {
				case types.TierSession, types.TierProject, types.TierGlobal, types.TierTemporal:
					return types.Tier(s)
				}
			}
		}
	}
	if meta.HasAnyTag("important", "reference") {
		return types.TierGlobal
	}
	if meta.HasAnyTag("temporary", "session") {
		return types.TierSession
	}
	switch meta.Category {
	case "system", "configuration":
		return types.TierGlobal
	case "project-specific":
		return types.TierProject
	}
	if meta.Priority >= 8 {
		return types.TierGlobal
	}
	if meta.Priority >= 6 {
		return types.TierProject
	}
	if contentLen > 5000 {
		return types.TierProject
	}
	return types.TierSession
}

// Store classifies and stores partial into its target tier, detects
// relationships against a bounded set of prior items, considers
// promotion, and emits a store event.
func (r *Router) Store(ctx context.Context, partial types.PartialMemoryItem) (types.MemoryItem, error) {
	if err := r.checkRequest(ctx, "store_memory", partial); err != nil {
		return types.MemoryItem{}, err
	}
	target := r.classify(partial.Metadata, len(partial.Content))
	tier, ok := r.tiers[target]
	if !ok {
		return types.MemoryItem{}, types.NewError(types.KindInternal, "no layer registered for tier "+string(target), nil)
	}

	item, err := tier.Store(ctx, partial)
	r.emit(EventType("store"), Event{Tier: target, ItemID: item.ID, Err: err})
	if err != nil {
		return item, err
	}

	if r.relEngine != nil {
		candidates := r.recentCandidates(ctx, target, item.ID)
		r.relEngine.DetectRelationships(ctx, item, candidates, r.sim)
		r.relEngine.EnrichAsync(ctx, item, func(e ontology.Enrichment) {
			r.applyEnrichment(target, item.ID, e)
		})
	}
	if r.graph != nil {
		candidates := r.recentCandidates(ctx, target, item.ID)
		if err := graphlayer.Autolink(ctx, r.graph, item, candidates, r.sim); err != nil {
			r.logger.Printf("router: autolink failed for %s: %v", item.ID, err)
		}
	}

	r.considerPromotion(ctx, target, item)
	return item, nil
}

// recentCandidates pulls a small bounded set of recently stored items
// from the target tier (excluding the new item) to seed relationship
// detection without scanning the whole tier.
func (r *Router) recentCandidates(ctx context.Context, tier types.Tier, excludeID string) []types.MemoryItem {
	const maxCandidates = 50
	tc, ok := r.tiers[tier]
	if !ok {
		return nil
	}
	items, err := tc.Export(ctx)
	if err != nil {
		return nil
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	var out []types.MemoryItem
	for _, it := range items {
		if it.ID == excludeID {
			continue
		}
		out = append(out, it)
		if len(out) >= maxCandidates {
			break
		}
	}
	return out
}

// considerPromotion copies item one tier up when it meets the
// documented promotion rules. Promotion never deletes the original.
func (r *Router) considerPromotion(ctx context.Context, from types.Tier, item types.MemoryItem) {
	var to types.Tier
	switch {
	case item.Metadata.Priority >= 8:
		to = types.TierGlobal
	case from == types.TierSession && item.Metadata.Priority >= 6:
		to = types.TierProject
	case item.Metadata.HasAnyTag("promote", "important"):
		to = nextTierUp(from)
	default:
		return
	}
	if to == "" || to == from {
		return
	}
	dest, ok := r.tiers[to]
	if !ok {
		return
	}
	if _, err := dest.Store(ctx, types.PartialMemoryItem{Content: item.Content, Metadata: item.Metadata}); err != nil {
		r.logger.Printf("router: promotion of %s to %s failed: %v", item.ID, to, err)
	}
}

// applyEnrichment merges an async ontology enrichment result into the
// stored item's metadata. Runs well after Store has returned, so a
// concurrent delete racing it is tolerated: Update on a missing id is
// just logged, never surfaced.
func (r *Router) applyEnrichment(tier types.Tier, itemID string, e ontology.Enrichment) {
	if len(e.Tags) == 0 && e.Category == "" && len(e.RelatedConcepts) == 0 {
		return
	}
	tc, ok := r.tiers[tier]
	if !ok {
		return
	}
	current, err := tc.Retrieve(context.Background(), itemID)
	if err != nil || current == nil {
		return
	}
	meta := current.Metadata
	meta.Tags = append(meta.Tags, e.Tags...)
	if meta.Category == "" {
		meta.Category = e.Category
	}
	if meta.Additional == nil {
		meta.Additional = map[string]any{}
	}
	if len(e.RelatedConcepts) > 0 {
		meta.Additional["relatedConcepts"] = e.RelatedConcepts
	}
	if _, err := tc.Update(context.Background(), itemID, nil, &meta); err != nil {
		r.logger.Printf("router: applying enrichment to %s failed: %v", itemID, err)
	}
}

func nextTierUp(t types.Tier) types.Tier {
	switch t {
	case types.TierSession:
		return types.TierProject
	case types.TierProject:
		return types.TierGlobal
	default:
		return ""
	}
}

// Retrieve fetches id from tier, emitting a retrieve event.
func (r *Router) Retrieve(ctx context.Context, tier types.Tier, id string) (*types.MemoryItem, error) {
	tc, ok := r.tiers[tier]
	if !ok {
		return nil, types.NewError(types.KindNotFound, "no such tier", nil)
	}
	item, err := tc.Retrieve(ctx, id)
	r.emit(EventType("retrieve"), Event{Tier: tier, ItemID: id, Err: err})
	return item, err
}

// Update, Delete pass through to the owning tier with an event emitted.
func (r *Router) Update(ctx context.Context, tier types.Tier, id string, content *string, metadata *types.MemoryMetadata) (*types.MemoryItem, error) {
	if err := r.checkRequest(ctx, "update_memory", metadata); err != nil {
		return nil, err
	}
	tc, ok := r.tiers[tier]
	if !ok {
		return nil, types.NewError(types.KindNotFound, "no such tier", nil)
	}
	item, err := tc.Update(ctx, id, content, metadata)
	r.emit(EventType("update"), Event{Tier: tier, ItemID: id, Err: err})
	return item, err
}

func (r *Router) Delete(ctx context.Context, tier types.Tier, id string) (bool, error) {
	if err := r.checkRequest(ctx, "delete_memory", id); err != nil {
		return false, err
	}
	tc, ok := r.tiers[tier]
	if !ok {
		return false, types.NewError(types.KindNotFound, "no such tier", nil)
	}
	ok2, err := tc.Delete(ctx, id)
	if ok2 && r.relEngine != nil {
		r.relEngine.InvalidateEndpoint(id)
	}
	r.emit(EventType("delete"), Event{Tier: tier, ItemID: id, Err: err})
	return ok2, err
}

// analyze computes query complexity and the set of tiers to dispatch to.
func analyze(query types.MemoryQuery) []types.Tier {
	text := strings.TrimSpace(query.Text)
	tokens := len(strings.Fields(text))

	var complexity string
	switch {
	case len(text) > 100 || tokens > 10:
		complexity = "complex"
	case len(text) < 20 && tokens <= 3:
		complexity = "simple"
	default:
		complexity = "moderate"
	}

	tiers := []types.Tier{types.TierSession}
	if complexity == "simple" || complexity == "moderate" {
		tiers = append(tiers, types.TierProject)
	}
	if complexity == "moderate" || complexity == "complex" {
		tiers = append(tiers, types.TierGlobal)
	}
	lower := strings.ToLower(text)
	wantsTemporal := strings.Contains(lower, "history") || strings.Contains(lower, "past") || strings.Contains(lower, "previous") ||
		query.Filters.CreatedAfter != nil || query.Filters.CreatedBefore != nil
	if wantsTemporal {
		tiers = append(tiers, types.TierTemporal)
	}
	return tiers
}

type tierResult struct {
	tier    types.Tier
	results []types.MemorySearchResult
}

// Search dispatches to the tiers analyze() suggests, in parallel;
// failures in one tier log and contribute an empty result, never
// aborting the request. Results are merged by content hash, re-scored,
// sorted descending, and capped at the configured/requested limit.
func (r *Router) Search(ctx context.Context, query types.MemoryQuery) ([]types.MemorySearchResult, error) {
	q := query
	q.Normalize(types.InternalMaxLimit)

	tiers := analyze(q)
	resultsCh := make(chan tierResult, len(tiers))
	var wg sync.WaitGroup
	for _, t := range tiers {
		tc, ok := r.tiers[t]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(t types.Tier, tc layer.Capability) {
			defer wg.Done()
			res, err := tc.Search(ctx, q)
			if err != nil {
				r.logger.Printf("router: search failed on tier %s: %v", t, err)
				res = nil
			}
			resultsCh <- tierResult{tier: t, results: res}
		}(t, tc)
	}
	wg.Wait()
	close(resultsCh)

	var all []types.MemorySearchResult
	for tr := range resultsCh {
		all = append(all, tr.results...)
	}

	merged := r.mergeByContentHash(all)
	scored := r.crossTierScore(merged)

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})

	limit := q.Limit
	if r.cfg.MaxResults > 0 && limit > r.cfg.MaxResults {
		limit = r.cfg.MaxResults
	}
	if limit < len(scored) {
		scored = scored[:limit]
	}

	r.emit(EventType("search"), Event{Query: q.Text})
	return scored, nil
}

// mergeByContentHash deduplicates by a 32-bit hash of item content,
// keeping the highest-scoring representative and folding the rest'
// explanations into it.
func (r *Router) mergeByContentHash(results []types.MemorySearchResult) []types.MemorySearchResult {
	best := make(map[uint32]*types.MemorySearchResult)
	var order []uint32
	for _, res := range results {
		h := indexutil.ContentHash32(res.Item.Content)
		if existing, ok := best[h]; ok {
			if res.Score > existing.Score {
				existing.Item = res.Item
				existing.Source = res.Source
				existing.Score = res.Score
			}
			existing.Explanation = existing.Explanation + "; " + res.Explanation
			continue
		}
		cp := res
		best[h] = &cp
		order = append(order, h)
	}
	out := make([]types.MemorySearchResult, 0, len(order))
	for _, h := range order {
		out = append(out, *best[h])
	}
	return out
}
