package layer

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/indexutil"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// EvictionFunc chooses the id to evict when a tier is over capacity. It
// receives the full live item set and returns the id to remove and
// whether one was found.
type EvictionFunc func(items map[string]types.MemoryItem) (id string, ok bool)

// BaseLayer implements the store/retrieve/search/index primitives every
// tier specializes. Tiers embed it and supply an EvictionFunc plus their
// own TierConfig; tier-specific capabilities (persistence, vector index,
// time buckets) live alongside it in the owning package.
type BaseLayer struct {
	mu       sync.RWMutex
	tier     types.Tier
	cfg      config.TierConfig
	logger   *log.Logger
	evict    EvictionFunc
	items    map[string]types.MemoryItem
	deleted  map[string]time.Time // soft-delete tombstones, id -> deletedAt
	index    *indexutil.Inverted
	sizeUsed int64
}

// New constructs a BaseLayer for the given tier.
func New(tier types.Tier, cfg config.TierConfig, logger *log.Logger, evict EvictionFunc) *BaseLayer {
	if logger == nil {
		logger = log.Default()
	}
	return &BaseLayer{
		tier:    tier,
		cfg:     cfg,
		logger:  logger,
		evict:   evict,
		items:   make(map[string]types.MemoryItem),
		deleted: make(map[string]time.Time),
		index:   indexutil.NewInverted(),
	}
}

func (b *BaseLayer) Tier() types.Tier { return b.tier }

// Store assigns an id, stamps timestamps, enforces capacity (evicting per
// the tier's policy before admission), and indexes the item.
func (b *BaseLayer) Store(ctx context.Context, partial types.PartialMemoryItem) (types.MemoryItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	item := types.MemoryItem{
		ID:             uuid.NewString(),
		Content:        partial.Content,
		Metadata:       partial.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAccessedAt: now,
		Tier:           b.tier,
	}

	if err := b.admit(item); err != nil {
		return types.MemoryItem{}, err
	}

	b.items[item.ID] = item
	b.sizeUsed += item.SizeBytes()
	b.index.Add(item.ID, item.Content, item.Metadata.Tags, item.Metadata.Category)
	return item, nil
}

// admit enforces maxItems/maxSizeBytes, evicting via b.evict until the new
// item fits or eviction is exhausted.
func (b *BaseLayer) admit(item types.MemoryItem) error {
	for b.cfg.MaxItems > 0 && len(b.items) >= b.cfg.MaxItems {
		id, ok := b.evict(b.items)
		if !ok {
			return types.NewError(types.KindCapacityExceeded, "tier at capacity and eviction policy found no candidate", nil)
		}
		b.removeLocked(id)
	}
	if b.cfg.MaxSizeBytes > 0 && b.sizeUsed+item.SizeBytes() > b.cfg.MaxSizeBytes {
		for b.sizeUsed+item.SizeBytes() > b.cfg.MaxSizeBytes {
			id, ok := b.evict(b.items)
			if !ok {
				return types.NewError(types.KindCapacityExceeded, "tier byte budget exceeded and eviction policy found no candidate", nil)
			}
			b.removeLocked(id)
		}
	}
	return nil
}

func (b *BaseLayer) removeLocked(id string) {
	if item, ok := b.items[id]; ok {
		b.sizeUsed -= item.SizeBytes()
		b.index.Remove(id)
		delete(b.items, id)
	}
}

// Retrieve returns the item if present and live, bumping its access
// counter and last-access time as part of the returned snapshot.
func (b *BaseLayer) Retrieve(ctx context.Context, id string) (*types.MemoryItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	item, ok := b.items[id]
	if !ok {
		return nil, nil
	}
	item.AccessCount++
	item.LastAccessedAt = time.Now()
	b.items[id] = item
	snapshot := item.Clone()
	return &snapshot, nil
}

// Peek returns the item without mutating access bookkeeping, used by
// internal callers (scoring, decay) that must not count as a user access.
func (b *BaseLayer) Peek(id string) (types.MemoryItem, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	item, ok := b.items[id]
	return item, ok
}

// Search tokenizes the query, scores candidates by token overlap plus
// tag/category bonuses, filters, sorts, and paginates.
func (b *BaseLayer) Search(ctx context.Context, query types.MemoryQuery) ([]types.MemorySearchResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	q := query
	q.Normalize(types.InternalMaxLimit)

	tokens := indexutil.Tokenize(q.Text)
	var candidateIDs map[string]int
	if len(tokens) == 0 {
		candidateIDs = make(map[string]int, len(b.items))
		for id := range b.items {
			candidateIDs[id] = 0
		}
	} else {
		candidateIDs = b.index.Candidates(tokens)
	}

	results := make([]types.MemorySearchResult, 0, len(candidateIDs))
	for id := range candidateIDs {
		item, ok := b.items[id]
		if !ok {
			continue
		}
		if !matchesFilters(item, q.Filters) {
			continue
		}
		score := lexicalScore(item, tokens)
		if score < q.Similarity.Threshold {
			continue
		}
		results = append(results, types.MemorySearchResult{
			Item:        item.Clone(),
			Score:       score,
			Source:      b.tier,
			Explanation: explain(tokens, item),
		})
	}

	if q.Chronological {
		sort.Slice(results, func(i, j int) bool {
			if results[i].Item.CreatedAt.Equal(results[j].Item.CreatedAt) {
				return results[i].Item.ID < results[j].Item.ID
			}
			return results[i].Item.CreatedAt.After(results[j].Item.CreatedAt)
		})
	} else {
		sort.Slice(results, func(i, j int) bool {
			if results[i].Score != results[j].Score {
				return results[i].Score > results[j].Score
			}
			if !results[i].Item.CreatedAt.Equal(results[j].Item.CreatedAt) {
				return results[i].Item.CreatedAt.After(results[j].Item.CreatedAt)
			}
			if results[i].Item.Metadata.Priority != results[j].Item.Metadata.Priority {
				return results[i].Item.Metadata.Priority > results[j].Item.Metadata.Priority
			}
			return results[i].Item.ID < results[j].Item.ID
		})
	}

	start := q.Offset
	if start > len(results) {
		start = len(results)
	}
	end := start + q.Limit
	if end > len(results) {
		end = len(results)
	}
	return results[start:end], nil
}

func matchesFilters(item types.MemoryItem, f types.QueryFilters) bool {
	if len(f.Tags) > 0 {
		found := false
		for _, t := range f.Tags {
			if item.Metadata.HasTag(t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Category != "" && item.Metadata.Category != f.Category {
		return false
	}
	if f.MinPriority > 0 && item.Metadata.Priority < f.MinPriority {
		return false
	}
	if f.MaxPriority > 0 && item.Metadata.Priority > f.MaxPriority {
		return false
	}
	if f.Source != "" && item.Metadata.Source != f.Source {
		return false
	}
	if f.ProjectID != "" && item.Metadata.ProjectID != f.ProjectID {
		return false
	}
	if f.SessionID != "" && item.Metadata.SessionID != f.SessionID {
		return false
	}
	if f.UserID != "" && item.Metadata.UserID != f.UserID {
		return false
	}
	if f.CreatedAfter != nil && item.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && item.CreatedAt.After(*f.CreatedBefore) {
		return false
	}
	return true
}

func lexicalScore(item types.MemoryItem, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	contentTokens := indexutil.TokenSet(item.Content)
	var score float64
	for _, tok := range tokens {
		if _, ok := contentTokens[tok]; ok {
			score++
		}
		if item.Metadata.HasTag(tok) {
			score += indexutil.TagWeight
		}
		if item.Metadata.Category != "" && item.Metadata.Category == tok {
			score += indexutil.TagWeight
		}
	}
	maxPossible := float64(len(tokens)) * (1 + 2*indexutil.TagWeight)
	if maxPossible == 0 {
		return 0
	}
	normalized := score / maxPossible
	if normalized > 1 {
		normalized = 1
	}
	return normalized
}

func explain(tokens []string, item types.MemoryItem) string {
	if len(tokens) == 0 {
		return "matched: no query terms (listing)"
	}
	return "lexical match on query terms against content/tags/category"
}

// Update mutates content and/or metadata in place, reindexes, and bumps
// UpdatedAt.
func (b *BaseLayer) Update(ctx context.Context, id string, content *string, metadata *types.MemoryMetadata) (*types.MemoryItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	item, ok := b.items[id]
	if !ok {
		return nil, nil
	}

	b.sizeUsed -= item.SizeBytes()
	b.index.Remove(id)

	if content != nil {
		item.Content = *content
	}
	if metadata != nil {
		item.Metadata = *metadata
	}
	item.UpdatedAt = time.Now()

	b.items[id] = item
	b.sizeUsed += item.SizeBytes()
	b.index.Add(id, item.Content, item.Metadata.Tags, item.Metadata.Category)

	snapshot := item.Clone()
	return &snapshot, nil
}

// Delete soft-deletes id: the item is dropped from the live set and the
// index, so Retrieve and Search no longer see it, and a tombstone records
// when it was deleted. The item's content is not kept, so there is no
// undelete; Purge clears the tombstone.
func (b *BaseLayer) Delete(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.items[id]; !ok {
		return false, nil
	}
	b.deleted[id] = time.Now()
	b.removeLocked(id)
	return true, nil
}

// Purge permanently removes id, including its tombstone. This is the hard
// deletion the invariants (I1)/(I2) and versioning assume.
func (b *BaseLayer) Purge(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, wasTombstoned := b.deleted[id]
	delete(b.deleted, id)
	if _, ok := b.items[id]; ok {
		b.removeLocked(id)
		return true, nil
	}
	return wasTombstoned, nil
}

func (b *BaseLayer) BulkStore(ctx context.Context, partials []types.PartialMemoryItem) ([]types.MemoryItem, int) {
	stored := make([]types.MemoryItem, 0, len(partials))
	rejected := 0
	for _, p := range partials {
		item, err := b.Store(ctx, p)
		if err != nil {
			rejected++
			continue
		}
		stored = append(stored, item)
	}
	return stored, rejected
}

func (b *BaseLayer) BulkDelete(ctx context.Context, ids []string) int {
	n := 0
	for _, id := range ids {
		ok, _ := b.Delete(ctx, id)
		if ok {
			n++
		}
	}
	return n
}

// Cleanup removes items violating TTL or explicit expiry, returning the
// count removed.
func (b *BaseLayer) Cleanup(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	var toRemove []string
	for id, item := range b.items {
		if b.cfg.TTL > 0 && now.Sub(item.CreatedAt) > b.cfg.TTL {
			toRemove = append(toRemove, id)
			continue
		}
		if item.Metadata.ExpiresAt != nil && now.After(*item.Metadata.ExpiresAt) {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		b.removeLocked(id)
	}
	return len(toRemove), nil
}

func (b *BaseLayer) Export(ctx context.Context) ([]types.MemoryItem, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]types.MemoryItem, 0, len(b.items))
	for _, item := range b.items {
		out = append(out, item.Clone())
	}
	return out, nil
}

// Import rejects items with an empty id per-item and admits the rest,
// returning how many were imported.
func (b *BaseLayer) Import(ctx context.Context, items []types.MemoryItem) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if item.Tier == "" {
			item.Tier = b.tier
		}
		b.items[item.ID] = item
		b.sizeUsed += item.SizeBytes()
		b.index.Add(item.ID, item.Content, item.Metadata.Tags, item.Metadata.Category)
		n++
	}
	return n, nil
}

// Optimize rebuilds the inverted index. Tiers with extra indices
// (vector, time-bucket) override this and call RebuildIndex themselves.
func (b *BaseLayer) Optimize(ctx context.Context) error {
	b.RebuildIndex()
	return nil
}

// RebuildIndex discards and repopulates the inverted index from the live
// item set.
func (b *BaseLayer) RebuildIndex() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.index.Reset()
	for id, item := range b.items {
		b.index.Add(id, item.Content, item.Metadata.Tags, item.Metadata.Category)
	}
}

func (b *BaseLayer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// Items returns a defensive copy of the live item set, for callers
// (Router, RelationshipEngine) that need a bounded snapshot by value.
func (b *BaseLayer) Items() map[string]types.MemoryItem {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]types.MemoryItem, len(b.items))
	for id, item := range b.items {
		out[id] = item.Clone()
	}
	return out
}

func (b *BaseLayer) Stats(ctx context.Context) (types.TierStats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := types.TierStats{
		Tier:           b.tier,
		TotalItems:     len(b.items),
		TotalSizeBytes: b.sizeUsed,
		CategoryCounts: make(map[string]int),
	}
	for _, item := range b.items {
		if item.Metadata.Category != "" {
			stats.CategoryCounts[item.Metadata.Category]++
		}
		if stats.OldestCreatedAt == nil || item.CreatedAt.Before(*stats.OldestCreatedAt) {
			t := item.CreatedAt
			stats.OldestCreatedAt = &t
		}
		if stats.NewestCreatedAt == nil || item.CreatedAt.After(*stats.NewestCreatedAt) {
			t := item.CreatedAt
			stats.NewestCreatedAt = &t
		}
	}
	return stats, nil
}

// Logger exposes the layer's logger to embedding tiers.
func (b *BaseLayer) Logger() *log.Logger { return b.logger }

// Config exposes the layer's TierConfig to embedding tiers.
func (b *BaseLayer) Config() config.TierConfig { return b.cfg }
