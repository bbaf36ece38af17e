package layer_test

import (
	"context"
	"testing"
	"time"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/layer"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// lruEvict mirrors SessionLayer's LRU-by-last-access policy, used here to
// exercise BaseLayer's capacity enforcement in isolation.
func lruEvict(items map[string]types.MemoryItem) (string, bool) {
	var oldestID string
	var oldest time.Time
	first := true
	for id, item := range items {
		if first || item.LastAccessedAt.Before(oldest) ||
			(item.LastAccessedAt.Equal(oldest) && item.CreatedAt.Before(items[oldestID].CreatedAt)) {
			oldestID = id
			oldest = item.LastAccessedAt
			first = false
		}
	}
	return oldestID, !first
}

func TestBaseLayerStoreRetrieveDelete(t *testing.T) {
	bl := layer.New(types.TierSession, config.TierConfig{MaxItems: 10}, nil, lruEvict)
	ctx := context.Background()

	item, err := bl.Store(ctx, types.PartialMemoryItem{Content: "hello world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := bl.Retrieve(ctx, item.ID)
	if err != nil || got == nil {
		t.Fatalf("expected to retrieve stored item, err=%v got=%v", err, got)
	}
	if got.AccessCount != 1 {
		t.Errorf("expected access count 1, got %d", got.AccessCount)
	}

	ok, err := bl.Delete(ctx, item.ID)
	if err != nil || !ok {
		t.Fatalf("expected delete to succeed")
	}
	got, _ = bl.Retrieve(ctx, item.ID)
	if got != nil {
		t.Error("expected retrieve after delete to return nil")
	}
}

func TestBaseLayerCapacityEviction(t *testing.T) {
	// Scenario: Session maxItems=2, no TTL. store A, store B, retrieve A, store C.
	// Expected: Session contains {A, C}; retrieve(B) -> nil.
	bl := layer.New(types.TierSession, config.TierConfig{MaxItems: 2}, nil, lruEvict)
	ctx := context.Background()

	a, _ := bl.Store(ctx, types.PartialMemoryItem{Content: "A", Metadata: types.MemoryMetadata{Priority: 3}})
	time.Sleep(2 * time.Millisecond)
	b, _ := bl.Store(ctx, types.PartialMemoryItem{Content: "B", Metadata: types.MemoryMetadata{Priority: 3}})
	time.Sleep(2 * time.Millisecond)

	if _, err := bl.Retrieve(ctx, a.ID); err != nil {
		t.Fatalf("unexpected error retrieving A: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	c, err := bl.Store(ctx, types.PartialMemoryItem{Content: "C"})
	if err != nil {
		t.Fatalf("unexpected error storing C: %v", err)
	}

	if got, _ := bl.Retrieve(ctx, b.ID); got != nil {
		t.Error("expected B to have been evicted")
	}
	if got, _ := bl.Retrieve(ctx, a.ID); got == nil {
		t.Error("expected A to remain")
	}
	if got, _ := bl.Retrieve(ctx, c.ID); got == nil {
		t.Error("expected C to remain")
	}
}

func TestBaseLayerSearchSortsByScoreDescending(t *testing.T) {
	bl := layer.New(types.TierSession, config.TierConfig{MaxItems: 100}, nil, lruEvict)
	ctx := context.Background()

	bl.Store(ctx, types.PartialMemoryItem{Content: "JavaScript is a dynamic language"})
	bl.Store(ctx, types.PartialMemoryItem{Content: "React is a JavaScript library for building UIs"})
	bl.Store(ctx, types.PartialMemoryItem{Content: "Completely unrelated content about gardening"})

	results, err := bl.Search(ctx, types.MemoryQuery{Text: "javascript library"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Score < results[i].Score {
			t.Errorf("expected descending scores, got %v", results)
		}
	}
}

func TestBaseLayerTTLCleanup(t *testing.T) {
	bl := layer.New(types.TierSession, config.TierConfig{MaxItems: 10, TTL: 100 * time.Millisecond}, nil, lruEvict)
	ctx := context.Background()

	bl.Store(ctx, types.PartialMemoryItem{Content: "ephemeral"})
	time.Sleep(150 * time.Millisecond)

	n, err := bl.Cleanup(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected cleanup to remove 1 item, removed %d", n)
	}
	if bl.Count() != 0 {
		t.Errorf("expected 0 items after cleanup, got %d", bl.Count())
	}
}
