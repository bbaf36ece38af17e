package temporal_test

import (
	"context"
	"testing"
	"time"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/temporal"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

func TestTemporalRangeQuery(t *testing.T) {
	// Scenario: store 5 items about 5ms apart. GetMemoriesInRange from the
	// 2nd to the 4th item's createdAt returns exactly those 3 items in
	// ascending order.
	dir := t.TempDir()
	ctx := context.Background()
	l := temporal.New(dir, config.TierConfig{MaxItems: 1000}, nil, 5*time.Minute)

	base := time.Now()
	var ids []string
	for i := 0; i < 5; i++ {
		item, _ := l.Store(ctx, types.PartialMemoryItem{Content: "item"})
		ids = append(ids, item.ID)
		time.Sleep(5 * time.Millisecond)
	}
	_ = base

	all := l.GetMemoriesInRange(time.Time{}, time.Now().Add(time.Hour), 100)
	if len(all) != 5 {
		t.Fatalf("expected 5 items total, got %d", len(all))
	}

	mid := l.GetMemoriesInRange(all[1].CreatedAt, all[3].CreatedAt, 100)
	if len(mid) != 3 {
		t.Fatalf("expected 3 items in range, got %d", len(mid))
	}
	for i := 1; i < len(mid); i++ {
		if mid[i].CreatedAt.Before(mid[i-1].CreatedAt) {
			t.Error("expected ascending time order")
		}
	}
}

func TestTemporalScoringRecencyBoost(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	l := temporal.New(dir, config.TierConfig{MaxItems: 1000}, nil, 5*time.Minute)

	l.Store(ctx, types.PartialMemoryItem{Content: "fresh item about testing"})

	results, err := l.Search(ctx, types.MemoryQuery{Text: "testing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].Score <= 0 {
		t.Errorf("expected a positive score with recency boost, got %v", results[0].Score)
	}
}
