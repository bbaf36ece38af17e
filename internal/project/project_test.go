package project_test

import (
	"context"
	"testing"
	"time"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/project"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

func TestProjectBackupIsolation(t *testing.T) {
	// Scenario: Project backup isolation. Create P1, store item, backup;
	// create P2; restore(id) on P2 returns false; P2 stays empty.
	dir := t.TempDir()
	ctx := context.Background()

	p1 := project.New(dir, "P1", config.TierConfig{MaxItems: 100}, nil, 5*time.Minute)
	p1.Store(ctx, types.PartialMemoryItem{Content: "p1 item"})
	backupID, err := p1.Backup(ctx)
	if err != nil {
		t.Fatalf("unexpected backup error: %v", err)
	}

	p2 := project.New(dir, "P2", config.TierConfig{MaxItems: 100}, nil, 5*time.Minute)
	ok, err := p2.Restore(ctx, backupID)
	if err != nil {
		t.Fatalf("unexpected restore error: %v", err)
	}
	if ok {
		t.Error("expected restore across mismatched project ids to return false")
	}
	stats := p2.GetProjectStats()
	if stats.ProjectID != "P2" {
		t.Errorf("expected P2 stats, got %q", stats.ProjectID)
	}
	if p2.Count() != 0 {
		t.Errorf("expected P2 to remain empty, got %d items", p2.Count())
	}
}

func TestProjectForcesProjectID(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	p := project.New(dir, "P1", config.TierConfig{MaxItems: 10}, nil, 5*time.Minute)

	item, _ := p.Store(ctx, types.PartialMemoryItem{Content: "x", Metadata: types.MemoryMetadata{ProjectID: "wrong"}})
	if item.Metadata.ProjectID != "P1" {
		t.Errorf("expected forced projectId P1, got %q", item.Metadata.ProjectID)
	}
}

func TestProjectCompressionPreservesTokens(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	p := project.New(dir, "P1", config.TierConfig{MaxItems: 10, CompressionEnabled: true}, nil, 5*time.Minute)

	item, _ := p.Store(ctx, types.PartialMemoryItem{Content: "alpha   beta\n\n\n\ngamma"})
	// Import a backdated copy so that one item qualifies for compression.
	old := time.Now().Add(-30 * 24 * time.Hour)
	p.Import(ctx, []types.MemoryItem{{ID: "old", Content: "alpha   beta\n\n\n\ngamma", CreatedAt: old, UpdatedAt: old, LastAccessedAt: old}})

	p.Optimize(ctx) // the fresh item is below the age threshold and stays unchanged
	got, _ := p.Retrieve(ctx, item.ID)
	if got == nil {
		t.Fatal("expected item to still exist")
	}
	if got.Content != "alpha   beta\n\n\n\ngamma" {
		t.Errorf("expected fresh item to stay uncompressed, got %q", got.Content)
	}
	compressed, _ := p.Retrieve(ctx, "old")
	if compressed == nil {
		t.Fatal("expected backdated item to still exist")
	}
	if compressed.Content != "alpha beta\n\ngamma" {
		t.Errorf("expected whitespace collapsed with every token kept, got %q", compressed.Content)
	}
}
