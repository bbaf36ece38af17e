package router_test

import (
	"context"
	"testing"
	"time"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/global"
	"github.com/mnemosyne/mnemosyne/internal/layer"
	"github.com/mnemosyne/mnemosyne/internal/project"
	"github.com/mnemosyne/mnemosyne/internal/relationship"
	"github.com/mnemosyne/mnemosyne/internal/router"
	"github.com/mnemosyne/mnemosyne/internal/session"
	"github.com/mnemosyne/mnemosyne/internal/temporal"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

func newTestRouter(t *testing.T) *router.Router {
	t.Helper()
	cfg := config.Default()
	root := t.TempDir()

	tiers := map[types.Tier]layer.Capability{
		types.TierSession:  session.New(cfg.Session, nil),
		types.TierProject:  project.New(root, "default", cfg.Project, nil, time.Hour),
		types.TierGlobal:   global.New(root, cfg.Global, nil, time.Hour, nil),
		types.TierTemporal: temporal.New(root, cfg.Temporal, nil, time.Hour),
	}
	return router.New(cfg.Router, nil, tiers, nil, nil, nil, global.ContentSimilarity)
}

func TestStore_ClassifiesByPriority(t *testing.T) {
	r := newTestRouter(t)
	item, err := r.Store(context.Background(), types.PartialMemoryItem{
		Content:  "system configuration notes",
		Metadata: types.MemoryMetadata{Priority: 9},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Tier != types.TierGlobal {
		t.Errorf("expected priority 9 to route to Global, got %v", item.Tier)
	}
}

func TestStore_ClassifiesByTag(t *testing.T) {
	r := newTestRouter(t)
	item, err := r.Store(context.Background(), types.PartialMemoryItem{
		Content:  "a quick scratch note",
		Metadata: types.MemoryMetadata{Tags: []string{"temporary"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Tier != types.TierSession {
		t.Errorf("expected temporary tag to route to Session, got %v", item.Tier)
	}
}

func TestStore_LongContentRoutesToProject(t *testing.T) {
	r := newTestRouter(t)
	long := make([]byte, 6000)
	for i := range long {
		long[i] = 'a'
	}
	item, err := r.Store(context.Background(), types.PartialMemoryItem{Content: string(long)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Tier != types.TierProject {
		t.Errorf("expected long content to route to Project, got %v", item.Tier)
	}
}

func TestStore_PromotesHighPriorityToGlobal(t *testing.T) {
	cfg := config.Default()
	root := t.TempDir()
	sessionLayer := session.New(cfg.Session, nil)
	globalLayer := global.New(root, cfg.Global, nil, time.Hour, nil)
	tiers := map[types.Tier]layer.Capability{
		types.TierSession:  sessionLayer,
		types.TierProject:  project.New(root, "default", cfg.Project, nil, time.Hour),
		types.TierGlobal:   globalLayer,
		types.TierTemporal: temporal.New(root, cfg.Temporal, nil, time.Hour),
	}
	r := router.New(cfg.Router, nil, tiers, nil, nil, nil, global.ContentSimilarity)

	// The temporary tag routes the item to Session; priority 8 then
	// promotes a copy to Global while the original stays in Session.
	item, err := r.Store(context.Background(), types.PartialMemoryItem{
		Content:  "urgent system finding",
		Metadata: types.MemoryMetadata{Priority: 8, Category: "notes", Tags: []string{"temporary"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Tier != types.TierSession {
		t.Fatalf("expected the temporary tag to route to Session, got %v", item.Tier)
	}
	if sessionLayer.Count() != 1 {
		t.Errorf("expected the original to stay in Session, got %d items", sessionLayer.Count())
	}
	if globalLayer.Count() != 1 {
		t.Errorf("expected priority 8 to promote a copy to Global, got %d items", globalLayer.Count())
	}
}

func TestSearch_MergesAcrossTiersAndDedupes(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	content := "shared onboarding checklist content"
	if _, err := r.Store(ctx, types.PartialMemoryItem{Content: content, Metadata: types.MemoryMetadata{Tags: []string{"temporary"}}}); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	results, err := r.Search(ctx, types.MemoryQuery{Text: "onboarding checklist"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one search result")
	}
	seen := make(map[string]bool)
	for _, res := range results {
		if seen[res.Item.ID] {
			t.Errorf("expected deduped results, found %s twice", res.Item.ID)
		}
		seen[res.Item.ID] = true
	}
}

func TestMigrate_MovesItemsBetweenTiers(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	if _, err := r.Store(ctx, types.PartialMemoryItem{Content: "old log entry", Metadata: types.MemoryMetadata{Tags: []string{"temporary"}}}); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	n, err := r.Migrate(ctx, types.TierSession, types.TierTemporal, nil)
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 item migrated, got %d", n)
	}
}

func TestStore_DetectsSemanticRelationship(t *testing.T) {
	cfg := config.Default()
	root := t.TempDir()

	tiers := map[types.Tier]layer.Capability{
		types.TierSession:  session.New(cfg.Session, nil),
		types.TierProject:  project.New(root, "default", cfg.Project, nil, time.Hour),
		types.TierGlobal:   global.New(root, cfg.Global, nil, time.Hour, nil),
		types.TierTemporal: temporal.New(root, cfg.Temporal, nil, time.Hour),
	}
	relEngine := relationship.New(cfg.Relationship, nil)
	r := router.New(cfg.Router, nil, tiers, relEngine, nil, nil, global.ContentSimilarity)
	ctx := context.Background()

	first, err := r.Store(ctx, types.PartialMemoryItem{
		Content:  "the quarterly release checklist covers staging deploy verification steps",
		Metadata: types.MemoryMetadata{Tags: []string{"temporary"}},
	})
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	second, err := r.Store(ctx, types.PartialMemoryItem{
		Content:  "the quarterly release checklist covers staging deploy verification tasks",
		Metadata: types.MemoryMetadata{Tags: []string{"temporary"}},
	})
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	rels := relEngine.GetRelationships(second.ID)
	found := false
	for _, rel := range rels {
		if rel.Type == types.RelationshipSemantic && (rel.FromID == first.ID || rel.ToID == first.ID) {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected a SEMANTIC relationship between near-duplicate items, got %+v", rels)
	}
}

func TestRunScheduledOptimization_PromotesAndArchives(t *testing.T) {
	cfg := config.Default()
	root := t.TempDir()
	projectLayer := project.New(root, "default", cfg.Project, nil, time.Hour)
	globalLayer := global.New(root, cfg.Global, nil, time.Hour, nil)
	temporalLayer := temporal.New(root, cfg.Temporal, nil, time.Hour)
	tiers := map[types.Tier]layer.Capability{
		types.TierSession:  session.New(cfg.Session, nil),
		types.TierProject:  projectLayer,
		types.TierGlobal:   globalLayer,
		types.TierTemporal: temporalLayer,
	}
	r := router.New(cfg.Router, nil, tiers, nil, nil, nil, global.ContentSimilarity)
	ctx := context.Background()

	// A Session item retrieved three times becomes a promotion candidate.
	item, err := r.Store(ctx, types.PartialMemoryItem{
		Content:  "frequently accessed note",
		Metadata: types.MemoryMetadata{Tags: []string{"temporary"}},
	})
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		r.Retrieve(ctx, types.TierSession, item.ID)
	}
	// A Global item older than six months is due for archival.
	old := time.Now().Add(-200 * 24 * time.Hour)
	globalLayer.Import(ctx, []types.MemoryItem{{ID: "old-global", Content: "retired deployment notes", CreatedAt: old, UpdatedAt: old, LastAccessedAt: old}})

	r.RunScheduledOptimization(ctx)

	if projectLayer.Count() != 1 {
		t.Errorf("expected the Session candidate to be promoted to Project, got %d Project items", projectLayer.Count())
	}
	if globalLayer.Count() != 0 {
		t.Errorf("expected the old Global item to leave Global, got %d Global items", globalLayer.Count())
	}
	if temporalLayer.Count() != 1 {
		t.Errorf("expected the old Global item to be archived to Temporal, got %d Temporal items", temporalLayer.Count())
	}
}
