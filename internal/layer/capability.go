// Package layer implements BaseLayer, the storage and indexing primitives
// shared by every tier, and the Capability interface the Router uses to
// treat all four tiers uniformly.
package layer

import (
	"context"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// Capability is the tagged variant of "tier" collapsed into a shared
// surface: every tier implements it, and tier-specific extras (session
// stats, project stats, temporal context) are additional methods the
// Router discovers by type-asserting to the concrete tier.
type Capability interface {
	Tier() types.Tier
	Store(ctx context.Context, partial types.PartialMemoryItem) (types.MemoryItem, error)
	Retrieve(ctx context.Context, id string) (*types.MemoryItem, error)
	Search(ctx context.Context, query types.MemoryQuery) ([]types.MemorySearchResult, error)
	Update(ctx context.Context, id string, content *string, metadata *types.MemoryMetadata) (*types.MemoryItem, error)
	Delete(ctx context.Context, id string) (bool, error)
	Purge(ctx context.Context, id string) (bool, error)
	BulkStore(ctx context.Context, items []types.PartialMemoryItem) ([]types.MemoryItem, int)
	BulkDelete(ctx context.Context, ids []string) int
	Cleanup(ctx context.Context) (int, error)
	Export(ctx context.Context) ([]types.MemoryItem, error)
	Import(ctx context.Context, items []types.MemoryItem) (int, error)
	Optimize(ctx context.Context) error
	Backup(ctx context.Context) (string, error)
	Restore(ctx context.Context, backupID string) (bool, error)
	Stats(ctx context.Context) (types.TierStats, error)
	Count() int
}
