package toolserver

import (
	"context"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// allItems exports every item across every tier. It is the toolserver's
// only substitute for a dedicated cross-tier listing capability: the
// decay, conflict, and graph tools all reason over the full corpus
// rather than one tier at a time.
func (s *Server) allItems(ctx context.Context) ([]types.MemoryItem, error) {
	var out []types.MemoryItem
	for _, tc := range s.tiers {
		items, err := tc.Export(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

func (s *Server) findItem(ctx context.Context, id string) (*types.MemoryItem, error) {
	for _, tc := range s.tiers {
		if item, err := tc.Retrieve(ctx, id); err == nil && item != nil {
			return item, nil
		}
	}
	return nil, nil
}
