package toolserver

import (
	"context"

	"github.com/mnemosyne/mnemosyne/internal/middleware"
	"github.com/mnemosyne/mnemosyne/internal/relationship"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

func handleGetMemoryVersions(_ context.Context, s *Server, args map[string]any, _ middleware.RequestContext) (any, error) {
	id, err := requireString(args, "memoryId")
	if err != nil {
		return nil, err
	}
	return s.relEngine.GetVersions(id), nil
}

func handleSummarizeCluster(ctx context.Context, s *Server, args map[string]any, _ middleware.RequestContext) (any, error) {
	ids := argStringSlice(args, "memoryIds")
	if len(ids) == 0 {
		return nil, types.NewError(types.KindValidation, "missing required field: memoryIds", nil)
	}
	items := make([]types.MemoryItem, 0, len(ids))
	for _, id := range ids {
		item, err := s.findItem(ctx, id)
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, *item)
		}
	}
	return relationship.SummarizeCluster(items), nil
}
