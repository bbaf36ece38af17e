package toolserver

import (
	"context"

	"github.com/mnemosyne/mnemosyne/internal/middleware"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

type storeMemoryResult struct {
	ID       string                `json:"id"`
	Layer    types.Tier            `json:"layer"`
	Metadata types.MemoryMetadata  `json:"metadata"`
}

func handleStoreMemory(ctx context.Context, s *Server, args map[string]any, _ middleware.RequestContext) (any, error) {
	content, err := requireString(args, "content")
	if err != nil {
		return nil, err
	}
	meta := types.MemoryMetadata{
		Tags:     argStringSlice(args, "tags"),
		Category: func() string { v, _ := argString(args, "category"); return v }(),
		Priority: argInt(args, "priority", 0),
		Source:   func() string { v, _ := argString(args, "source"); return v }(),
	}
	if pid, ok := argString(args, "projectId"); ok {
		meta.ProjectID = pid
	}
	if sid, ok := argString(args, "sessionId"); ok {
		meta.SessionID = sid
	}

	item, err := s.router.Store(ctx, types.PartialMemoryItem{Content: content, Metadata: meta})
	if err != nil {
		return nil, err
	}
	return storeMemoryResult{ID: item.ID, Layer: item.Tier, Metadata: item.Metadata}, nil
}

func handleUpdateMemory(ctx context.Context, s *Server, args map[string]any, _ middleware.RequestContext) (any, error) {
	tier, err := requireString(args, "tier")
	if err != nil {
		return nil, err
	}
	id, err := requireString(args, "memoryId")
	if err != nil {
		return nil, err
	}
	var content *string
	if c, ok := argString(args, "content"); ok {
		content = &c
	}
	var meta *types.MemoryMetadata
	if tags := argStringSlice(args, "tags"); tags != nil {
		meta = &types.MemoryMetadata{Tags: tags}
	}
	item, err := s.router.Update(ctx, types.Tier(tier), id, content, meta)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func handleDeleteMemory(ctx context.Context, s *Server, args map[string]any, _ middleware.RequestContext) (any, error) {
	tier, err := requireString(args, "tier")
	if err != nil {
		return nil, err
	}
	id, err := requireString(args, "memoryId")
	if err != nil {
		return nil, err
	}
	ok, err := s.router.Delete(ctx, types.Tier(tier), id)
	if err != nil {
		return nil, err
	}
	return map[string]bool{"success": ok}, nil
}
