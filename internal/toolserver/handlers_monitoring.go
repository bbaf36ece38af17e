package toolserver

import (
	"context"

	"github.com/mnemosyne/mnemosyne/internal/middleware"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// monitoringSnapshot is a lightweight in-process telemetry aggregator:
// per-tier stats, search analytics, and validation outcome counts. It is
// not a replacement for an external metrics pipeline, just a same-process
// view a caller can poll without one.
type monitoringSnapshot struct {
	TierStats       map[types.Tier]types.TierStats `json:"tierStats"`
	SearchAnalytics any                             `json:"searchAnalytics"`
	ValidationStats any                             `json:"validationStats"`
}

func handleGetMonitoringStats(ctx context.Context, s *Server, _ map[string]any, reqCtx middleware.RequestContext) (any, error) {
	tierStats, err := handleGetMemoryStats(ctx, s, nil, reqCtx)
	if err != nil {
		return nil, err
	}
	stats, _ := tierStats.(map[types.Tier]types.TierStats)
	return monitoringSnapshot{
		TierStats:       stats,
		SearchAnalytics: s.search.Analytics(),
		ValidationStats: s.relEngine.GetValidationStats(),
	}, nil
}
