package toolserver

import (
	"context"
	"time"

	"github.com/mnemosyne/mnemosyne/internal/middleware"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

func (s *Server) predictAll(ctx context.Context) ([]types.DecayPrediction, error) {
	items, err := s.allItems(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]types.DecayPrediction, 0, len(items))
	for _, item := range items {
		incoming := len(s.relEngine.GetRelationships(item.ID))
		out = append(out, s.relEngine.PredictDecay(item, now, incoming))
	}
	return out, nil
}

func bucketFilter(preds []types.DecayPrediction, bucket types.DecayBucket) []types.DecayPrediction {
	out := make([]types.DecayPrediction, 0)
	for _, p := range preds {
		if p.Recommendation == bucket {
			out = append(out, p)
		}
	}
	return out
}

func handlePredictMemoryDecay(ctx context.Context, s *Server, _ map[string]any, _ middleware.RequestContext) (any, error) {
	return s.predictAll(ctx)
}

func handleGetUrgentMemories(ctx context.Context, s *Server, _ map[string]any, _ middleware.RequestContext) (any, error) {
	preds, err := s.predictAll(ctx)
	if err != nil {
		return nil, err
	}
	return bucketFilter(preds, types.DecayUrgent), nil
}

func handleGetPromotionCandidates(ctx context.Context, s *Server, _ map[string]any, _ middleware.RequestContext) (any, error) {
	preds, err := s.predictAll(ctx)
	if err != nil {
		return nil, err
	}
	return bucketFilter(preds, types.DecayPromote), nil
}

func handleGetArchivalCandidates(ctx context.Context, s *Server, _ map[string]any, _ middleware.RequestContext) (any, error) {
	preds, err := s.predictAll(ctx)
	if err != nil {
		return nil, err
	}
	return bucketFilter(preds, types.DecayArchive), nil
}

type decayInsights struct {
	Total           int                         `json:"total"`
	BucketCounts    map[types.DecayBucket]int   `json:"bucketCounts"`
	AverageConfidence float64                   `json:"averageConfidence"`
}

func handleGetDecayInsights(ctx context.Context, s *Server, _ map[string]any, _ middleware.RequestContext) (any, error) {
	preds, err := s.predictAll(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[types.DecayBucket]int)
	var confSum float64
	for _, p := range preds {
		counts[p.Recommendation]++
		confSum += p.Confidence
	}
	avg := 0.0
	if len(preds) > 0 {
		avg = confSum / float64(len(preds))
	}
	return decayInsights{Total: len(preds), BucketCounts: counts, AverageConfidence: avg}, nil
}
