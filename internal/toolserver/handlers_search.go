package toolserver

import (
	"context"
	"time"

	"github.com/mnemosyne/mnemosyne/internal/middleware"
	"github.com/mnemosyne/mnemosyne/internal/mixer"
	"github.com/mnemosyne/mnemosyne/internal/search"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

type searchMemoryResult struct {
	ResultCount int                        `json:"resultCount"`
	Results     []types.MemorySearchResult `json:"results"`
}

func handleSearchMemory(ctx context.Context, s *Server, args map[string]any, _ middleware.RequestContext) (any, error) {
	q := parseQuery(args)
	results, err := s.router.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return searchMemoryResult{ResultCount: len(results), Results: results}, nil
}

func handleGetMemoryStats(ctx context.Context, s *Server, _ map[string]any, _ middleware.RequestContext) (any, error) {
	out := make(map[types.Tier]types.TierStats, len(s.tiers))
	for tier, tc := range s.tiers {
		stats, err := tc.Stats(ctx)
		if err != nil {
			s.logger.Printf("toolserver: stats failed for tier %s: %v", tier, err)
			continue
		}
		out[tier] = stats
	}
	return out, nil
}

// relevanceFactor breaks down, per result, what contributed to its score;
// a lightweight companion to the hybrid score itself.
type relevanceFactor struct {
	ItemID     string             `json:"itemId"`
	Confidence float64            `json:"confidence"`
	Relevance  map[string]float64 `json:"relevanceFactors"`
}

type advancedSearchResult struct {
	Results          []types.MemorySearchResult `json:"results"`
	RelevanceFactors []relevanceFactor          `json:"relevanceFactors"`
	Strategy         mixer.Strategy             `json:"strategy"`
}

func handleAdvancedSearch(ctx context.Context, s *Server, args map[string]any, _ middleware.RequestContext) (any, error) {
	q := parseQuery(args)
	strategyName, _ := argString(args, "strategy")
	var strategy mixer.Strategy
	if strategyName != "" {
		strategy = mixer.Strategy(strategyName)
	} else {
		strategy = mixer.SelectStrategy(q)
	}
	plan := s.mixer.Plan(strategy, q)

	req := search.Request{
		Query:        q,
		Semantic:     true,
		Temporal:     containsTier(plan.Tiers, types.TierTemporal),
		Relationship: argBool(args, "expandRelationships", false),
		Tiers:        plan.Tiers,
		TierWeights:  plan.TierWeights,
	}
	results, err := s.search.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if plan.NoveltyBoost {
		results = mixer.ApplyNoveltyBoost(results, nil)
	}
	s.mixer.RecordOutcome(tierHitCounts(results))

	factors := make([]relevanceFactor, 0, len(results))
	for _, r := range results {
		factors = append(factors, relevanceFactor{
			ItemID:     r.Item.ID,
			Confidence: r.Score,
			Relevance:  map[string]float64{"score": r.Score, "tierWeight": plan.TierWeights[r.Source]},
		})
	}
	return advancedSearchResult{Results: results, RelevanceFactors: factors, Strategy: strategy}, nil
}

func handleSemanticSearch(ctx context.Context, s *Server, args map[string]any, _ middleware.RequestContext) (any, error) {
	q := parseQuery(args)
	results, err := s.search.Execute(ctx, search.Request{Query: q, Semantic: true})
	if err != nil {
		return nil, err
	}
	return searchMemoryResult{ResultCount: len(results), Results: results}, nil
}

func handleTemporalSearch(ctx context.Context, s *Server, args map[string]any, _ middleware.RequestContext) (any, error) {
	q := parseQuery(args)
	req := search.Request{Query: q, Temporal: true}
	if expr, ok := argString(args, "timeRange"); ok && expr != "" {
		rng := search.ResolveRelativeRange(expr, time.Now())
		req.TimeRange = &rng
	}
	results, err := s.search.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return searchMemoryResult{ResultCount: len(results), Results: results}, nil
}

func containsTier(tiers []types.Tier, t types.Tier) bool {
	for _, x := range tiers {
		if x == t {
			return true
		}
	}
	return false
}

func tierHitCounts(results []types.MemorySearchResult) map[types.Tier]int {
	counts := make(map[types.Tier]int)
	for _, r := range results {
		counts[r.Source]++
	}
	return counts
}
