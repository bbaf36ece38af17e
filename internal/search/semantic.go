package search

import (
	"context"
	"strings"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

const semanticBoostWeight = 0.15

// semanticSearch uses GlobalLayer's vector path, then queries the
// remaining tiers lexically and applies a semantic boost proportional
// to query/content token overlap, deduplicating by id. req.Tiers, when
// non-empty, bounds both the vector path (skipped unless Global is
// included) and the lexical fallback to the chosen tiers.
func (e *Engine) semanticSearch(ctx context.Context, req Request) ([]types.MemorySearchResult, error) {
	if e.vector == nil {
		return nil, nil
	}
	query := req.Query
	queryTokens := tokenSet(query.Text)
	out := make([]types.MemorySearchResult, 0)
	seen := make(map[string]bool)

	if tierAllowed(req.Tiers, types.TierGlobal) {
		vecResults, err := e.vector.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		for _, r := range vecResults {
			boost := tokenOverlap(queryTokens, tokenSet(r.Item.Content))
			r.Score += semanticBoostWeight * boost
			out = append(out, r)
			seen[r.Item.ID] = true
		}
	}

	for tier, searcher := range e.tiers {
		if tier == types.TierGlobal || !tierAllowed(req.Tiers, tier) {
			continue
		}
		res, err := searcher.Search(ctx, query)
		if err != nil {
			e.logger.Printf("search: semantic fallback search failed on tier %s: %v", tier, err)
			continue
		}
		for _, r := range res {
			if seen[r.Item.ID] {
				continue
			}
			boost := tokenOverlap(queryTokens, tokenSet(r.Item.Content))
			r.Score += semanticBoostWeight * boost
			out = append(out, r)
			seen[r.Item.ID] = true
		}
	}
	return out, nil
}

func tokenSet(text string) map[string]bool {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// tokenOverlap is the Jaccard-like overlap ratio used for the semantic
// boost: fraction of query tokens also present in the content.
func tokenOverlap(query, content map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for t := range query {
		if content[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
