package search

import (
	"context"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// relationshipSearch starts from seed (typically the semantic results)
// and expands through the graph up to maxDepth hops, scoring each
// reachable node as seedScore / (distance + 1).
func (e *Engine) relationshipSearch(ctx context.Context, seed []types.MemorySearchResult, maxDepth int) []types.MemorySearchResult {
	if e.graph == nil || len(seed) == 0 {
		return nil
	}
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	var out []types.MemorySearchResult
	visited := make(map[string]bool, len(seed))
	for _, s := range seed {
		visited[s.Item.ID] = true
	}

	for _, s := range seed {
		frontier := []string{s.Item.ID}
		for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
			var next []string
			for _, id := range frontier {
				edges, err := e.graph.QueryEdges(ctx, id, "")
				if err != nil {
					continue
				}
				for _, edge := range edges {
					if visited[edge.To] {
						continue
					}
					visited[edge.To] = true
					item, ok := e.peekItem(ctx, edge.To)
					if !ok {
						continue
					}
					out = append(out, types.MemorySearchResult{
						Item:   item,
						Score:  s.Score / float64(depth+1),
						Source: item.Tier,
						Explanation: "relationship expansion from seed",
					})
					next = append(next, edge.To)
				}
			}
			frontier = next
		}
	}
	return out
}

// peekItem resolves an id to its stored item by probing every tier the
// engine knows about; relationship edges don't carry a tier hint.
func (e *Engine) peekItem(ctx context.Context, id string) (types.MemoryItem, bool) {
	for _, searcher := range e.tiers {
		if peeker, ok := searcher.(interface {
			Peek(id string) (types.MemoryItem, bool)
		}); ok {
			if item, found := peeker.Peek(id); found {
				return item, true
			}
		}
	}
	return types.MemoryItem{}, false
}
