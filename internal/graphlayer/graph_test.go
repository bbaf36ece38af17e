package graphlayer_test

import (
	"context"
	"testing"

	"github.com/mnemosyne/mnemosyne/internal/graphlayer"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

func TestShortestPathBounded(t *testing.T) {
	g := graphlayer.NewInMemory()
	ctx := context.Background()
	g.CreateEdge(ctx, graphlayer.Edge{From: "a", To: "b", Type: types.RelationshipTemporal, Weight: 1})
	g.CreateEdge(ctx, graphlayer.Edge{From: "b", To: "c", Type: types.RelationshipTemporal, Weight: 1})

	res, err := g.ShortestPath(ctx, "a", "c", graphlayer.Bounds{MaxHops: 5, MaxNodes: 10, MaxEdges: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil || res.Distance != 2 {
		t.Fatalf("expected a path of distance 2, got %+v", res)
	}
}

func TestShortestPathUnreachable(t *testing.T) {
	g := graphlayer.NewInMemory()
	ctx := context.Background()
	g.CreateEdge(ctx, graphlayer.Edge{From: "a", To: "b", Type: types.RelationshipTemporal, Weight: 1})

	res, err := g.ShortestPath(ctx, "a", "z", graphlayer.Bounds{MaxHops: 5, MaxNodes: 10, MaxEdges: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != nil {
		t.Errorf("expected nil result for unreachable target, got %+v", res)
	}
}

func TestReachableFromRespectsHopBound(t *testing.T) {
	g := graphlayer.NewInMemory()
	ctx := context.Background()
	g.CreateEdge(ctx, graphlayer.Edge{From: "a", To: "b", Type: types.RelationshipTemporal})
	g.CreateEdge(ctx, graphlayer.Edge{From: "b", To: "c", Type: types.RelationshipTemporal})
	g.CreateEdge(ctx, graphlayer.Edge{From: "c", To: "d", Type: types.RelationshipTemporal})

	ids, _, err := g.ReachableFrom(ctx, "a", graphlayer.Bounds{MaxHops: 1, MaxNodes: 10, MaxEdges: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := map[string]bool{}
	for _, id := range ids {
		found[id] = true
	}
	if !found["b"] {
		t.Error("expected b reachable within 1 hop")
	}
	if found["c"] || found["d"] {
		t.Error("expected c and d to be beyond the 1-hop bound")
	}
}
