package graphlayer

import (
	"context"
	"sort"
	"sync"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// Edge is one typed, weighted adjacency.
type Edge struct {
	From     string
	To       string
	Type     types.RelationshipType
	Weight   float64
}

// PathResult is the outcome of a bounded shortest-path query.
type PathResult struct {
	Path       []string
	Distance   int
	Confidence float64
	Truncated  bool
}

// GraphLayer is the interface the Router and RelationshipEngine consume.
// Absence of a configured instance is not a failure: callers degrade to
// the non-graph path when this is nil.
type GraphLayer interface {
	CreateNode(ctx context.Context, id string) error
	CreateEdge(ctx context.Context, edge Edge) error
	QueryEdges(ctx context.Context, nodeID string, edgeType types.RelationshipType) ([]Edge, error)
	ShortestPath(ctx context.Context, from, to string, bounds Bounds) (*PathResult, error)
	ReachableFrom(ctx context.Context, from string, bounds Bounds) ([]string, bool, error)
	AllNodes(ctx context.Context) ([]string, error)
	AllEdges(ctx context.Context) ([]Edge, error)
}

// InMemory is the default GraphLayer: an adjacency map with no external
// dependency, used whenever no external graph-database binding is
// configured.
type InMemory struct {
	mu    sync.RWMutex
	nodes map[string]bool
	adj   map[string][]Edge
}

func NewInMemory() *InMemory {
	return &InMemory{nodes: make(map[string]bool), adj: make(map[string][]Edge)}
}

func (g *InMemory) CreateNode(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[id] = true
	return nil
}

func (g *InMemory) CreateEdge(ctx context.Context, edge Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[edge.From] = true
	g.nodes[edge.To] = true
	g.adj[edge.From] = append(g.adj[edge.From], edge)
	return nil
}

func (g *InMemory) QueryEdges(ctx context.Context, nodeID string, edgeType types.RelationshipType) ([]Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Edge
	for _, e := range g.adj[nodeID] {
		if edgeType == "" || e.Type == edgeType {
			out = append(out, e)
		}
	}
	return out, nil
}

func (g *InMemory) neighbors(id string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Edge(nil), g.adj[id]...)
}

// ShortestPath runs a bounded breadth-first search from `from` to `to`.
func (g *InMemory) ShortestPath(ctx context.Context, from, to string, bounds Bounds) (*PathResult, error) {
	checker := newBoundsChecker(bounds)

	type queueEntry struct {
		id   string
		path []string
	}
	visited := map[string]bool{from: true}
	queue := []queueEntry{{id: from, path: []string{from}}}
	checker.allowNode()

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.id == to {
			return &PathResult{Path: cur.path, Distance: len(cur.path) - 1, Confidence: 1.0 / float64(len(cur.path))}, nil
		}
		if len(cur.path)-1 >= bounds.MaxHops {
			continue
		}
		for _, e := range g.neighbors(cur.id) {
			select {
			case <-ctx.Done():
				return &PathResult{Truncated: true}, ctx.Err()
			default:
			}
			if visited[e.To] || !checker.allowEdge() {
				continue
			}
			if !checker.allowNode() {
				return &PathResult{Truncated: true}, nil
			}
			visited[e.To] = true
			newPath := append(append([]string(nil), cur.path...), e.To)
			queue = append(queue, queueEntry{id: e.To, path: newPath})
		}
	}
	return nil, nil
}

// ReachableFrom returns every node reachable within bounds, and whether
// the traversal was truncated by a bound before exhausting the graph.
func (g *InMemory) ReachableFrom(ctx context.Context, from string, bounds Bounds) ([]string, bool, error) {
	checker := newBoundsChecker(bounds)
	visited := map[string]bool{from: true}
	frontier := []string{from}
	checker.allowNode()
	truncated := false

	for hop := 0; hop < bounds.MaxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, id := range frontier {
			select {
			case <-ctx.Done():
				return sortedKeys(visited), true, ctx.Err()
			default:
			}
			for _, e := range g.neighbors(id) {
				if visited[e.To] {
					continue
				}
				if !checker.allowEdge() {
					truncated = true
					continue
				}
				if !checker.allowNode() {
					truncated = true
					continue
				}
				visited[e.To] = true
				next = append(next, e.To)
			}
		}
		frontier = next
	}
	return sortedKeys(visited), truncated, nil
}

// AllNodes returns every known node id, sorted for deterministic output.
func (g *InMemory) AllNodes(ctx context.Context) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.nodes), nil
}

// AllEdges returns every edge in the graph, in insertion order grouped
// by source node.
func (g *InMemory) AllEdges(ctx context.Context) ([]Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Edge
	for _, id := range sortedKeys(g.nodes) {
		out = append(out, g.adj[id]...)
	}
	return out, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
