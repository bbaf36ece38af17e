package toolserver

import (
	"context"

	"github.com/mnemosyne/mnemosyne/internal/global"
	"github.com/mnemosyne/mnemosyne/internal/middleware"
	"github.com/mnemosyne/mnemosyne/internal/relationship"
)

type knowledgeGraphResult struct {
	NodeCount     int              `json:"nodeCount"`
	EdgeCount     int              `json:"edgeCount"`
	Nodes         []string         `json:"nodes"`
	Relationships []map[string]any `json:"relationships"`
}

func handleBuildKnowledgeGraph(ctx context.Context, s *Server, _ map[string]any, _ middleware.RequestContext) (any, error) {
	if s.graph == nil {
		return knowledgeGraphResult{}, nil
	}
	nodes, err := s.graph.AllNodes(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := s.graph.AllEdges(ctx)
	if err != nil {
		return nil, err
	}
	rels := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		rels = append(rels, map[string]any{
			"from":   e.From,
			"to":     e.To,
			"type":   e.Type,
			"weight": e.Weight,
		})
	}
	return knowledgeGraphResult{NodeCount: len(nodes), EdgeCount: len(edges), Nodes: nodes, Relationships: rels}, nil
}

func handleGetMemoryRelationships(_ context.Context, s *Server, args map[string]any, _ middleware.RequestContext) (any, error) {
	id, err := requireString(args, "memoryId")
	if err != nil {
		return nil, err
	}
	return s.relEngine.GetRelationships(id), nil
}

func handleDetectConflicts(ctx context.Context, s *Server, _ map[string]any, _ middleware.RequestContext) (any, error) {
	items, err := s.allItems(ctx)
	if err != nil {
		return nil, err
	}
	var sim relationship.SimilarityFunc = global.ContentSimilarity
	conflicts := s.relEngine.DetectConflicts(items, sim)
	return map[string]any{"conflictCount": len(conflicts), "conflicts": conflicts}, nil
}
