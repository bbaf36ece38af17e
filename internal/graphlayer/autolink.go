package graphlayer

import (
	"context"
	"time"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

const autolinkTemporalWindow = time.Hour

// Autolink creates edges on store using temporal proximity, semantic
// similarity (supplied by the caller from GlobalLayer's vector index),
// and shared context (project/session scope). It mirrors
// RelationshipEngine's detection rules but writes directly into the
// graph rather than producing stored MemoryRelationship rows.
func Autolink(ctx context.Context, g GraphLayer, item types.MemoryItem, candidates []types.MemoryItem, similarity func(a, b types.MemoryItem) float64) error {
	if g == nil {
		return nil
	}
	if err := g.CreateNode(ctx, item.ID); err != nil {
		return err
	}

	for _, other := range candidates {
		if other.ID == item.ID {
			continue
		}
		if delta := item.CreatedAt.Sub(other.CreatedAt); delta >= 0 && delta <= autolinkTemporalWindow {
			strength := 1 - float64(delta)/float64(autolinkTemporalWindow)
			if err := g.CreateEdge(ctx, Edge{From: item.ID, To: other.ID, Type: types.RelationshipTemporal, Weight: strength}); err != nil {
				return err
			}
		}
		if similarity != nil {
			if sim := similarity(item, other); sim >= 0.5 {
				if err := g.CreateEdge(ctx, Edge{From: item.ID, To: other.ID, Type: types.RelationshipSemantic, Weight: sim}); err != nil {
					return err
				}
			}
		}
		sameContext := (item.Metadata.ProjectID != "" && item.Metadata.ProjectID == other.Metadata.ProjectID) ||
			(item.Metadata.SessionID != "" && item.Metadata.SessionID == other.Metadata.SessionID)
		if sameContext {
			if err := g.CreateEdge(ctx, Edge{From: item.ID, To: other.ID, Type: types.RelationshipContext, Weight: 0.8}); err != nil {
				return err
			}
		}
	}
	return nil
}
