// Package ontology defines the optional enrichment step the
// RelationshipEngine may consult to attach richer tags, categories,
// and related concepts to a newly stored item. It is never on the hot
// store/search path: callers invoke it best-effort, after the item is
// already durable.
package ontology

import "context"

// Enrichment is what an Enricher contributes for one item.
type Enrichment struct {
	Tags            []string
	Category        string
	RelatedConcepts []string
}

// Enricher enriches a single piece of content. Implementations must
// return quickly or respect ctx's deadline; callers treat a slow or
// failing Enricher as a no-op, never a blocking dependency.
type Enricher interface {
	Enrich(ctx context.Context, content string) (Enrichment, error)
}

// Noop is the default Enricher: always returns an empty Enrichment
// with no error, used when no provider is configured.
type Noop struct{}

func (Noop) Enrich(context.Context, string) (Enrichment, error) { return Enrichment{}, nil }
