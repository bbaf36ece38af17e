package relationship

import (
	"context"

	"github.com/mnemosyne/mnemosyne/internal/ontology"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// SetEnricher wires the optional ontology enrichment step. A nil or
// unset enricher leaves EnrichAsync a no-op.
func (e *Engine) SetEnricher(enricher ontology.Enricher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enricher = enricher
}

// EnrichAsync runs the configured Enricher against item's content in a
// background goroutine and hands the result to apply on success. It
// never blocks the caller and never touches the hot store/search path;
// a failing or unconfigured enricher is silently skipped.
func (e *Engine) EnrichAsync(ctx context.Context, item types.MemoryItem, apply func(ontology.Enrichment)) {
	e.mu.RLock()
	enricher := e.enricher
	e.mu.RUnlock()
	if enricher == nil || apply == nil {
		return
	}
	go func() {
		enrichment, err := enricher.Enrich(ctx, item.Content)
		if err != nil {
			e.logger.Printf("relationship: ontology enrichment skipped for %s: %v", item.ID, err)
			return
		}
		apply(enrichment)
	}()
}
