package ontology

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// LLMEnricher enriches content by prompting a Generator for a tags/
// category/related-concepts breakdown, gated by a circuit breaker so a
// degraded provider fails fast instead of stalling the caller.
type LLMEnricher struct {
	gen     Generator
	breaker *gobreaker.CircuitBreaker
}

// NewLLMEnricher wraps gen with a circuit breaker. maxFailures/timeout
// follow the same shape as GraphLayer's ExternalBinding: open after
// maxFailures consecutive failures, half-open after timeout.
func NewLLMEnricher(gen Generator, maxFailures int, timeout time.Duration) *LLMEnricher {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:    "ontology-llm-enricher",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
	}
	return &LLMEnricher{gen: gen, breaker: gobreaker.NewCircuitBreaker(settings)}
}

const enrichPrompt = `Given the text below, respond with a single JSON object of the form
{"tags": [...], "category": "...", "relatedConcepts": [...]}. Text:
%s`

func (e *LLMEnricher) Enrich(ctx context.Context, content string) (Enrichment, error) {
	result, err := e.breaker.Execute(func() (any, error) {
		return e.gen.Complete(ctx, fmt.Sprintf(enrichPrompt, content))
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return Enrichment{}, types.NewError(types.KindDependency, "ontology enrichment unavailable", err)
		}
		return Enrichment{}, types.NewError(types.KindDependency, "ontology enrichment failed", err)
	}

	raw, _ := result.(string)
	raw = strings.TrimSpace(raw)
	var parsed struct {
		Tags            []string `json:"tags"`
		Category        string   `json:"category"`
		RelatedConcepts []string `json:"relatedConcepts"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Enrichment{}, types.NewError(types.KindDependency, "ontology enrichment returned unparseable output", err)
	}
	return Enrichment{Tags: parsed.Tags, Category: parsed.Category, RelatedConcepts: parsed.RelatedConcepts}, nil
}
