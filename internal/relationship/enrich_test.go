package relationship_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mnemosyne/mnemosyne/internal/ontology"
	"github.com/mnemosyne/mnemosyne/internal/relationship"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

type stubEnricher struct {
	result ontology.Enrichment
}

func (s stubEnricher) Enrich(context.Context, string) (ontology.Enrichment, error) {
	return s.result, nil
}

func TestEnrichAsync_AppliesResultWithoutBlocking(t *testing.T) {
	e := newEngine()
	e.SetEnricher(stubEnricher{result: ontology.Enrichment{Tags: []string{"go"}, Category: "engineering"}})

	var mu sync.Mutex
	var got ontology.Enrichment
	done := make(chan struct{})

	e.EnrichAsync(context.Background(), types.MemoryItem{ID: "a", Content: "some content"}, func(enrichment ontology.Enrichment) {
		mu.Lock()
		got = enrichment
		mu.Unlock()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected EnrichAsync to invoke apply within a second")
	}

	mu.Lock()
	defer mu.Unlock()
	if got.Category != "engineering" || len(got.Tags) != 1 {
		t.Errorf("unexpected enrichment applied: %+v", got)
	}
}

func TestEnrichAsync_NoEnricherIsNoop(t *testing.T) {
	e := newEngine()
	called := false
	e.EnrichAsync(context.Background(), types.MemoryItem{ID: "a"}, func(ontology.Enrichment) {
		called = true
	})
	time.Sleep(10 * time.Millisecond)
	if called {
		t.Fatal("expected no callback invocation with no enricher configured")
	}
}
