package ontology_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mnemosyne/mnemosyne/internal/ontology"
)

func TestNoop_AlwaysEmpty(t *testing.T) {
	e, err := ontology.Noop{}.Enrich(context.Background(), "anything")
	if err != nil || (len(e.Tags) != 0 || e.Category != "" || len(e.RelatedConcepts) != 0) {
		t.Fatalf("expected an empty enrichment with no error, got %+v, %v", e, err)
	}
}

type stubGenerator struct {
	response string
	err      error
}

func (s stubGenerator) Complete(context.Context, string) (string, error) {
	return s.response, s.err
}

func TestLLMEnricher_ParsesWellFormedResponse(t *testing.T) {
	gen := stubGenerator{response: `{"tags":["go","testing"],"category":"engineering","relatedConcepts":["unit tests"]}`}
	e := ontology.NewLLMEnricher(gen, 3, 0)
	result, err := e.Enrich(context.Background(), "some text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Tags) != 2 || result.Category != "engineering" {
		t.Errorf("unexpected enrichment: %+v", result)
	}
}

func TestLLMEnricher_MalformedResponseIsDependencyError(t *testing.T) {
	gen := stubGenerator{response: "not json"}
	e := ontology.NewLLMEnricher(gen, 3, 0)
	if _, err := e.Enrich(context.Background(), "some text"); err == nil {
		t.Fatal("expected an error for unparseable output")
	}
}

func TestLLMEnricher_TripsCircuitAfterConsecutiveFailures(t *testing.T) {
	gen := stubGenerator{err: errors.New("boom")}
	e := ontology.NewLLMEnricher(gen, 2, 0)

	for i := 0; i < 2; i++ {
		if _, err := e.Enrich(context.Background(), "x"); err == nil {
			t.Fatal("expected an error from the failing generator")
		}
	}
	// Circuit should now be open; further calls fail fast as a Dependency error.
	if _, err := e.Enrich(context.Background(), "x"); err == nil {
		t.Fatal("expected the open circuit to reject the request")
	}
}
