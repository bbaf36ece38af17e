package ontology

import (
	"fmt"

	"github.com/mnemosyne/mnemosyne/internal/config"
)

// New builds the configured Enricher: Noop when disabled, otherwise an
// LLM-backed Enricher for the configured provider.
func New(cfg config.OntologyConfig) (Enricher, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	switch cfg.Provider {
	case "anthropic", "":
		gen := NewAnthropicGenerator(AnthropicConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL})
		return NewLLMEnricher(gen, 3, 0), nil
	default:
		return nil, fmt.Errorf("ontology: unsupported provider %q", cfg.Provider)
	}
}
