// Package config loads mnemosyne's runtime configuration from environment
// variables (prefixed MNEMO_), optionally layered over an mnemosyne.yaml
// file. Every long-lived component receives its config as an explicit
// construction parameter; nothing here is read from ambient global state
// once LoadConfig has returned.
package config

import (
	"os"
	"strconv"
	"time"
)

// TierConfig is the configuration shape shared by every tier.
type TierConfig struct {
	MaxItems           int
	MaxSizeBytes       int64
	TTL                time.Duration // zero means no TTL
	CompressionEnabled bool
	IndexingEnabled    bool
}

// ScoringWeights tunes Router's cross-tier scoring function.
type ScoringWeights struct {
	Recency   float64
	Frequency float64
	Relevance float64
	Priority  float64
}

// RouterConfig configures routing thresholds and result shaping.
type RouterConfig struct {
	SessionThreshold int
	ProjectThreshold int
	GlobalThreshold  int
	TemporalFallback bool
	MaxResults       int
	Weights          ScoringWeights
}

// RelationshipConfig configures the RelationshipEngine.
type RelationshipConfig struct {
	Enabled       bool
	MinConfidence float64
	BatchSize     int
}

// SearchConfig configures AdvancedSearchEngine.
type SearchConfig struct {
	CacheTTL      time.Duration
	MaxGraphDepth int
}

// SecurityConfig configures the check-request middleware hook.
type SecurityConfig struct {
	AuthToken       string
	DevMode         bool
	RateLimitPerSec float64
	RateLimitBurst  int
}

// GraphConfig configures the optional external graph-database binding.
type GraphConfig struct {
	Enabled         bool
	DSN             string
	CircuitMaxFails int
	CircuitTimeout  time.Duration
}

// GlobalBackingConfig selects GlobalLayer's optional durable vector
// backing. Backend is "", "postgres", or "sqlite"; "" means the
// in-process index only, with no durability beyond the snapshot file.
type GlobalBackingConfig struct {
	Backend string
	DSN     string // postgres connection string, or a sqlite file path
}

// OntologyConfig configures the optional LLM-backed enrichment step.
type OntologyConfig struct {
	Enabled  bool
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// Config is the fully assembled runtime configuration.
type Config struct {
	DataPath string
	LogLevel string

	Session  TierConfig
	Project  TierConfig
	Global   TierConfig
	Temporal TierConfig

	Router        RouterConfig
	Relationship  RelationshipConfig
	Search        SearchConfig
	Security      SecurityConfig
	Graph         GraphConfig
	Ontology      OntologyConfig
	GlobalBacking GlobalBackingConfig
}

// Default returns the spec-documented defaults for every tier and
// subsystem, before env/file overrides are applied.
func Default() *Config {
	return &Config{
		DataPath: "./data",
		LogLevel: "info",

		Session:  TierConfig{MaxItems: 50, MaxSizeBytes: 1 << 20, TTL: 0},
		Project:  TierConfig{MaxItems: 1000, MaxSizeBytes: 10 << 20, TTL: 30 * 24 * time.Hour, CompressionEnabled: true, IndexingEnabled: true},
		Global:   TierConfig{MaxItems: 10000, MaxSizeBytes: 100 << 20, TTL: 365 * 24 * time.Hour, IndexingEnabled: true},
		Temporal: TierConfig{MaxItems: 50000, MaxSizeBytes: 500 << 20, TTL: 0, IndexingEnabled: true},

		Router: RouterConfig{
			SessionThreshold: 6,
			ProjectThreshold: 6,
			GlobalThreshold:  8,
			TemporalFallback: true,
			MaxResults:       50,
			Weights:          ScoringWeights{Recency: 0.3, Frequency: 0.2, Relevance: 0.4, Priority: 0.1},
		},
		Relationship: RelationshipConfig{Enabled: true, MinConfidence: 0.6, BatchSize: 75},
		Search:       SearchConfig{CacheTTL: 5 * time.Minute, MaxGraphDepth: 2},
		Security:     SecurityConfig{DevMode: true, RateLimitPerSec: 20, RateLimitBurst: 40},
	}
}

// LoadConfig builds the configuration from an optional mnemosyne.yaml file
// (see file.go) overridden by MNEMO_-prefixed environment variables.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("MNEMO_CONFIG_FILE"); path != "" {
		if err := loadYAMLFile(path, cfg); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("mnemosyne.yaml"); err == nil {
		if err := loadYAMLFile("mnemosyne.yaml", cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.DataPath = getEnv("MNEMO_DATA_PATH", cfg.DataPath)
	cfg.LogLevel = getEnv("MNEMO_LOG_LEVEL", cfg.LogLevel)

	cfg.Session.MaxItems = getEnvInt("MNEMO_SESSION_MAX_ITEMS", cfg.Session.MaxItems)
	cfg.Project.MaxItems = getEnvInt("MNEMO_PROJECT_MAX_ITEMS", cfg.Project.MaxItems)
	cfg.Global.MaxItems = getEnvInt("MNEMO_GLOBAL_MAX_ITEMS", cfg.Global.MaxItems)
	cfg.Temporal.MaxItems = getEnvInt("MNEMO_TEMPORAL_MAX_ITEMS", cfg.Temporal.MaxItems)

	cfg.Relationship.Enabled = getEnvBool("MNEMO_RELATIONSHIPS_ENABLED", cfg.Relationship.Enabled)
	cfg.Relationship.MinConfidence = getEnvFloat("MNEMO_RELATIONSHIPS_MIN_CONFIDENCE", cfg.Relationship.MinConfidence)

	cfg.Security.DevMode = getEnvBool("MNEMO_DEV_MODE", cfg.Security.DevMode)
	cfg.Security.AuthToken = getEnv("MNEMO_AUTH_TOKEN", cfg.Security.AuthToken)
	cfg.Security.RateLimitPerSec = getEnvFloat("MNEMO_RATE_LIMIT_PER_SEC", cfg.Security.RateLimitPerSec)

	cfg.Graph.Enabled = getEnvBool("MNEMO_GRAPH_ENABLED", cfg.Graph.Enabled)
	cfg.Graph.DSN = getEnv("MNEMO_GRAPH_DSN", cfg.Graph.DSN)

	cfg.Ontology.Enabled = getEnvBool("MNEMO_ONTOLOGY_ENABLED", cfg.Ontology.Enabled)
	cfg.Ontology.Provider = getEnv("MNEMO_ONTOLOGY_PROVIDER", cfg.Ontology.Provider)
	cfg.Ontology.APIKey = getEnv("MNEMO_ONTOLOGY_API_KEY", cfg.Ontology.APIKey)

	cfg.GlobalBacking.Backend = getEnv("MNEMO_GLOBAL_BACKING", cfg.GlobalBacking.Backend)
	cfg.GlobalBacking.DSN = getEnv("MNEMO_GLOBAL_BACKING_DSN", cfg.GlobalBacking.DSN)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
