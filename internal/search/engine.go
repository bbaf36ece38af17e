// Package search implements AdvancedSearchEngine: semantic, temporal,
// relationship, and hybrid search composition with a content-addressed
// result cache and query analytics.
package search

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/graphlayer"
	"github.com/mnemosyne/mnemosyne/internal/indexutil"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// TierSearcher is the subset of a tier's capability the engine needs.
type TierSearcher interface {
	Search(ctx context.Context, query types.MemoryQuery) ([]types.MemorySearchResult, error)
}

// VectorSource exposes GlobalLayer's hybrid lexical+vector search for
// the semantic search mode.
type VectorSource interface {
	TierSearcher
}

// RangeSource exposes TemporalLayer's range query for temporal search.
type RangeSource interface {
	GetMemoriesInRange(start, end time.Time, limit int) []types.MemoryItem
}

// QueryType classifies a query for analytics.
type QueryType string

const (
	QueryKeyword  QueryType = "keyword"
	QuerySemantic QueryType = "semantic"
	QueryTemporal QueryType = "temporal"
	QueryHybrid   QueryType = "hybrid"
)

// Complexity buckets a query by length/token-count.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

const defaultMaxDepth = 2

// Request is one AdvancedSearchEngine invocation.
type Request struct {
	Query        types.MemoryQuery
	Semantic     bool
	Temporal     bool
	Relationship bool
	MaxDepth     int // relationship expansion bound; 0 means defaultMaxDepth
	TimeRange    *TimeRange

	// Tiers restricts lexical/semantic tier iteration to this set; empty
	// means every registered tier is queried. Set from a LayerMixer Plan
	// so a strategy's chosen tiers actually bound which tiers are hit.
	Tiers []types.Tier

	// TierWeights scales each tier's contribution during merge-and-rank,
	// typically a LayerMixer Plan's per-tier weighting. Nil means every
	// tier counts equally (weight 1.0).
	TierWeights map[types.Tier]float64
}

func tierAllowed(tiers []types.Tier, t types.Tier) bool {
	if len(tiers) == 0 {
		return true
	}
	for _, x := range tiers {
		if x == t {
			return true
		}
	}
	return false
}

// TimeRange is an explicit or relative-resolved [start,end] window.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Engine is AdvancedSearchEngine.
type Engine struct {
	cfg    config.SearchConfig
	logger *log.Logger

	tiers  map[types.Tier]TierSearcher
	vector VectorSource
	ranges RangeSource
	graph  graphlayer.GraphLayer

	cache     *expirable.LRU[string, []types.MemorySearchResult]
	analytics *Analytics
}

func New(cfg config.SearchConfig, logger *log.Logger, tiers map[types.Tier]TierSearcher, vector VectorSource, ranges RangeSource, graph graphlayer.GraphLayer) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Engine{
		cfg:       cfg,
		logger:    logger,
		tiers:     tiers,
		vector:    vector,
		ranges:    ranges,
		graph:     graph,
		cache:     expirable.NewLRU[string, []types.MemorySearchResult](2048, nil, ttl),
		analytics: newAnalytics(),
	}
}

// AnalyzeComplexity buckets a query by length and rough token count.
func AnalyzeComplexity(text string) Complexity {
	tokens := len(strings.Fields(text))
	switch {
	case len(text) > 100 || tokens > 10:
		return ComplexityComplex
	case len(text) < 20 && tokens <= 3:
		return ComplexitySimple
	default:
		return ComplexityModerate
	}
}

func classifyQueryType(req Request) QueryType {
	switch {
	case req.Semantic && (req.Temporal || req.Relationship):
		return QueryHybrid
	case req.Semantic:
		return QuerySemantic
	case req.Temporal:
		return QueryTemporal
	default:
		return QueryKeyword
	}
}

// Execute runs the requested search modes, merges, re-ranks if more than
// one mode is active, and records analytics. A cache hit short-circuits
// everything except the analytics record.
func (e *Engine) Execute(ctx context.Context, req Request) ([]types.MemorySearchResult, error) {
	key := e.cacheKey(req)
	if cached, ok := e.cache.Get(key); ok {
		e.analytics.record(classifyQueryType(req), AnalyzeComplexity(req.Query.Text), cached)
		return cached, nil
	}

	var lexical, semantic, temporal, relationship []types.MemorySearchResult
	var err error

	lexical, err = e.lexicalSearch(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Semantic {
		semantic, err = e.semanticSearch(ctx, req)
		if err != nil {
			return nil, err
		}
	}
	if req.Temporal {
		temporal, err = e.temporalSearch(ctx, req.Query, req.TimeRange)
		if err != nil {
			return nil, err
		}
	}
	if req.Relationship {
		seed := semantic
		if seed == nil {
			seed = lexical
		}
		relationship = e.relationshipSearch(ctx, seed, req.MaxDepth)
	}

	var results []types.MemorySearchResult
	if !req.Semantic && !req.Temporal && !req.Relationship {
		results = dedupeByID(lexical)
	} else {
		results = mergeAndRank(lexical, semantic, temporal, relationship, req.TierWeights)
	}

	q := req.Query
	q.Normalize(types.InternalMaxLimit)
	if len(results) > q.Limit {
		results = results[:q.Limit]
	}

	e.cache.Add(key, results)
	e.analytics.record(classifyQueryType(req), AnalyzeComplexity(req.Query.Text), results)
	return results, nil
}

func (e *Engine) cacheKey(req Request) string {
	return indexutil.CanonicalCacheKey(req.Query.Text+"|"+tierPlanFingerprint(req), map[string]bool{
		"lexical":      true,
		"semantic":     req.Semantic,
		"temporal":     req.Temporal,
		"relationship": req.Relationship,
	})
}

// tierPlanFingerprint folds Tiers and TierWeights into the cache key so
// two requests that differ only in which tiers a LayerMixer plan chose,
// or how it weighted them, don't collide on the same cached result set.
func tierPlanFingerprint(req Request) string {
	tiers := make([]string, len(req.Tiers))
	for i, t := range req.Tiers {
		tiers[i] = string(t)
	}
	sort.Strings(tiers)

	weightKeys := make([]string, 0, len(req.TierWeights))
	for t := range req.TierWeights {
		weightKeys = append(weightKeys, string(t))
	}
	sort.Strings(weightKeys)

	var b strings.Builder
	b.WriteString(strings.Join(tiers, ","))
	b.WriteByte('|')
	for _, t := range weightKeys {
		fmt.Fprintf(&b, "%s=%.4f,", t, req.TierWeights[types.Tier(t)])
	}
	return b.String()
}

func (e *Engine) lexicalSearch(ctx context.Context, req Request) ([]types.MemorySearchResult, error) {
	var out []types.MemorySearchResult
	for tier, searcher := range e.tiers {
		if !tierAllowed(req.Tiers, tier) {
			continue
		}
		res, err := searcher.Search(ctx, req.Query)
		if err != nil {
			e.logger.Printf("search: lexical search failed on tier %s: %v", tier, err)
			continue
		}
		out = append(out, res...)
	}
	return dedupeByID(out), nil
}

// Analytics returns a snapshot of recorded query statistics.
func (e *Engine) Analytics() Snapshot { return e.analytics.snapshot() }
