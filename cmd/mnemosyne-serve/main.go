// cmd/mnemosyne-serve is the entry point for the mnemosyne memory
// server. It wires the four tiers, the Router, the RelationshipEngine,
// the AdvancedSearchEngine, and LayerMixer into the tool-call surface.
//
// Startup sequence:
//  1. Load configuration from environment variables (and mnemosyne.yaml
//     if present).
//  2. Construct the four tiers, rooted under the configured data path.
//  3. Construct the RelationshipEngine, optional GraphLayer, check-request
//     middleware, Router, AdvancedSearchEngine, and LayerMixer.
//  4. Wire optional ontology enrichment into the RelationshipEngine.
//  5. Start each tier's background flusher and the Router's scheduled
//     optimization loop.
//  6. Serve JSON-RPC 2.0 requests from stdin, writing responses to stdout.
//
// CRITICAL: ALL logging MUST go to stderr. Any bytes written to stdout
// that are not valid JSON-RPC 2.0 response frames will corrupt the
// protocol.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/global"
	"github.com/mnemosyne/mnemosyne/internal/graphlayer"
	"github.com/mnemosyne/mnemosyne/internal/layer"
	"github.com/mnemosyne/mnemosyne/internal/middleware"
	"github.com/mnemosyne/mnemosyne/internal/mixer"
	"github.com/mnemosyne/mnemosyne/internal/ontology"
	"github.com/mnemosyne/mnemosyne/internal/project"
	"github.com/mnemosyne/mnemosyne/internal/relationship"
	"github.com/mnemosyne/mnemosyne/internal/router"
	"github.com/mnemosyne/mnemosyne/internal/search"
	"github.com/mnemosyne/mnemosyne/internal/session"
	"github.com/mnemosyne/mnemosyne/internal/temporal"
	"github.com/mnemosyne/mnemosyne/internal/toolserver"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// defaultProjectID names the single ProjectLayer instance this process
// hosts. ProjectLayer is per-project by construction, but Router's tiers
// map holds one Capability per Tier — a single-project-per-process
// simplification, the same fallback shape the teacher's connections
// manager uses when no multi-tenant config is present.
const defaultProjectID = "default"

const flushPeriod = 10 * time.Minute

func main() {
	log.SetOutput(os.Stderr)
	log.SetPrefix("mnemosyne: ")
	log.SetFlags(log.LstdFlags)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataPath, 0o700); err != nil {
		log.Fatalf("failed to create data directory %q: %v", cfg.DataPath, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("received shutdown signal")
		cancel()
	}()

	sessionLayer := session.New(cfg.Session, nil)
	projectLayer := project.New(cfg.DataPath, defaultProjectID, cfg.Project, nil, flushPeriod)

	backing, err := buildVectorBacking(ctx, cfg.GlobalBacking)
	if err != nil {
		log.Fatalf("failed to initialize global vector backing: %v", err)
	}
	globalLayer := global.New(cfg.DataPath, cfg.Global, nil, flushPeriod, backing)
	temporalLayer := temporal.New(cfg.DataPath, cfg.Temporal, nil, flushPeriod)

	if err := projectLayer.Load(ctx); err != nil {
		log.Printf("project layer: starting empty, load failed: %v", err)
	}
	if err := globalLayer.Load(ctx); err != nil {
		log.Printf("global layer: starting empty, load failed: %v", err)
	}
	if err := temporalLayer.Load(ctx); err != nil {
		log.Printf("temporal layer: starting empty, load failed: %v", err)
	}

	tiers := map[types.Tier]layer.Capability{
		types.TierSession:  sessionLayer,
		types.TierProject:  projectLayer,
		types.TierGlobal:   globalLayer,
		types.TierTemporal: temporalLayer,
	}

	var graph graphlayer.GraphLayer = graphlayer.NewInMemory()

	enricher, err := ontology.New(cfg.Ontology)
	if err != nil {
		log.Fatalf("failed to initialize ontology enricher: %v", err)
	}

	relEngine := relationship.New(cfg.Relationship, nil)
	relEngine.SetEnricher(enricher)

	var checker *middleware.Checker
	if cfg.Security.AuthToken != "" || !cfg.Security.DevMode {
		checker = middleware.New(cfg.Security, nil)
	}

	r := router.New(cfg.Router, nil, tiers, relEngine, graph, checker, global.ContentSimilarity)

	searchTiers := map[types.Tier]search.TierSearcher{
		types.TierSession:  sessionLayer,
		types.TierProject:  projectLayer,
		types.TierGlobal:   globalLayer,
		types.TierTemporal: temporalLayer,
	}
	searchEngine := search.New(cfg.Search, nil, searchTiers, globalLayer, temporalLayer, graph)

	mix := mixer.New()

	srv := toolserver.New(r, relEngine, searchEngine, mix, graph, tiers, nil)

	go projectLayer.Run(ctx)
	go globalLayer.Run(ctx)
	go temporalLayer.Run(ctx)
	go runOptimizationLoop(ctx, r, flushPeriod)

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := projectLayer.Close(shutdownCtx); err != nil {
			log.Printf("project layer close error: %v", err)
		}
		if err := globalLayer.Close(shutdownCtx); err != nil {
			log.Printf("global layer close error: %v", err)
		}
		if err := temporalLayer.Close(shutdownCtx); err != nil {
			log.Printf("temporal layer close error: %v", err)
		}
	}()

	transport := toolserver.NewStdioTransport(srv, os.Stdin, os.Stdout)

	log.Println("ready — serving JSON-RPC 2.0 on stdin/stdout")

	if err := transport.Serve(ctx); err != nil {
		log.Printf("transport stopped: %v", err)
	}
}

// runOptimizationLoop drives Router.RunScheduledOptimization on a
// ticker, the periodic-promotion-and-archival job the Router itself
// only performs once per call.
func runOptimizationLoop(ctx context.Context, r *router.Router, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunScheduledOptimization(ctx)
		}
	}
}

func buildVectorBacking(ctx context.Context, cfg config.GlobalBackingConfig) (global.VectorBacking, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "postgres":
		backing, err := global.NewPostgresBacking(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres backing: %w", err)
		}
		return backing, nil
	case "sqlite":
		backing, err := global.NewSQLiteBacking(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("sqlite backing: %w", err)
		}
		return backing, nil
	default:
		return nil, fmt.Errorf("unknown global backing %q", cfg.Backend)
	}
}
