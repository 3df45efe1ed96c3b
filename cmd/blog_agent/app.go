package main

import (
	"context"
	"fmt"

	"github.com/jonathan/blog-autopilot/internal/cms"
	"github.com/jonathan/blog-autopilot/internal/config"
	"github.com/jonathan/blog-autopilot/internal/db"
	"github.com/jonathan/blog-autopilot/internal/fetch"
	"github.com/jonathan/blog-autopilot/internal/generation"
	"github.com/jonathan/blog-autopilot/internal/keywords"
	"github.com/jonathan/blog-autopilot/internal/llm"
	"github.com/jonathan/blog-autopilot/internal/logger"
	"github.com/jonathan/blog-autopilot/internal/pipeline"
	"github.com/jonathan/blog-autopilot/internal/scoring"
	"github.com/jonathan/blog-autopilot/internal/search"
	"github.com/jonathan/blog-autopilot/internal/topics"
	"github.com/jonathan/blog-autopilot/internal/usage"
)

// loadConfig reads the configuration and builds the logger it selects
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

// runtime holds the collaborators of a pipeline run
type runtime struct {
	cfg      *config.Config
	log      *logger.Logger
	client   llm.Client
	store    *db.DB
	cms      *cms.Client
	usage    *usage.Tracker
	keywords []string
	deps     pipeline.Deps
}

// newRuntime wires the pipeline from cfg. The LLM is required; search, the CMS
// and the database are attached only when configured and reachable.
func newRuntime(ctx context.Context, cfg *config.Config, log *logger.Logger) (*runtime, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log}

	tracker, err := usage.Open(cfg.Pipeline.UsagePath, log)
	if err != nil {
		log.Warn("usage history unreadable, tracking in memory", "path", cfg.Pipeline.UsagePath, "error", err)
		tracker, _ = usage.Open("", log)
	}
	rt.usage = tracker

	client, err := llm.NewClient(ctx, cfg.LLMConfig(), cfg.LLMAPIKey(), tracker)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	rt.client = client

	rt.keywords, err = keywords.LoadCatalog(cfg.Pipeline.KeywordsPath)
	if err != nil {
		log.Warn("keyword catalog unavailable", "path", cfg.Pipeline.KeywordsPath, "error", err)
	}

	catalog, err := topics.LoadCatalog(cfg.Pipeline.CatalogPath)
	if err != nil {
		log.Warn("article catalog unavailable", "path", cfg.Pipeline.CatalogPath, "error", err)
	}

	rt.deps = pipeline.Deps{
		Writer:  generation.New(client, log, cfg.Site.BaseDomain),
		Scorer:  scoring.New(client, log),
		Usage:   tracker,
		Catalog: catalog,
		Log:     log,
		Guard: &topics.Guard{
			Catalog:   catalog,
			BlogURL:   cfg.Site.BlogURL,
			Threshold: cfg.Pipeline.SimilarityThreshold,
			Fetch:     fetch.DefaultOptions(),
			Log:       log,
		},
	}

	if provider, err := search.New(ctx, cfg.SearchConfig()); err != nil {
		log.Warn("web search disabled", "error", err)
	} else {
		rt.deps.Search = provider
	}

	if cfg.RequireSanity() == nil {
		publisher, err := cms.New(cfg.SanityConfig(), log)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to create CMS client: %w", err)
		}
		rt.cms = publisher
		rt.deps.Publisher = publisher
	}

	if cfg.DatabaseURL != "" {
		if store, err := connectStore(ctx, cfg.DatabaseURL); err != nil {
			log.Warn("run history disabled", "error", err)
		} else {
			rt.store = store
			rt.deps.Store = store
		}
	}

	return rt, nil
}

func connectStore(ctx context.Context, databaseURL string) (*db.DB, error) {
	store, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// options returns the run options every run starts from
func (rt *runtime) options() pipeline.Options {
	p := rt.cfg.Pipeline
	return pipeline.Options{
		KeywordCatalog: rt.keywords,
		MinKeywords:    p.MinKeywords,
		MaxKeywords:    p.MaxKeywords,
		MaxIterations:  p.MaxIterations,
		CategorySlug:   rt.cfg.Sanity.CategorySlug,
		ReviewDir:      p.ReviewDir,
		BaseDomain:     rt.cfg.Site.BaseDomain,
	}
}

// Close releases the database pool and the LLM client
func (rt *runtime) Close() {
	if rt.store != nil {
		rt.store.Close()
	}
	if rt.client != nil {
		if err := rt.client.Close(); err != nil {
			rt.log.Warn("failed to close LLM client", "error", err)
		}
	}
}
