package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonathan/blog-autopilot/internal/pipeline"
	"github.com/jonathan/blog-autopilot/internal/server"
	"github.com/jonathan/blog-autopilot/internal/server/ratelimit"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing conversion, SEO analysis, keyword selection, scoring
and streamed pipeline runs. Without LLM credentials only the offline endpoints are served.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (defaults to server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	deps := server.Deps{
		BaseDomain: cfg.Site.BaseDomain,
		Log:        log,
	}

	if err := cfg.RequireLLM(); err != nil {
		log.Warn("LLM not configured, serving offline endpoints only", "error", err)
	} else {
		rt, err := newRuntime(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer rt.Close()

		deps.Run = func(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
			return pipeline.Run(ctx, opts, rt.deps)
		}
		deps.RunDefaults = rt.options()
		deps.Scorer = rt.deps.Scorer
		deps.KeywordCatalog = rt.keywords
		deps.Usage = rt.usage
		if rt.store != nil {
			deps.Runs = rt.store
		}
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	srv := server.New(server.Config{
		Addr:      addr,
		RateLimit: ratelimit.DefaultConfig(cfg.Server.RateLimit, cfg.Server.RateLimitWhitelist),
	}, deps)

	return srv.Start()
}
