// Package main runs the Browserbase MCP server: cloud browser sessions driven
// by natural-language tools, served over stdio or streamable HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/entrhq/browserbase-mcp/pkg/config"
	"github.com/entrhq/browserbase-mcp/pkg/dispatch"
	"github.com/entrhq/browserbase-mcp/pkg/logging"
	"github.com/entrhq/browserbase-mcp/pkg/metrics"
	"github.com/entrhq/browserbase-mcp/pkg/server"
	"github.com/entrhq/browserbase-mcp/pkg/session"
	"github.com/entrhq/browserbase-mcp/pkg/stagehand"
	"github.com/entrhq/browserbase-mcp/pkg/tools/browser"
)

// Populated at build-time via -ldflags.
var version = "dev"

// cleanupTimeout bounds session teardown at shutdown.
const cleanupTimeout = 30 * time.Second

const geminiKeyWarning = `IMPORTANT: model API key required

You're using the default Gemini model (%s) but no API key is configured.
act, extract and observe need a model to call. To fix this, either:

  1. set the GEMINI_API_KEY environment variable, or
  2. pass --modelApiKey, or
  3. choose another model with --modelName and its key.

You can get a Gemini API key from: https://aistudio.google.com/app/apikey
The server will start, but model-backed tools will fail without a key.`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := &cliFlags{}
	app := &cli.Command{
		Name:    "browserbase-mcp",
		Usage:   "MCP server for Browserbase cloud browsers",
		Version: version,
		Flags:   flags.list(),
		Action: func(ctx context.Context, c *cli.Command) error {
			overrides, err := flags.overrides(c)
			if err != nil {
				return err
			}
			cfg, err := config.Load(flags.configPath, overrides)
			if err != nil {
				return err
			}
			return run(ctx, cfg)
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.NewLogger("browserbase-mcp", logging.WithLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	if cfg.MissingDefaultModelKey() {
		logger.Warnf(geminiKeyWarning, cfg.ResolveModel("").Model)
	}
	if cfg.BrowserbaseAPIKey == "" || cfg.BrowserbaseProjectID == "" {
		logger.Warnf("BROWSERBASE_API_KEY and BROWSERBASE_PROJECT_ID are not both set; session creation will fail")
	}

	matcher, err := cfg.DomainMatcher()
	if err != nil {
		return err
	}

	runtime := stagehand.DefaultRuntime()
	adapter := session.NewAdapter()
	adapter.Runtime = runtime

	m := metrics.New()
	store := session.NewStore(cfg, m.InstrumentLauncher(adapter), logger, m.StoreOption())
	dctx := dispatch.New(cfg, store, logger, m.CallObserver())
	tools := browser.NewToolRegistry(matcher).RegisterTools()
	srv := server.New(dctx, tools, version, server.WithMetrics(m))

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		store.RemoveAll(cleanupCtx)
		if err := runtime.Stop(); err != nil {
			logger.Warnf("%v", err)
		}
		logger.Infof("Shutdown complete")
	}()

	if cfg.UsesHTTP() {
		return srv.ServeHTTP(ctx, cfg.Server.Host, cfg.Server.Port)
	}
	return srv.ServeStdio(ctx)
}
