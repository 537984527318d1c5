// Command tm-mcp exposes Token Metrics lookups and social sentiment as MCP
// tools over stdio. Logs go to stderr since stdout carries the protocol.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/tmai-client/internal/app"
	"github.com/Sternrassler/tmai-client/internal/config"
	"github.com/Sternrassler/tmai-client/pkg/tracing"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serviceName = "tm-mcp"
	version     = "0.1.0"
)

func newServer(t *tools) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serviceName, Version: version}, nil)
	t.register(server)
	return server
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("tm-mcp: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := app.SetupLogging(cfg, serviceName)

	if err := cfg.Validate(false); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg.Tracing.ServiceName = serviceName
	tp, _, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize tracer")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Tracer shutdown failed")
		}
	}()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create clients")
	}
	defer a.Close()

	t := &tools{api: a.TokenMetrics, logger: logger, now: time.Now}
	if a.Masa != nil {
		t.sentiment = a.Masa
	} else {
		logger.Warn().Msg("MASA_API_KEY not set, get_token_sentiment is disabled")
	}

	logger.Info().Str("version", version).Msg("Starting MCP server on stdio")
	if err := newServer(t).Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("MCP server stopped")
	}
}
