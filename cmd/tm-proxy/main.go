// Command tm-proxy serves aggregated Token Metrics resources and social
// sentiment over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/tmai-client/internal/app"
	"github.com/Sternrassler/tmai-client/internal/config"
	"github.com/Sternrassler/tmai-client/pkg/tracing"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "tm-proxy"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logging is not set up yet
		os.Stderr.WriteString("tm-proxy: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := app.SetupLogging(cfg, serviceName)

	if err := cfg.Validate(false); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg.Tracing.ServiceName = serviceName
	tp, tracer, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("Tracer shutdown failed")
		}
	}()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create clients")
	}
	defer a.Close()

	s := &server{
		api:     a.TokenMetrics,
		redis:   a.Redis,
		tracer:  tracer,
		logger:  logger,
		timeout: 2 * time.Minute,
	}
	if a.Masa != nil {
		s.sentiment = a.Masa
	} else {
		logger.Warn().Msg("MASA_API_KEY not set, /sentiment is disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(serviceName))
	s.routes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Bool("redis", a.Redis != nil).
			Bool("sentiment", a.Masa != nil).
			Msg("Starting proxy server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Forced shutdown")
	}
}
