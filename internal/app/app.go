// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arenastats/ranked-crawler/internal/config"
	"github.com/arenastats/ranked-crawler/internal/crawler"
	"github.com/arenastats/ranked-crawler/internal/gameapi"
	"github.com/arenastats/ranked-crawler/internal/logging"
	"github.com/arenastats/ranked-crawler/internal/progress"
	"github.com/arenastats/ranked-crawler/internal/progress/sinks"
	"github.com/arenastats/ranked-crawler/internal/storage/memory"
	"github.com/arenastats/ranked-crawler/internal/storage/postgres"
)

// App holds the shared, long-lived services: the logger, the upstream API
// client, the storage sink, and the progress hub. It is initialized once at
// startup by the root command and passed through the command context.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	api    *gameapi.Client
	sink   crawler.Sink
	hub    *progress.Hub

	metricsSrv *http.Server
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger instance.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// API returns the rate-limited upstream client.
func (a *App) API() *gameapi.Client {
	return a.api
}

// Sink returns the configured storage sink.
func (a *App) Sink() crawler.Sink {
	return a.sink
}

// Hub returns the progress hub; commands pass it to the engine as an Emitter.
func (a *App) Hub() *progress.Hub {
	return a.hub
}

// New creates and initializes an App from configuration. It is the central
// point for service construction and fails fast if any critical service
// cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.L
	logger.Info("initializing services",
		zap.String("db_provider", cfg.DB.Provider),
		zap.String("region", cfg.Crawler.Region),
	)

	api, err := gameapi.NewClient(gameapi.Config{
		BaseURL:         cfg.API.BaseURL,
		Key:             cfg.API.Key,
		Timeout:         cfg.RequestTimeout(),
		CallDelay:       cfg.CallDelay(),
		MaxAttempts:     cfg.API.MaxAttempts,
		FallbackBackoff: cfg.BackoffFallback(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize api client: %w", err)
	}

	var sink crawler.Sink
	switch cfg.DB.Provider {
	case "postgres":
		logger.Info("connecting to postgres")
		sink, err = postgres.NewStore(ctx, postgres.StoreConfig{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize postgres sink: %w", err)
		}
	case "memory":
		logger.Info("using in-memory sink; crawl output is discarded at exit")
		sink = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown db.provider %q", cfg.DB.Provider)
	}

	app := &App{
		cfg:    cfg,
		logger: logger,
		api:    api,
		sink:   sink,
	}

	progressSinks := []progress.Sink{sinks.NewLogSink(logger)}
	if cfg.Metrics.Enabled {
		promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
		if err != nil {
			sink.Close()
			return nil, fmt.Errorf("initialize prometheus sink: %w", err)
		}
		progressSinks = append(progressSinks, promSink)
		app.startMetricsServer(cfg.Metrics.Addr)
	}
	app.hub = progress.NewHub(progress.Config{
		BaseContext: ctx,
		Logger:      logger,
	}, progressSinks...)

	return app, nil
}

func (a *App) startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	a.metricsSrv = &http.Server{Addr: addr, Handler: mux}
	go func() {
		a.logger.Info("metrics listener starting", zap.String("addr", addr))
		if err := a.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics listener failed", zap.Error(err))
		}
	}()
}

// Close gracefully shuts down all services. It is called by a Cobra hook
// after the command finishes.
func (a *App) Close(ctx context.Context) {
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil {
			a.logger.Warn("closing progress hub", zap.Error(err))
		}
	}
	if a.metricsSrv != nil {
		if err := a.metricsSrv.Shutdown(ctx); err != nil {
			a.logger.Warn("shutting down metrics listener", zap.Error(err))
		}
	}
	if a.sink != nil {
		a.sink.Close()
	}
	// Flush any buffered log entries; stderr sync failures are expected on
	// some platforms and not actionable.
	_ = a.logger.Sync()
}
