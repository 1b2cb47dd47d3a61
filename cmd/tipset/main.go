// Command tipset serves the prediction report over HTTP and rebuilds it
// on a schedule.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/tipset/internal/adapters/http/api"
	"github.com/okian/tipset/internal/adapters/http/swagger"
	"github.com/okian/tipset/internal/adapters/source/predictions"
	"github.com/okian/tipset/internal/adapters/source/standings"
	app "github.com/okian/tipset/internal/app"
	"github.com/okian/tipset/internal/config"
	"github.com/okian/tipset/pkg/logger"
	"github.com/okian/tipset/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if _, err := config.LoadDotEnv(); err != nil {
		os.Stderr.WriteString("failed to load .env: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithOptions(logger.Options{Format: cfg.LogFormat, Level: cfg.LogLevel}); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	svc := newService(cfg, log)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg.Title),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// newService builds the service from configuration. Without a standings
// URL the service runs on predictions alone.
func newService(cfg *config.Config, log logger.Logger) *app.Service {
	var table app.StandingsSource = standings.Static(nil)
	if cfg.StandingsURL != "" {
		table = standings.NewClient(cfg.StandingsURL,
			standings.WithTimeout(cfg.StandingsTimeout),
			standings.WithRatePerMinute(cfg.StandingsRatePerMinute),
			standings.WithCacheTTL(cfg.StandingsCacheTTL),
		)
	}

	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithPredictionSource(predictions.NewFile(cfg.PredictionsPath)),
		app.WithStandingsSource(table),
		app.WithRefreshInterval(cfg.RefreshInterval),
		app.WithJobTimeout(cfg.JobTimeout),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		app.WithTopN(cfg.TopN),
		app.WithTieBreakPolicy(cfg.TieBreakPolicy),
		app.WithTieBreakSeed(cfg.TieBreakSeed),
		app.WithConsensusFallback(cfg.ConsensusFallback),
	)
}

func newMux(ctx context.Context, svc *app.Service, title string) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, title).Register(ctx, mux)
	return mux
}

// startServiceMetricsUpdater periodically mirrors service stats into gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if participants, ok := stats["participants"].(int); ok {
		if items, ok := stats["items"].(int); ok {
			metrics.UpdateReportSize(participants, items)
		}
	}
}
