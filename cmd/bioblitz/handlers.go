package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecoquest/bioblitz/internal/adapters/http/api"
	"github.com/ecoquest/bioblitz/internal/adapters/http/swagger"
	service "github.com/ecoquest/bioblitz/internal/app"
	"github.com/ecoquest/bioblitz/internal/config"
	"github.com/ecoquest/bioblitz/internal/domain/model"
	"github.com/ecoquest/bioblitz/internal/domain/scoring"
	"github.com/ecoquest/bioblitz/internal/seed"
	"github.com/ecoquest/bioblitz/pkg/logger"
	"github.com/ecoquest/bioblitz/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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

func runServe(addrOverride string) error {
	// Disable default Go metrics collection to avoid duplicate metrics
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if addrOverride != "" {
		cfg.Addr = addrOverride
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		service.WithBattleGapThreshold(cfg.BattleGapThreshold),
		service.WithTrailingWindow(time.Duration(cfg.TrailingWindowHours)*time.Hour),
		service.WithSnapshotRefresh(time.Duration(cfg.SnapshotRefreshMS)*time.Millisecond),
		service.WithDBPath(cfg.DBPath),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// API docs under /api-docs
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc, cfg.MaxLeaderboardLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
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
	return nil
}

func runScore(path, at string, jsonOutput bool, limit int) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	referenceTime := time.Now()
	if at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return fmt.Errorf("invalid --at; must be RFC3339: %w", err)
		}
		referenceTime = t
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read observations: %w", err)
	}
	var observations []model.Observation
	if err := json.Unmarshal(data, &observations); err != nil {
		return fmt.Errorf("parse observations: %w", err)
	}

	sctx := scoring.BuildContext(observations, referenceTime)
	board := scoring.Aggregate(observations, sctx)

	ranked := board.Ranked
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	}

	fmt.Printf("%-4s %-20s %10s %6s %8s\n", "RANK", "LOGIN", "POINTS", "OBS", "SPECIES")
	for i, u := range ranked {
		fmt.Printf("%-4d %-20s %10.2f %6d %8d\n", i+1, u.Login, u.Points, u.ObsCount, u.SpeciesCount)
	}
	return nil
}

func runSeed(url string, count, users, days int, startDay string, rngSeed int64, workers int, verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := seed.Config{
		BaseURL:  url,
		Count:    count,
		Users:    users,
		Days:     days,
		StartDay: startDay,
		Seed:     rngSeed,
		Workers:  workers,
		Verbose:  verbose,
	}

	events, err := seed.Generate(ctx, cfg)
	if err != nil {
		return err
	}
	stats, err := seed.Submit(ctx, cfg, events)
	if err != nil {
		return err
	}

	fmt.Printf("submitted %d observations: %d accepted, %d duplicates, %d failed in %s\n",
		stats.Submitted, stats.Accepted, stats.Duplicates, stats.Failed, stats.Duration.Round(time.Millisecond))
	return nil
}

// loadConfig honors the --config flag by mapping it onto the EQL_CONFIG
// environment variable the loader reads.
func loadConfig(ctx context.Context) (*config.Config, error) {
	if cfgFile != "" {
		if err := os.Setenv("EQL_CONFIG", cfgFile); err != nil {
			return nil, fmt.Errorf("set config path: %w", err)
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// startServiceMetricsUpdater refreshes queue gauges from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats()
			if queueLen, ok := stats["queueLength"].(int); ok {
				metrics.UpdateQueueSize(queueLen)
			}
			if workerCount, ok := stats["workerCount"].(int); ok {
				metrics.UpdateWorkerActive(workerCount)
			}
		}
	}
}
