// Kestrel - Motor claim fraud triage that deploys in 60 seconds.
// Copyright (c) 2026 openclaims
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/openclaims/kestrel/internal/api"
	"github.com/openclaims/kestrel/internal/bus"
	"github.com/openclaims/kestrel/internal/cache"
	"github.com/openclaims/kestrel/internal/domain"
	"github.com/openclaims/kestrel/internal/lifecycle"
	"github.com/openclaims/kestrel/internal/repository"
	"github.com/openclaims/kestrel/internal/rules"
	"github.com/openclaims/kestrel/internal/signals"
	"github.com/openclaims/kestrel/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("KESTREL_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting kestrel",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("KESTREL_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"signals", cfg.Signals.Mode,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize rule evaluator over the fixed catalogue
	evaluator := rules.NewEvaluator(logger)
	slog.Info("rule evaluator initialized", "rules_count", evaluator.RulesCount())

	// Initialize lifecycle controller
	controller := lifecycle.NewController(repo, busImpl, evaluator, logger)

	// Initialize signal detection
	detector := signals.NewDetector(cfg.Signals)
	ingestor := signals.NewIngestor(logger)
	slog.Info("signal detector initialized", "mode", cfg.Signals.Mode)

	// Initialize async scoring worker. Scoring always runs off the bus; the
	// tier only changes which bus carries the events.
	orgIDs := parseOrgs(os.Getenv("KESTREL_ORGS"))
	scoringWorker := worker.NewWorker(busImpl, controller, detector, ingestor, logger)
	if err := scoringWorker.Start(worker.Config{OrgIDs: orgIDs}); err != nil {
		slog.Error("failed to start scoring worker", "error", err)
		os.Exit(1)
	}
	slog.Info("scoring worker started", "org_count", len(orgIDs))

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, controller, cfg.Cache.StatsTTL, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("kestrel is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop the scoring worker first so in-flight passes finish
	if err := scoringWorker.Stop(); err != nil {
		slog.Error("failed to stop scoring worker", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("kestrel shutdown complete")
}

// applyEnvOverrides lets deployments tune individual settings without a
// config file.
func applyEnvOverrides(cfg *domain.Config) {
	if v := os.Getenv("KESTREL_DB_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("KESTREL_POSTGRES_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := os.Getenv("KESTREL_POSTGRES_PASSWORD"); v != "" {
		cfg.Repository.PostgresPassword = v
	}
	if v := os.Getenv("KESTREL_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("KESTREL_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	if v := os.Getenv("KESTREL_SIGNALS_ENDPOINT"); v != "" {
		cfg.Signals.Mode = "http"
		cfg.Signals.Endpoint = v
	}
}

// parseOrgs splits the comma-separated KESTREL_ORGS list. A single-org
// deployment that never sets it gets the default org.
func parseOrgs(env string) []string {
	if env == "" {
		return []string{"default"}
	}
	var orgs []string
	for _, o := range strings.Split(env, ",") {
		if o = strings.TrimSpace(o); o != "" {
			orgs = append(orgs, o)
		}
	}
	if len(orgs) == 0 {
		return []string{"default"}
	}
	return orgs
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               🦅 KESTREL                  ║")
	fmt.Println("  ║       Motor Claim Fraud Triage            ║")
	fmt.Println("  ║      Every claim, weighed fairly.         ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST  /claims                - Submit a claim")
	fmt.Println("    GET   /claims                - List claims, riskiest first")
	fmt.Println("    GET   /claims/export         - CSV export")
	fmt.Println("    GET   /claims/{ref}          - Claim detail with audit trail")
	fmt.Println("    GET   /claims/{ref}/audit    - Audit trail only")
	fmt.Println("    POST  /claims/{ref}/review   - Start review")
	fmt.Println("    POST  /claims/{ref}/approve  - Approve (in review only)")
	fmt.Println("    POST  /claims/{ref}/reject   - Reject (in review only)")
	fmt.Println("    GET   /stats                 - Org dashboard stats")
	fmt.Println("    GET   /health                - Health check")
	fmt.Println()
}
