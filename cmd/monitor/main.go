// Package main is the entry point for the spread monitor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fd1az/spread-monitor/business/alert"
	"github.com/fd1az/spread-monitor/business/marketdata"
	"github.com/fd1az/spread-monitor/business/monitor"
	monitorDI "github.com/fd1az/spread-monitor/business/monitor/di"
	monitorDomain "github.com/fd1az/spread-monitor/business/monitor/domain"
	"github.com/fd1az/spread-monitor/business/query"
	"github.com/fd1az/spread-monitor/business/spread"
	"github.com/fd1az/spread-monitor/internal/apm"
	"github.com/fd1az/spread-monitor/internal/config"
	"github.com/fd1az/spread-monitor/internal/health"
	"github.com/fd1az/spread-monitor/internal/logger"
	"github.com/fd1az/spread-monitor/internal/metrics"
	"github.com/fd1az/spread-monitor/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("spread-monitor %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	// Run application
	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	log := logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
	log.Info(ctx, "starting spread monitor",
		"version", version,
		"environment", cfg.App.Environment,
	)

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		// Set service name env var for OTEL
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		// Initialize tracing
		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(traceProviderName(cfg.Telemetry.TraceProvider), log))
		log.Info(ctx, "tracing initialized",
			"provider", cfg.Telemetry.TraceProvider,
			"endpoint", cfg.Telemetry.OTLPEndpoint)

		// Initialize metrics with Prometheus
		if _, err := metrics.NewMeterProvider(metrics.WithServiceName(cfg.Telemetry.ServiceName)); err != nil {
			log.Warn(ctx, "failed to initialize metrics", "error", err)
		}

		// Start Prometheus metrics server in background
		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go func() {
			if err := metrics.ServeMetrics(port); err != nil {
				log.Warn(ctx, "metrics server stopped", "error", err)
			}
		}()
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Start health check server
	healthServer := health.NewServer(cfg.Telemetry.HealthPort, version, log)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.Telemetry.HealthPort)
	}
	defer healthServer.Stop(ctx)

	// Create monolith (application container)
	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&marketdata.Module{}, // Must be first - provides exchange clients
		&spread.Module{},     // Depends on marketdata snapshots
		&alert.Module{},      // Depends on spread opportunities
		&monitor.Module{},    // Orchestrates the three above
		&query.Module{},      // Reads the monitor's snapshot store
	}

	// Register all module services
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	// Start modules
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	// Run the monitoring pipeline until shutdown
	pipeline := monitorDI.GetPipeline(mono.Services())

	healthServer.RegisterCheck("pipeline", func(ctx context.Context) (bool, string) {
		if pipeline.Running() {
			return true, "running"
		}
		return false, "stopped"
	})

	store := monitorDI.GetStore(mono.Services())
	healthServer.RegisterCheck("storage", func(ctx context.Context) (bool, string) {
		if _, err := store.ListByKind(ctx, monitorDomain.KindTicker, 1); err != nil {
			return false, err.Error()
		}
		return true, "reachable"
	})

	log.Info(ctx, "all modules started, beginning spread monitoring")

	if err := pipeline.Run(ctx); err != nil {
		return fmt.Errorf("pipeline stopped: %w", err)
	}

	log.Info(ctx, "shutting down")
	return nil
}

func traceProviderName(name string) apm.Provider {
	switch name {
	case "zipkin":
		return apm.ZipkinProvider
	case "otlp":
		return apm.OTLPProvider
	case "console":
		return apm.ConsoleProvider
	default:
		return apm.EmptyProvider
	}
}
