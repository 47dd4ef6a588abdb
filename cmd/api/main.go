// Package main is the entry point for the standalone query API. It serves
// reads over a snapshot store the monitor binary writes; it never writes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/spread-monitor/business/monitor/infra/rules"
	"github.com/fd1az/spread-monitor/business/monitor/infra/storage"
	"github.com/fd1az/spread-monitor/business/query/app"
	"github.com/fd1az/spread-monitor/internal/config"
	"github.com/fd1az/spread-monitor/internal/logger"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("spread-monitor-api %s\n", version)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stderr, logger.LevelInfo, cfg.App.Name+"-api", nil)

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	configs := rules.NewProvider(cfg.Pipeline.RulesPath, log)
	if _, err := configs.Reload(ctx); err != nil {
		log.Warn(ctx, "rules file unreadable, serving defaults", "error", err)
	}

	server := app.NewServer(store, configs, cfg.Query.Port, log)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start query server: %w", err)
	}

	log.Info(ctx, "query API started",
		"port", cfg.Query.Port,
		"storage", cfg.Storage.Backend)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return storage.NewSQLiteStore(cfg.Storage.DSN)
	default:
		return storage.NewJSONLStore(cfg.Storage.Dir)
	}
}
