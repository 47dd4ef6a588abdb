// Package main lists recently persisted spread opportunities and alerts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	monitorDomain "github.com/fd1az/spread-monitor/business/monitor/domain"
	"github.com/fd1az/spread-monitor/business/monitor/infra/storage"
	"github.com/fd1az/spread-monitor/internal/config"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	kind := flag.String("kind", monitorDomain.KindOpportunity,
		fmt.Sprintf("Record kind: %q or %q", monitorDomain.KindOpportunity, monitorDomain.KindAlert))
	limit := flag.Int("limit", 20, "Maximum records to show, newest first")
	flag.Parse()

	if err := run(*configPath, *kind, *limit); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, kind string, limit int) error {
	switch kind {
	case monitorDomain.KindOpportunity, monitorDomain.KindAlert:
	default:
		return fmt.Errorf("unsupported kind %q, want %q or %q",
			kind, monitorDomain.KindOpportunity, monitorDomain.KindAlert)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	records, err := store.ListByKind(context.Background(), kind, limit)
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	if len(records) == 0 {
		fmt.Printf("no %s records found\n", kind)
		return nil
	}

	printTable(records)
	return nil
}

func printTable(records []monitorDomain.SnapshotRecord) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Recorded At", "Product", "Route", "Net", "Gross", "Volume")

	for _, r := range records {
		table.Append(
			r.RecordedAt,
			r.Product,
			r.Exchange,
			payloadNumber(r.Payload, "net_spread"),
			payloadNumber(r.Payload, "gross_spread"),
			payloadNumber(r.Payload, "available_volume"),
		)
	}

	table.Render()
}

func payloadNumber(payload map[string]any, key string) string {
	v, ok := payload[key].(float64)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.4f", v)
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return storage.NewSQLiteStore(cfg.Storage.DSN)
	default:
		return storage.NewJSONLStore(cfg.Storage.Dir)
	}
}
