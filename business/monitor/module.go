// Package monitor implements the orchestration bounded context.
package monitor

import (
	"context"

	alertDI "github.com/fd1az/spread-monitor/business/alert/di"
	marketdataDI "github.com/fd1az/spread-monitor/business/marketdata/di"
	"github.com/fd1az/spread-monitor/business/monitor/app"
	monitorDI "github.com/fd1az/spread-monitor/business/monitor/di"
	"github.com/fd1az/spread-monitor/business/monitor/infra/rules"
	"github.com/fd1az/spread-monitor/business/monitor/infra/storage"
	spreadDI "github.com/fd1az/spread-monitor/business/spread/di"
	"github.com/fd1az/spread-monitor/internal/config"
	"github.com/fd1az/spread-monitor/internal/di"
	"github.com/fd1az/spread-monitor/internal/logger"
	"github.com/fd1az/spread-monitor/internal/monolith"
)

// Module implements the monitor bounded context.
type Module struct{}

// RegisterServices registers all monitor services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Rules file provider - private dependency
	di.RegisterToken(c, monitorDI.ConfigProvider, func(sr di.ServiceRegistry) app.ConfigProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return rules.NewProvider(cfg.Pipeline.RulesPath, log)
	})

	// Snapshot store (public - the query module reads it too)
	di.RegisterToken(c, monitorDI.Store, func(sr di.ServiceRegistry) storage.Store {
		cfg := sr.Get("config").(*config.Config)

		switch cfg.Storage.Backend {
		case "sqlite":
			store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
			if err != nil {
				panic("failed to open sqlite store: " + err.Error())
			}
			return store
		default:
			store, err := storage.NewJSONLStore(cfg.Storage.Dir)
			if err != nil {
				panic("failed to open jsonl store: " + err.Error())
			}
			return store
		}
	})

	// Pipeline (public - exposed to other modules)
	di.RegisterToken(c, monitorDI.Pipeline, func(sr di.ServiceRegistry) *app.Pipeline {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewPipeline(
			marketdataDI.GetCollector(sr),
			spreadDI.GetCalculator(sr),
			alertDI.GetRouter(sr),
			monitorDI.GetConfigProvider(sr),
			monitorDI.GetStore(sr),
			cfg.Pipeline.Interval,
			log,
		)
	})

	return nil
}

// Startup initializes the monitor module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	log.Info(ctx, "monitor module started",
		"interval", cfg.Pipeline.Interval.String(),
		"storage", cfg.Storage.Backend,
		"rules_path", cfg.Pipeline.RulesPath)
	return nil
}
