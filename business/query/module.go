// Package query implements the read-only API bounded context.
package query

import (
	"context"

	monitorDI "github.com/fd1az/spread-monitor/business/monitor/di"
	"github.com/fd1az/spread-monitor/business/query/app"
	queryDI "github.com/fd1az/spread-monitor/business/query/di"
	"github.com/fd1az/spread-monitor/internal/config"
	"github.com/fd1az/spread-monitor/internal/di"
	"github.com/fd1az/spread-monitor/internal/logger"
	"github.com/fd1az/spread-monitor/internal/monolith"
)

// Module implements the query bounded context. It reads the snapshot store
// the monitor module writes, so the monitor module must register first.
type Module struct{}

// RegisterServices registers all query services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, queryDI.Server, func(sr di.ServiceRegistry) *app.Server {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewServer(
			monitorDI.GetStore(sr),
			monitorDI.GetConfigProvider(sr),
			cfg.Query.Port,
			log,
		)
	})

	return nil
}

// Startup starts the query API server.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	server := queryDI.GetServer(mono.Services())
	if err := server.Start(); err != nil {
		return err
	}

	mono.Logger().Info(ctx, "query module started", "port", mono.Config().Query.Port)
	return nil
}
