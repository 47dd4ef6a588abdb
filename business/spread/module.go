// Package spread implements the spread evaluation bounded context.
package spread

import (
	"context"

	"github.com/fd1az/spread-monitor/business/spread/app"
	spreadDI "github.com/fd1az/spread-monitor/business/spread/di"
	"github.com/fd1az/spread-monitor/business/spread/domain"
	"github.com/fd1az/spread-monitor/internal/di"
	"github.com/fd1az/spread-monitor/internal/monolith"
	"github.com/fd1az/spread-monitor/internal/telemetry"
)

// Module implements the spread bounded context.
type Module struct{}

// RegisterServices registers all spread services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, spreadDI.Calculator, func(sr di.ServiceRegistry) *app.Calculator {
		recorder := sr.Get("telemetry").(telemetry.Recorder)
		return app.NewCalculator(domain.DefaultFeeModel(), recorder)
	})

	return nil
}

// Startup initializes the spread module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "spread module started")
	return nil
}
