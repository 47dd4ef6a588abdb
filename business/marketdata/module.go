// Package marketdata implements the market data bounded context.
package marketdata

import (
	"context"

	"github.com/fd1az/spread-monitor/business/marketdata/app"
	marketdataDI "github.com/fd1az/spread-monitor/business/marketdata/di"
	"github.com/fd1az/spread-monitor/business/marketdata/infra/bitbank"
	"github.com/fd1az/spread-monitor/business/marketdata/infra/bitflyer"
	"github.com/fd1az/spread-monitor/business/marketdata/infra/coincheck"
	"github.com/fd1az/spread-monitor/internal/config"
	"github.com/fd1az/spread-monitor/internal/di"
	"github.com/fd1az/spread-monitor/internal/logger"
	"github.com/fd1az/spread-monitor/internal/monolith"
	"github.com/fd1az/spread-monitor/internal/ratelimit"
	"github.com/fd1az/spread-monitor/internal/telemetry"
)

// Module implements the market data bounded context.
type Module struct{}

// RegisterServices registers all marketdata services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register providers in configured order - private dependency
	di.RegisterToken(c, marketdataDI.Providers, func(sr di.ServiceRegistry) []app.MarketDataProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		providers := make([]app.MarketDataProvider, 0, len(cfg.Exchanges.Enabled))
		for _, name := range cfg.Exchanges.Enabled {
			switch name {
			case bitflyer.ExchangeName:
				p, err := bitflyer.NewClient(bitflyer.ClientConfig{
					BaseURL: cfg.Exchanges.BitflyerURL,
					Product: cfg.Exchanges.Product,
					Timeout: cfg.Exchanges.FetchTimeout,
				}, log)
				if err != nil {
					panic("failed to create bitFlyer client: " + err.Error())
				}
				providers = append(providers, p)
			case coincheck.ExchangeName:
				p, err := coincheck.NewClient(coincheck.ClientConfig{
					BaseURL: cfg.Exchanges.CoincheckURL,
					Product: cfg.Exchanges.Product,
					Timeout: cfg.Exchanges.FetchTimeout,
				}, log)
				if err != nil {
					panic("failed to create Coincheck client: " + err.Error())
				}
				providers = append(providers, p)
			case bitbank.ExchangeName:
				p, err := bitbank.NewClient(bitbank.ClientConfig{
					BaseURL: cfg.Exchanges.BitbankURL,
					Product: cfg.Exchanges.Product,
					Timeout: cfg.Exchanges.FetchTimeout,
				}, log)
				if err != nil {
					panic("failed to create bitbank client: " + err.Error())
				}
				providers = append(providers, p)
			}
		}
		return providers
	})

	// Register Collector (public - exposed to other modules)
	di.RegisterToken(c, marketdataDI.Collector, func(sr di.ServiceRegistry) *app.Collector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		recorder := sr.Get("telemetry").(telemetry.Recorder)

		providers := marketdataDI.GetProviders(sr)
		limiters := ratelimit.NewRegistry(cfg.Exchanges.RequestsPerMinute)

		return app.NewCollector(providers, limiters, app.CollectorConfig{
			FetchTimeout: cfg.Exchanges.FetchTimeout,
			DepthLimit:   cfg.Exchanges.DepthLimit,
		}, log, recorder)
	})

	return nil
}

// Startup initializes the marketdata module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	providers := marketdataDI.GetProviders(mono.Services())
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.ExchangeName())
	}

	log.Info(ctx, "marketdata module started", "exchanges", names)
	return nil
}
