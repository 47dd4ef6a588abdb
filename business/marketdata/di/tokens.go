// Package di contains dependency injection tokens for the marketdata context.
package di

import (
	"github.com/fd1az/spread-monitor/business/marketdata/app"
	"github.com/fd1az/spread-monitor/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Collector = di.NewToken[*app.Collector]("marketdata.Collector")
)

// Private dependency tokens - internal to marketdata module
var (
	Providers = di.NewToken[[]app.MarketDataProvider]("marketdata:providers")
)

// Helper functions for type-safe access
func GetCollector(c di.ServiceRegistry) *app.Collector {
	return di.GetToken(c, Collector)
}

func GetProviders(c di.ServiceRegistry) []app.MarketDataProvider {
	return di.GetToken(c, Providers)
}
