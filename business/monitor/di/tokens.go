// Package di contains dependency injection tokens for the monitor context.
package di

import (
	"github.com/fd1az/spread-monitor/business/monitor/app"
	"github.com/fd1az/spread-monitor/business/monitor/infra/storage"
	"github.com/fd1az/spread-monitor/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Pipeline = di.NewToken[*app.Pipeline]("monitor.Pipeline")
	Store    = di.NewToken[storage.Store]("monitor.Store")
)

// Private dependency tokens - internal to monitor module
var (
	ConfigProvider = di.NewToken[app.ConfigProvider]("monitor:configProvider")
)

// Helper functions for type-safe access
func GetPipeline(c di.ServiceRegistry) *app.Pipeline {
	return di.GetToken(c, Pipeline)
}

func GetStore(c di.ServiceRegistry) storage.Store {
	return di.GetToken(c, Store)
}

func GetConfigProvider(c di.ServiceRegistry) app.ConfigProvider {
	return di.GetToken(c, ConfigProvider)
}
