// Package di contains dependency injection tokens for the alert context.
package di

import (
	"github.com/fd1az/spread-monitor/business/alert/app"
	"github.com/fd1az/spread-monitor/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Router = di.NewToken[*app.Router]("alert.Router")
)

// Private dependency tokens - internal to alert module
var (
	Channels = di.NewToken[[]app.NotificationChannel]("alert:channels")
)

// Helper functions for type-safe access
func GetRouter(c di.ServiceRegistry) *app.Router {
	return di.GetToken(c, Router)
}

func GetChannels(c di.ServiceRegistry) []app.NotificationChannel {
	return di.GetToken(c, Channels)
}
