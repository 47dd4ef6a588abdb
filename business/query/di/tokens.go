// Package di contains dependency injection tokens for the query context.
package di

import (
	"github.com/fd1az/spread-monitor/business/query/app"
	"github.com/fd1az/spread-monitor/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Server = di.NewToken[*app.Server]("query.Server")
)

// Helper functions for type-safe access
func GetServer(c di.ServiceRegistry) *app.Server {
	return di.GetToken(c, Server)
}
