// Package di contains dependency injection tokens for the spread context.
package di

import (
	"github.com/fd1az/spread-monitor/business/spread/app"
	"github.com/fd1az/spread-monitor/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Calculator = di.NewToken[*app.Calculator]("spread.Calculator")
)

// Helper functions for type-safe access
func GetCalculator(c di.ServiceRegistry) *app.Calculator {
	return di.GetToken(c, Calculator)
}
