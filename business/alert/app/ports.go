// Package app contains the alert routing service and channel port for the alert context.
package app

import (
	"context"

	"github.com/fd1az/spread-monitor/business/alert/domain"
)

// NotificationChannel is a polymorphic delivery sink. Implementations hold no
// state beyond their delivery configuration.
type NotificationChannel interface {
	// Name identifies the channel in logs and telemetry.
	Name() string

	// Send delivers one alert. A transport failure or rejection is returned
	// as an error and never retried by the caller within the same cycle.
	Send(ctx context.Context, alert domain.OpportunityAlert) error
}
