// Package alert implements the alert routing bounded context.
package alert

import (
	"context"
	"os"

	"github.com/fd1az/spread-monitor/business/alert/app"
	alertDI "github.com/fd1az/spread-monitor/business/alert/di"
	"github.com/fd1az/spread-monitor/business/alert/domain"
	"github.com/fd1az/spread-monitor/business/alert/infra"
	"github.com/fd1az/spread-monitor/internal/config"
	"github.com/fd1az/spread-monitor/internal/di"
	"github.com/fd1az/spread-monitor/internal/logger"
	"github.com/fd1az/spread-monitor/internal/monolith"
	"github.com/fd1az/spread-monitor/internal/telemetry"
)

// Module implements the alert bounded context.
type Module struct{}

// RegisterServices registers all alert services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register channels in dispatch order - private dependency
	di.RegisterToken(c, alertDI.Channels, func(sr di.ServiceRegistry) []app.NotificationChannel {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		channels := []app.NotificationChannel{
			infra.NewConsoleChannel(cfg.Alerting.ConsolePrefix, os.Stdout),
			infra.NewChatChannel(cfg.Alerting.ChatChannel, log),
		}

		if cfg.Alerting.WebhookURL != "" {
			webhook, err := infra.NewWebhookChannel(infra.WebhookConfig{
				URL:     cfg.Alerting.WebhookURL,
				Timeout: cfg.Alerting.WebhookTimeout,
				Headers: cfg.Alerting.WebhookHeaders,
			}, log)
			if err != nil {
				panic("failed to create webhook channel: " + err.Error())
			}
			channels = append(channels, webhook)
		}

		return channels
	})

	// Register Router (public - exposed to other modules)
	di.RegisterToken(c, alertDI.Router, func(sr di.ServiceRegistry) *app.Router {
		log := sr.Get("logger").(logger.LoggerInterface)
		recorder := sr.Get("telemetry").(telemetry.Recorder)

		return app.NewRouter(domain.DefaultAlertRule(), alertDI.GetChannels(sr), log, recorder)
	})

	return nil
}

// Startup initializes the alert module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	channels := alertDI.GetChannels(mono.Services())
	names := make([]string, 0, len(channels))
	for _, ch := range channels {
		names = append(names, ch.Name())
	}

	log.Info(ctx, "alert module started", "channels", names)
	return nil
}
