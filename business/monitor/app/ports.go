// Package app contains the monitoring pipeline and its port definitions.
package app

import (
	"context"

	alertDomain "github.com/fd1az/spread-monitor/business/alert/domain"
	"github.com/fd1az/spread-monitor/business/monitor/domain"
	spreadDomain "github.com/fd1az/spread-monitor/business/spread/domain"
)

// RuntimeConfig is the live-reloadable operator configuration: the alert
// thresholds plus the per-exchange fee profiles.
type RuntimeConfig struct {
	AlertRule   alertDomain.AlertRule
	FeeProfiles map[string]spreadDomain.FeeProfile
}

// ConfigProvider serves the current runtime configuration. Reload is called at
// the start of every cycle and must keep returning the last-known-good config
// when the underlying source is malformed.
type ConfigProvider interface {
	Current() RuntimeConfig
	Reload(ctx context.Context) (RuntimeConfig, error)
}

// PersistenceSink appends one record per call. Losing a write must never block
// alert dispatch for the same evaluation result.
type PersistenceSink interface {
	Persist(ctx context.Context, record domain.SnapshotRecord) error
}
