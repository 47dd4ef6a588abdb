// Package rules loads the live-reloadable runtime rules file.
package rules

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	alertDomain "github.com/fd1az/spread-monitor/business/alert/domain"
	"github.com/fd1az/spread-monitor/business/monitor/app"
	spreadDomain "github.com/fd1az/spread-monitor/business/spread/domain"
	"github.com/fd1az/spread-monitor/internal/apperror"
	"github.com/fd1az/spread-monitor/internal/logger"
)

// fileRules mirrors the on-disk JSON rules document.
type fileRules struct {
	AlertRule fileAlertRule       `mapstructure:"alert_rule"`
	Fees      map[string]fileFees `mapstructure:"fees"`
}

// The cooldown is always positive: an absent, zero or negative
// cooldown_seconds keeps the 180s default, so a rules file cannot turn
// suppression off.
type fileAlertRule struct {
	MinNetSpread    float64 `mapstructure:"min_net_spread"`
	MinVolume       float64 `mapstructure:"min_volume"`
	CooldownSeconds int     `mapstructure:"cooldown_seconds"`
}

type fileFees struct {
	TakerPercent  float64 `mapstructure:"taker_percent"`
	WithdrawalFee float64 `mapstructure:"withdrawal_fee"`
}

// Provider reads the rules file on every reload and keeps serving the
// last-known-good configuration when the file is missing or malformed.
type Provider struct {
	mu       sync.Mutex
	path     string
	lastGood app.RuntimeConfig
	log      logger.LoggerInterface
}

// NewProvider creates a rules provider. The initial configuration is the
// process default until the first successful reload.
func NewProvider(path string, log logger.LoggerInterface) *Provider {
	return &Provider{
		path: path,
		lastGood: app.RuntimeConfig{
			AlertRule: alertDomain.DefaultAlertRule(),
		},
		log: log,
	}
}

// Current returns the last-known-good configuration.
func (p *Provider) Current() app.RuntimeConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastGood
}

// Reload re-reads the rules file. A missing file keeps the defaults and is
// not an error; a malformed file is an error and leaves the last-known-good
// configuration in place.
func (p *Provider) Reload(ctx context.Context) (app.RuntimeConfig, error) {
	if _, err := os.Stat(p.path); os.IsNotExist(err) {
		return p.Current(), nil
	}

	v := viper.New()
	v.SetConfigFile(p.path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return app.RuntimeConfig{}, apperror.New(apperror.CodeConfigReloadFailed,
			apperror.WithCause(err),
			apperror.WithContext("path", p.path))
	}

	var parsed fileRules
	if err := v.Unmarshal(&parsed); err != nil {
		return app.RuntimeConfig{}, apperror.New(apperror.CodeConfigReloadFailed,
			apperror.WithCause(err),
			apperror.WithContext("path", p.path))
	}

	cfg := toRuntimeConfig(parsed)

	p.mu.Lock()
	p.lastGood = cfg
	p.mu.Unlock()

	return cfg, nil
}

func toRuntimeConfig(parsed fileRules) app.RuntimeConfig {
	rule := alertDomain.DefaultAlertRule()
	if parsed.AlertRule.MinNetSpread > 0 {
		rule.MinNetSpread = decimal.NewFromFloat(parsed.AlertRule.MinNetSpread)
	}
	if parsed.AlertRule.MinVolume > 0 {
		rule.MinVolume = decimal.NewFromFloat(parsed.AlertRule.MinVolume)
	}
	if parsed.AlertRule.CooldownSeconds > 0 {
		rule.Cooldown = time.Duration(parsed.AlertRule.CooldownSeconds) * time.Second
	}

	var profiles map[string]spreadDomain.FeeProfile
	if len(parsed.Fees) > 0 {
		profiles = make(map[string]spreadDomain.FeeProfile, len(parsed.Fees))
		for exchange, fees := range parsed.Fees {
			profiles[exchange] = spreadDomain.FeeProfile{
				TakerPercent:  decimal.NewFromFloat(fees.TakerPercent),
				WithdrawalFee: decimal.NewFromFloat(fees.WithdrawalFee),
			}
		}
	}

	return app.RuntimeConfig{
		AlertRule:   rule,
		FeeProfiles: profiles,
	}
}
