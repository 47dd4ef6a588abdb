package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fd1az/spread-monitor/business/alert/domain"
	"github.com/fd1az/spread-monitor/internal/apperror"
	"github.com/fd1az/spread-monitor/internal/logger"
	"github.com/fd1az/spread-monitor/internal/telemetry"
)

// Router applies thresholds and cooldown dedup, then fans an alert out to
// every configured channel. The cooldown map is the only state mutated across
// cycles; it never evicts, key cardinality is bounded by pair x product count.
type Router struct {
	mu       sync.Mutex
	rule     domain.AlertRule
	lastSent map[string]time.Time
	channels []NotificationChannel
	now      func() time.Time
	log      logger.LoggerInterface
	recorder telemetry.Recorder
}

// NewRouter creates a Router with the given rule and channels. Channel order
// is the dispatch order.
func NewRouter(
	rule domain.AlertRule,
	channels []NotificationChannel,
	log logger.LoggerInterface,
	recorder telemetry.Recorder,
) *Router {
	return &Router{
		rule:     rule,
		lastSent: make(map[string]time.Time),
		channels: channels,
		now:      time.Now,
		log:      log,
		recorder: recorder,
	}
}

// SetClock replaces the time source, used by tests.
func (r *Router) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// SetRule replaces the rule wholesale on reload.
func (r *Router) SetRule(rule domain.AlertRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rule = rule
}

// Rule returns the active rule.
func (r *Router) Rule() domain.AlertRule {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rule
}

// Handle dispatches one alert and reports whether dispatch was attempted.
// A dispatch attempt always refreshes the cooldown, even when channels fail,
// so a persistently failing channel cannot cause an alert storm.
func (r *Router) Handle(ctx context.Context, alert domain.OpportunityAlert) bool {
	r.mu.Lock()

	if alert.Opportunity.NetSpread.LessThan(r.rule.MinNetSpread) ||
		alert.Opportunity.AvailableVolume.LessThan(r.rule.MinVolume) {
		r.mu.Unlock()
		return false
	}

	key := alert.DedupKey()
	now := r.now()

	if last, ok := r.lastSent[key]; ok && now.Sub(last) < r.rule.CooldownOrDefault() {
		r.mu.Unlock()
		return false
	}

	// Cooldown refreshes with the attempt itself.
	r.lastSent[key] = now
	channels := r.channels
	r.mu.Unlock()

	for _, ch := range channels {
		if err := ch.Send(ctx, alert); err != nil {
			args := []any{"channel", ch.Name(), "key", key}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				args = append(args, appErr.LogArgs()...)
			} else {
				args = append(args, "error", err)
			}
			r.log.Warn(ctx, "alert delivery failed", args...)
			r.recorder.AlertSent(ctx, ch.Name(), "error")
			continue
		}
		r.recorder.AlertSent(ctx, ch.Name(), "success")
	}

	return true
}
