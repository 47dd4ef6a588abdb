package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/spread-monitor/business/alert/domain"
	spreadDomain "github.com/fd1az/spread-monitor/business/spread/domain"
	"github.com/fd1az/spread-monitor/internal/logger"
	"github.com/fd1az/spread-monitor/internal/telemetry"
)

type recordingChannel struct {
	name  string
	err   error
	sent  []domain.OpportunityAlert
	calls int
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Send(ctx context.Context, alert domain.OpportunityAlert) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, alert)
	return nil
}

func makeAlert(buy, sell, net, volume string, at time.Time) domain.OpportunityAlert {
	opp := spreadDomain.NewSpreadOpportunity(
		buy, sell, "BTC_JPY",
		decimal.RequireFromString("5000000"),
		decimal.RequireFromString("5030000"),
		decimal.RequireFromString("30000"),
		decimal.RequireFromString(net),
		decimal.RequireFromString(volume),
		nil,
	)
	return domain.NewOpportunityAlert(opp, at)
}

func testRule(minNet, minVolume string, cooldown time.Duration) domain.AlertRule {
	return domain.AlertRule{
		MinNetSpread: decimal.RequireFromString(minNet),
		MinVolume:    decimal.RequireFromString(minVolume),
		Cooldown:     cooldown,
	}
}

func newTestRouter(rule domain.AlertRule, channels ...NotificationChannel) *Router {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	return NewRouter(rule, channels, log, telemetry.Noop{})
}

func TestRouter_ThresholdRejection(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		rule     domain.AlertRule
		net      string
		volume   string
		wantSent bool
	}{
		{
			name:     "net_below_threshold",
			rule:     testRule("25000", "0.01", time.Minute),
			net:      "23120",
			volume:   "0.03",
			wantSent: false,
		},
		{
			name:     "volume_below_threshold",
			rule:     testRule("1000", "0.05", time.Minute),
			net:      "23120",
			volume:   "0.03",
			wantSent: false,
		},
		{
			name:     "both_thresholds_met",
			rule:     testRule("1000", "0.01", time.Minute),
			net:      "23120",
			volume:   "0.03",
			wantSent: true,
		},
		{
			name:     "net_exactly_at_threshold",
			rule:     testRule("23120", "0.01", time.Minute),
			net:      "23120",
			volume:   "0.03",
			wantSent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &recordingChannel{name: "console"}
			router := newTestRouter(tt.rule, ch)
			router.SetClock(func() time.Time { return base })

			got := router.Handle(context.Background(), makeAlert("bitFlyer", "Coincheck", tt.net, tt.volume, base))

			if got != tt.wantSent {
				t.Errorf("Handle() = %v, want %v", got, tt.wantSent)
			}
			if tt.wantSent && ch.calls != 1 {
				t.Errorf("channel calls = %d, want 1", ch.calls)
			}
			if !tt.wantSent && ch.calls != 0 {
				t.Errorf("channel calls = %d, want 0 when rejected", ch.calls)
			}
		})
	}
}

func TestRouter_CooldownSuppression(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base

	ch := &recordingChannel{name: "console"}
	router := newTestRouter(testRule("1000", "0.01", 60*time.Second), ch)
	router.SetClock(func() time.Time { return now })

	alert := makeAlert("bitFlyer", "Coincheck", "23120", "0.03", base)

	if !router.Handle(context.Background(), alert) {
		t.Fatal("first alert should dispatch")
	}

	// Inside the cooldown window: suppressed.
	now = base.Add(30 * time.Second)
	if router.Handle(context.Background(), alert) {
		t.Error("alert inside cooldown should be suppressed")
	}

	// At the window boundary: dispatched again.
	now = base.Add(60 * time.Second)
	if !router.Handle(context.Background(), alert) {
		t.Error("alert at cooldown boundary should dispatch")
	}

	if ch.calls != 2 {
		t.Errorf("channel calls = %d, want 2", ch.calls)
	}
}

func TestRouter_DedupKeyIsDirectionSensitive(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	ch := &recordingChannel{name: "console"}
	router := newTestRouter(testRule("1000", "0.01", time.Hour), ch)
	router.SetClock(func() time.Time { return base })

	forward := makeAlert("bitFlyer", "Coincheck", "23120", "0.03", base)
	reverse := makeAlert("Coincheck", "bitFlyer", "23120", "0.03", base)

	if !router.Handle(context.Background(), forward) {
		t.Fatal("forward direction should dispatch")
	}
	if !router.Handle(context.Background(), reverse) {
		t.Error("reverse direction must not share cooldown state")
	}
}

func TestRouter_ChannelFailureIsolation(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	failing := &recordingChannel{name: "webhook", err: errors.New("connection refused")}
	healthy := &recordingChannel{name: "console"}
	router := newTestRouter(testRule("1000", "0.01", time.Minute), failing, healthy)
	router.SetClock(func() time.Time { return base })

	got := router.Handle(context.Background(), makeAlert("bitFlyer", "Coincheck", "23120", "0.03", base))

	if !got {
		t.Error("dispatch attempt should be reported even when a channel fails")
	}
	if failing.calls != 1 {
		t.Errorf("failing channel calls = %d, want 1", failing.calls)
	}
	if len(healthy.sent) != 1 {
		t.Errorf("healthy channel deliveries = %d, want 1", len(healthy.sent))
	}
}

func TestRouter_FailedDispatchStillRefreshesCooldown(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base

	failing := &recordingChannel{name: "webhook", err: errors.New("timeout")}
	router := newTestRouter(testRule("1000", "0.01", 60*time.Second), failing)
	router.SetClock(func() time.Time { return now })

	alert := makeAlert("bitFlyer", "Coincheck", "23120", "0.03", base)

	router.Handle(context.Background(), alert)

	now = base.Add(10 * time.Second)
	if router.Handle(context.Background(), alert) {
		t.Error("failed dispatch must still start the cooldown window")
	}
	if failing.calls != 1 {
		t.Errorf("channel calls = %d, want 1", failing.calls)
	}
}

func TestRouter_SetRuleReplacesThresholds(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	ch := &recordingChannel{name: "console"}
	router := newTestRouter(testRule("25000", "0.01", time.Minute), ch)
	router.SetClock(func() time.Time { return base })

	alert := makeAlert("bitFlyer", "Coincheck", "23120", "0.03", base)

	if router.Handle(context.Background(), alert) {
		t.Fatal("alert should be rejected under the strict rule")
	}

	router.SetRule(testRule("1000", "0.01", time.Minute))
	if !router.Handle(context.Background(), alert) {
		t.Error("alert should dispatch after the rule is relaxed")
	}
}
