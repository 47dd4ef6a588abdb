package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	alertDomain "github.com/fd1az/spread-monitor/business/alert/domain"
	marketDomain "github.com/fd1az/spread-monitor/business/marketdata/domain"
	"github.com/fd1az/spread-monitor/business/monitor/domain"
	spreadApp "github.com/fd1az/spread-monitor/business/spread/app"
	spreadDomain "github.com/fd1az/spread-monitor/business/spread/domain"
	"github.com/fd1az/spread-monitor/internal/logger"
	"github.com/fd1az/spread-monitor/internal/telemetry"
)

type fakeCollector struct {
	snapshots []marketDomain.MarketSnapshot
}

func (f *fakeCollector) Collect(ctx context.Context) []marketDomain.MarketSnapshot {
	return f.snapshots
}

type fakeConfigProvider struct {
	cfg       RuntimeConfig
	reloadErr error
	reloads   int
}

func (f *fakeConfigProvider) Current() RuntimeConfig { return f.cfg }

func (f *fakeConfigProvider) Reload(ctx context.Context) (RuntimeConfig, error) {
	f.reloads++
	if f.reloadErr != nil {
		return RuntimeConfig{}, f.reloadErr
	}
	return f.cfg, nil
}

type fakeSink struct {
	records []domain.SnapshotRecord
	err     error
}

func (f *fakeSink) Persist(ctx context.Context, record domain.SnapshotRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

type fakeDispatcher struct {
	rule    alertDomain.AlertRule
	handled []alertDomain.OpportunityAlert
	result  bool
}

func (f *fakeDispatcher) Handle(ctx context.Context, alert alertDomain.OpportunityAlert) bool {
	f.handled = append(f.handled, alert)
	return f.result
}

func (f *fakeDispatcher) SetRule(rule alertDomain.AlertRule) { f.rule = rule }

func makeSnapshot(exchange, askPrice, askSize, bidPrice, bidSize string) marketDomain.MarketSnapshot {
	return marketDomain.MarketSnapshot{
		Ticker: marketDomain.NormalizedTicker{Exchange: exchange, Product: "BTC_JPY"},
		OrderBook: marketDomain.NormalizedOrderBook{
			Exchange: exchange,
			Product:  "BTC_JPY",
			Asks: []marketDomain.NormalizedLevel{{
				Price: decimal.RequireFromString(askPrice),
				Size:  decimal.RequireFromString(askSize),
			}},
			Bids: []marketDomain.NormalizedLevel{{
				Price: decimal.RequireFromString(bidPrice),
				Size:  decimal.RequireFromString(bidSize),
			}},
		},
	}
}

func zeroFeeConfig() RuntimeConfig {
	zero := spreadDomain.FeeProfile{TakerPercent: decimal.Zero, WithdrawalFee: decimal.Zero}
	return RuntimeConfig{
		AlertRule: alertDomain.AlertRule{
			MinNetSpread: decimal.Zero,
			MinVolume:    decimal.Zero,
			Cooldown:     time.Minute,
		},
		FeeProfiles: map[string]spreadDomain.FeeProfile{
			"A": zero, "B": zero, "C": zero,
		},
	}
}

func newTestPipeline(collector MarketCollector, configs ConfigProvider, sink PersistenceSink, dispatcher AlertDispatcher) *Pipeline {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	calc := spreadApp.NewCalculator(spreadDomain.DefaultFeeModel(), telemetry.Noop{})
	return NewPipeline(collector, calc, dispatcher, configs, sink, time.Second, log)
}

func countKind(records []domain.SnapshotRecord, kind string) int {
	n := 0
	for _, r := range records {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

func TestPipeline_CycleEvaluatesAllOrderedPairs(t *testing.T) {
	// A sells cheap, B pays well: exactly one profitable direction.
	collector := &fakeCollector{snapshots: []marketDomain.MarketSnapshot{
		makeSnapshot("A", "5000000", "0.05", "4999000", "1"),
		makeSnapshot("B", "5031000", "1", "5030000", "0.03"),
	}}
	sink := &fakeSink{}
	dispatcher := &fakeDispatcher{result: true}
	pipeline := newTestPipeline(collector, &fakeConfigProvider{cfg: zeroFeeConfig()}, sink, dispatcher)

	pipeline.RunCycle(context.Background())

	if got := countKind(sink.records, domain.KindTicker); got != 2 {
		t.Errorf("ticker records = %d, want 2", got)
	}
	if got := countKind(sink.records, domain.KindOrderBook); got != 2 {
		t.Errorf("order book records = %d, want 2", got)
	}
	if got := countKind(sink.records, domain.KindOpportunity); got != 1 {
		t.Errorf("opportunity records = %d, want 1", got)
	}
	if len(dispatcher.handled) != 1 {
		t.Fatalf("alerts handled = %d, want 1", len(dispatcher.handled))
	}

	alert := dispatcher.handled[0]
	if alert.Opportunity.BuyExchange != "A" || alert.Opportunity.SellExchange != "B" {
		t.Errorf("direction = %s->%s, want A->B",
			alert.Opportunity.BuyExchange, alert.Opportunity.SellExchange)
	}
	if got := countKind(sink.records, domain.KindAlert); got != 1 {
		t.Errorf("alert records = %d, want 1", got)
	}
}

func TestPipeline_OpportunitiesSortedByNetDescending(t *testing.T) {
	// B and C both profitably absorb A's ask; C pays more.
	collector := &fakeCollector{snapshots: []marketDomain.MarketSnapshot{
		makeSnapshot("A", "5000000", "0.05", "4999000", "1"),
		makeSnapshot("B", "5021000", "1", "5020000", "0.03"),
		makeSnapshot("C", "5031000", "1", "5030000", "0.03"),
	}}
	sink := &fakeSink{}
	dispatcher := &fakeDispatcher{result: true}
	pipeline := newTestPipeline(collector, &fakeConfigProvider{cfg: zeroFeeConfig()}, sink, dispatcher)

	pipeline.RunCycle(context.Background())

	if len(dispatcher.handled) < 2 {
		t.Fatalf("alerts handled = %d, want at least 2", len(dispatcher.handled))
	}

	first := dispatcher.handled[0].Opportunity
	second := dispatcher.handled[1].Opportunity
	if first.NetSpread.LessThan(second.NetSpread) {
		t.Errorf("alerts not sorted by net spread: %s before %s",
			first.NetSpread, second.NetSpread)
	}
	if first.SellExchange != "C" {
		t.Errorf("best opportunity sell exchange = %s, want C", first.SellExchange)
	}
}

func TestPipeline_ReloadFailureKeepsLastKnownGood(t *testing.T) {
	collector := &fakeCollector{snapshots: []marketDomain.MarketSnapshot{
		makeSnapshot("A", "5000000", "0.05", "4999000", "1"),
		makeSnapshot("B", "5031000", "1", "5030000", "0.03"),
	}}
	configs := &fakeConfigProvider{cfg: zeroFeeConfig(), reloadErr: errors.New("parse error")}
	sink := &fakeSink{}
	dispatcher := &fakeDispatcher{result: true}
	pipeline := newTestPipeline(collector, configs, sink, dispatcher)

	pipeline.RunCycle(context.Background())

	if configs.reloads != 1 {
		t.Errorf("reloads = %d, want 1", configs.reloads)
	}
	// The cycle still evaluated and dispatched on the last-known-good config.
	if len(dispatcher.handled) != 1 {
		t.Errorf("alerts handled = %d, want 1", len(dispatcher.handled))
	}
}

func TestPipeline_PersistenceFailureDoesNotBlockAlerts(t *testing.T) {
	collector := &fakeCollector{snapshots: []marketDomain.MarketSnapshot{
		makeSnapshot("A", "5000000", "0.05", "4999000", "1"),
		makeSnapshot("B", "5031000", "1", "5030000", "0.03"),
	}}
	sink := &fakeSink{err: errors.New("disk full")}
	dispatcher := &fakeDispatcher{result: true}
	pipeline := newTestPipeline(collector, &fakeConfigProvider{cfg: zeroFeeConfig()}, sink, dispatcher)

	pipeline.RunCycle(context.Background())

	if len(dispatcher.handled) != 1 {
		t.Errorf("alerts handled = %d, want 1 despite persistence failure", len(dispatcher.handled))
	}
}

func TestPipeline_UndispatchedAlertNotPersisted(t *testing.T) {
	collector := &fakeCollector{snapshots: []marketDomain.MarketSnapshot{
		makeSnapshot("A", "5000000", "0.05", "4999000", "1"),
		makeSnapshot("B", "5031000", "1", "5030000", "0.03"),
	}}
	sink := &fakeSink{}
	dispatcher := &fakeDispatcher{result: false}
	pipeline := newTestPipeline(collector, &fakeConfigProvider{cfg: zeroFeeConfig()}, sink, dispatcher)

	pipeline.RunCycle(context.Background())

	if got := countKind(sink.records, domain.KindOpportunity); got != 1 {
		t.Errorf("opportunity records = %d, want 1", got)
	}
	if got := countKind(sink.records, domain.KindAlert); got != 0 {
		t.Errorf("alert records = %d, want 0 when dispatch suppressed", got)
	}
}

func TestPipeline_RunStopsOnCancel(t *testing.T) {
	collector := &fakeCollector{}
	pipeline := newTestPipeline(collector, &fakeConfigProvider{cfg: zeroFeeConfig()}, &fakeSink{}, &fakeDispatcher{})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- pipeline.Run(ctx) }()

	// Give the loop a moment to enter Running state, then cancel.
	time.Sleep(50 * time.Millisecond)
	if !pipeline.Running() {
		t.Error("pipeline should report running")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil on cancellation", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("pipeline did not stop after cancellation")
	}

	if pipeline.Running() {
		t.Error("pipeline should report stopped")
	}
}

func TestPipeline_RejectsSecondRun(t *testing.T) {
	pipeline := newTestPipeline(&fakeCollector{}, &fakeConfigProvider{cfg: zeroFeeConfig()}, &fakeSink{}, &fakeDispatcher{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go pipeline.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	if err := pipeline.Run(ctx); err == nil {
		t.Error("second Run() should fail while the first is active")
	}
}
