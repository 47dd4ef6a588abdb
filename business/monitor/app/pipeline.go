package app

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"

	alertDomain "github.com/fd1az/spread-monitor/business/alert/domain"
	marketDomain "github.com/fd1az/spread-monitor/business/marketdata/domain"
	"github.com/fd1az/spread-monitor/business/monitor/domain"
	spreadDomain "github.com/fd1az/spread-monitor/business/spread/domain"
	"github.com/fd1az/spread-monitor/internal/apm"
	"github.com/fd1az/spread-monitor/internal/apperror"
	"github.com/fd1az/spread-monitor/internal/logger"
)

const tracerName = "github.com/fd1az/spread-monitor/business/monitor/app"

// MarketCollector yields one consistent set of normalized snapshots per cycle.
type MarketCollector interface {
	Collect(ctx context.Context) []marketDomain.MarketSnapshot
}

// SpreadEvaluator evaluates one directed exchange pair.
type SpreadEvaluator interface {
	Evaluate(ctx context.Context, buy, sell marketDomain.MarketSnapshot) *spreadDomain.SpreadOpportunity
	SetFeeModel(fees *spreadDomain.FeeModel)
}

// AlertDispatcher routes one alert and reports whether dispatch was attempted.
type AlertDispatcher interface {
	Handle(ctx context.Context, alert alertDomain.OpportunityAlert) bool
	SetRule(rule alertDomain.AlertRule)
}

// Pipeline drives the monitoring loop: reload config, collect market data,
// evaluate all ordered pairs, persist, alert, sleep, repeat. Cycles never
// overlap; a cycle in progress finishes its step before a stop is observed.
type Pipeline struct {
	collector  MarketCollector
	calculator SpreadEvaluator
	router     AlertDispatcher
	configs    ConfigProvider
	sink       PersistenceSink
	interval   time.Duration
	log        logger.LoggerInterface
	tracer     apm.Tracer
	now        func() time.Time
	running    atomic.Bool
}

// NewPipeline creates a Pipeline. The interval is the sleep between cycles.
func NewPipeline(
	collector MarketCollector,
	calculator SpreadEvaluator,
	router AlertDispatcher,
	configs ConfigProvider,
	sink PersistenceSink,
	interval time.Duration,
	log logger.LoggerInterface,
) *Pipeline {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Pipeline{
		collector:  collector,
		calculator: calculator,
		router:     router,
		configs:    configs,
		sink:       sink,
		interval:   interval,
		log:        log,
		tracer:     apm.NewTracer(tracerName),
		now:        time.Now,
	}
}

// SetClock replaces the time source, used by tests.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Running reports whether the loop is active.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Run executes cycles until the context is cancelled. Only one loop may run
// per Pipeline instance.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return apperror.New(apperror.CodeInvalidInput,
			apperror.WithMessage("pipeline already running"))
	}
	defer p.running.Store(false)

	p.log.Info(ctx, "monitoring pipeline started", "interval", p.interval.String())

	for {
		p.RunCycle(ctx)

		select {
		case <-ctx.Done():
			p.log.Info(ctx, "monitoring pipeline stopped")
			return nil
		case <-time.After(p.interval):
		}
	}
}

// RunCycle executes exactly one monitoring cycle. Per-exchange, per-channel
// and per-write failures are isolated; nothing short of context cancellation
// aborts a cycle.
func (p *Pipeline) RunCycle(ctx context.Context) {
	ctx, span := p.tracer.StartSpanFromContext(ctx, "monitor.cycle")
	defer span.End()

	// 1. Reload runtime config; fall back to last-known-good on failure.
	cfg, err := p.configs.Reload(ctx)
	if err != nil {
		p.log.Error(ctx, "config reload failed, keeping last-known-good", "error", err)
		cfg = p.configs.Current()
	}
	p.router.SetRule(cfg.AlertRule)
	if len(cfg.FeeProfiles) > 0 {
		p.calculator.SetFeeModel(spreadDomain.NewFeeModel(cfg.FeeProfiles))
	} else {
		p.calculator.SetFeeModel(spreadDomain.DefaultFeeModel())
	}

	// 2. Collect one consistent snapshot set.
	snapshots := p.collector.Collect(ctx)

	// 3. Persist raw market snapshots.
	for _, s := range snapshots {
		p.persist(ctx, tickerRecord(s.Ticker))
		p.persist(ctx, orderBookRecord(s.OrderBook))
	}

	// 4. Evaluate all ordered pairs present this cycle.
	opportunities := make([]spreadDomain.SpreadOpportunity, 0)
	for i := range snapshots {
		for j := range snapshots {
			if i == j {
				continue
			}
			if opp := p.calculator.Evaluate(ctx, snapshots[i], snapshots[j]); opp != nil {
				opportunities = append(opportunities, *opp)
			}
		}
	}

	// 5. Best net spread first; ties keep pair-iteration order.
	sort.SliceStable(opportunities, func(a, b int) bool {
		return opportunities[a].NetSpread.GreaterThan(opportunities[b].NetSpread)
	})

	// 6. Persist and route.
	now := p.now()
	for _, opp := range opportunities {
		p.persist(ctx, opportunityRecord(opp, now))

		alert := alertDomain.NewOpportunityAlert(opp, now)
		if p.router.Handle(ctx, alert) {
			p.persist(ctx, alertRecord(alert))
		}
	}

	span.SetAttributes(
		attribute.Int("cycle.exchanges", len(snapshots)),
		attribute.Int("cycle.opportunities", len(opportunities)),
	)

	if len(opportunities) > 0 {
		p.log.Info(ctx, "cycle complete",
			"exchanges", len(snapshots),
			"opportunities", len(opportunities),
			"best_net", opportunities[0].NetSpread.String())
	} else {
		p.log.Debug(ctx, "cycle complete", "exchanges", len(snapshots), "opportunities", 0)
	}
}

func (p *Pipeline) persist(ctx context.Context, record domain.SnapshotRecord) {
	if err := p.sink.Persist(ctx, record); err != nil {
		p.log.Error(ctx, "persistence write failed",
			"kind", record.Kind, "exchange", record.Exchange, "error", err)
	}
}

func tickerRecord(t marketDomain.NormalizedTicker) domain.SnapshotRecord {
	return domain.SnapshotRecord{
		Exchange:   t.Exchange,
		Product:    t.Product,
		Kind:       domain.KindTicker,
		RecordedAt: t.Timestamp,
		Payload: map[string]any{
			"bid":      nullDecimalValue(t.Bid),
			"ask":      nullDecimalValue(t.Ask),
			"bid_size": nullDecimalValue(t.BidSize),
			"ask_size": nullDecimalValue(t.AskSize),
			"volume":   nullDecimalValue(t.Volume),
		},
		Metadata: t.Metadata,
	}
}

func orderBookRecord(b marketDomain.NormalizedOrderBook) domain.SnapshotRecord {
	return domain.SnapshotRecord{
		Exchange:   b.Exchange,
		Product:    b.Product,
		Kind:       domain.KindOrderBook,
		RecordedAt: b.Timestamp,
		Payload: map[string]any{
			"bids": levelsValue(b.Bids),
			"asks": levelsValue(b.Asks),
		},
		Metadata: b.Metadata,
	}
}

func opportunityRecord(opp spreadDomain.SpreadOpportunity, now time.Time) domain.SnapshotRecord {
	return domain.SnapshotRecord{
		Exchange:   opp.BuyExchange + "->" + opp.SellExchange,
		Product:    opp.Product,
		Kind:       domain.KindOpportunity,
		RecordedAt: now.UTC().Format(time.RFC3339),
		Payload: map[string]any{
			"id":               opp.ID,
			"buy_exchange":     opp.BuyExchange,
			"sell_exchange":    opp.SellExchange,
			"best_buy_price":   opp.BestBuyPrice.InexactFloat64(),
			"best_sell_price":  opp.BestSellPrice.InexactFloat64(),
			"gross_spread":     opp.GrossSpread.InexactFloat64(),
			"net_spread":       opp.NetSpread.InexactFloat64(),
			"available_volume": opp.AvailableVolume.InexactFloat64(),
		},
		Metadata: opp.Metadata,
	}
}

func alertRecord(alert alertDomain.OpportunityAlert) domain.SnapshotRecord {
	opp := alert.Opportunity
	return domain.SnapshotRecord{
		Exchange:   opp.BuyExchange + "->" + opp.SellExchange,
		Product:    opp.Product,
		Kind:       domain.KindAlert,
		RecordedAt: alert.RecordedAt,
		Payload: map[string]any{
			"id":               opp.ID,
			"buy_exchange":     opp.BuyExchange,
			"sell_exchange":    opp.SellExchange,
			"net_spread":       opp.NetSpread.InexactFloat64(),
			"gross_spread":     opp.GrossSpread.InexactFloat64(),
			"available_volume": opp.AvailableVolume.InexactFloat64(),
		},
		Metadata: opp.Metadata,
	}
}

func nullDecimalValue(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}

func levelsValue(levels []marketDomain.NormalizedLevel) []map[string]float64 {
	out := make([]map[string]float64, 0, len(levels))
	for _, l := range levels {
		out = append(out, map[string]float64{
			"price": l.Price.InexactFloat64(),
			"size":  l.Size.InexactFloat64(),
		})
	}
	return out
}
