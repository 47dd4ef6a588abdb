package app

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/spread-monitor/business/marketdata/domain"
	"github.com/fd1az/spread-monitor/internal/apperror"
	"github.com/fd1az/spread-monitor/internal/circuitbreaker"
	"github.com/fd1az/spread-monitor/internal/logger"
	"github.com/fd1az/spread-monitor/internal/ratelimit"
	"github.com/fd1az/spread-monitor/internal/telemetry"
)

// CollectorConfig configures per-cycle market data collection.
type CollectorConfig struct {
	FetchTimeout time.Duration
	DepthLimit   int
}

// Collector fetches and normalizes market data from every configured provider
// concurrently. One provider failing never fails the collection; the exchange
// is simply absent from that cycle's result.
type Collector struct {
	providers []MarketDataProvider
	breakers  map[string]*circuitbreaker.CircuitBreaker[domain.MarketSnapshot]
	limiters  *ratelimit.Registry
	cfg       CollectorConfig
	log       logger.LoggerInterface
	recorder  telemetry.Recorder
}

// NewCollector creates a Collector. Provider order is preserved in results so
// downstream pairwise evaluation stays deterministic.
func NewCollector(
	providers []MarketDataProvider,
	limiters *ratelimit.Registry,
	cfg CollectorConfig,
	log logger.LoggerInterface,
	recorder telemetry.Recorder,
) *Collector {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.DepthLimit <= 0 {
		cfg.DepthLimit = domain.DefaultDepthLimit
	}

	breakers := make(map[string]*circuitbreaker.CircuitBreaker[domain.MarketSnapshot], len(providers))
	for _, p := range providers {
		bcfg := circuitbreaker.DefaultConfig("marketdata-" + p.ExchangeName())
		bcfg.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Info(context.Background(), "circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		}
		breakers[p.ExchangeName()] = circuitbreaker.New[domain.MarketSnapshot](bcfg)
	}

	return &Collector{
		providers: providers,
		breakers:  breakers,
		limiters:  limiters,
		cfg:       cfg,
		log:       log,
		recorder:  recorder,
	}
}

// Collect fetches ticker and order book from every provider concurrently and
// returns the normalized snapshots in provider order. All fetches complete or
// time out before Collect returns.
func (c *Collector) Collect(ctx context.Context) []domain.MarketSnapshot {
	results := make([]*domain.MarketSnapshot, len(c.providers))

	var wg sync.WaitGroup
	for i, provider := range c.providers {
		wg.Add(1)
		go func(idx int, p MarketDataProvider) {
			defer wg.Done()

			snapshot, err := c.fetchOne(ctx, p)
			if err != nil {
				c.log.Warn(ctx, "exchange excluded from cycle",
					"exchange", p.ExchangeName(), "error", err)
				return
			}
			results[idx] = snapshot
		}(i, provider)
	}
	wg.Wait()

	snapshots := make([]domain.MarketSnapshot, 0, len(c.providers))
	for _, r := range results {
		if r != nil {
			snapshots = append(snapshots, *r)
		}
	}
	return snapshots
}

func (c *Collector) fetchOne(ctx context.Context, p MarketDataProvider) (*domain.MarketSnapshot, error) {
	exchange := p.ExchangeName()

	if err := c.limiters.Wait(ctx, exchange); err != nil {
		return nil, apperror.New(apperror.CodeProviderRateLimited,
			apperror.WithCause(err),
			apperror.WithContext("exchange", exchange),
		)
	}

	breaker := c.breakers[exchange]

	snapshot, err := breaker.Execute(func() (domain.MarketSnapshot, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
		defer cancel()

		rawTicker, err := p.FetchTicker(fetchCtx)
		if err != nil {
			c.recorder.FetchAttempt(ctx, exchange, "ticker", "error")
			return domain.MarketSnapshot{}, apperror.New(apperror.CodeTickerFetchFailed,
				apperror.WithCause(err),
				apperror.WithContext("exchange", exchange),
			)
		}
		c.recorder.FetchAttempt(ctx, exchange, "ticker", "success")

		rawBook, err := p.FetchOrderBook(fetchCtx)
		if err != nil {
			c.recorder.FetchAttempt(ctx, exchange, "order_book", "error")
			return domain.MarketSnapshot{}, apperror.New(apperror.CodeOrderbookFetchFailed,
				apperror.WithCause(err),
				apperror.WithContext("exchange", exchange),
			)
		}
		c.recorder.FetchAttempt(ctx, exchange, "order_book", "success")

		ticker := domain.NormalizeTicker(rawTicker)
		c.recorder.Normalization(ctx, "ticker", "success")

		book := domain.NormalizeOrderBook(rawBook, c.cfg.DepthLimit)
		c.recorder.Normalization(ctx, "order_book", "success")

		return domain.MarketSnapshot{Ticker: ticker, OrderBook: book}, nil
	})
	if err != nil {
		return nil, err
	}

	return &snapshot, nil
}
