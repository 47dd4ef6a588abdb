// Package coincheck implements the Coincheck market data provider.
package coincheck

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/spread-monitor/business/marketdata/domain"
	"github.com/fd1az/spread-monitor/internal/apperror"
	"github.com/fd1az/spread-monitor/internal/httpclient"
	"github.com/fd1az/spread-monitor/internal/logger"
)

const (
	ExchangeName = "Coincheck"

	BaseAPIURL = "https://coincheck.com"

	tickerEndpoint    = "/api/ticker"
	orderBookEndpoint = "/api/order_books"

	tracerName  = "marketdata.coincheck"
	httpTimeout = 10 * time.Second
	userAgent   = "spread-monitor/1.0"
)

// ClientConfig holds configuration for the Coincheck client.
type ClientConfig struct {
	BaseURL string
	Product string
	Timeout time.Duration
}

// Client fetches ticker and order book data from the Coincheck public REST API.
// The public endpoints serve btc_jpy only.
type Client struct {
	client  httpclient.Client
	product string
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewClient creates a Coincheck market data client.
func NewClient(cfg ClientConfig, log logger.LoggerInterface) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseAPIURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = httpTimeout
	}

	product := cfg.Product
	if product == "" {
		product = "BTC_JPY"
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("coincheck"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTracer(tracer),
		httpclient.WithHeaders(map[string]string{
			"Accept":     "application/json",
			"User-Agent": userAgent,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		client:  client,
		product: product,
		logger:  log,
		tracer:  tracer,
	}, nil
}

// ExchangeName returns the venue identifier.
func (c *Client) ExchangeName() string { return ExchangeName }

// Product returns the configured product code.
func (c *Client) Product() string { return c.product }

// tickerResponse is the /api/ticker payload. Timestamp is epoch seconds.
type tickerResponse struct {
	Last      float64 `json:"last"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Volume    any     `json:"volume"` // served as string or number depending on endpoint version
	Timestamp float64 `json:"timestamp"`
}

// orderBookResponse is the /api/order_books payload with [price, amount]
// string pairs.
type orderBookResponse struct {
	Asks [][]string `json:"asks"`
	Bids [][]string `json:"bids"`
}

// FetchTicker retrieves the current raw ticker.
func (c *Client) FetchTicker(ctx context.Context) (domain.RawTicker, error) {
	var result tickerResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "ticker")),
	).
		SetResult(&result).
		Get(ctx, tickerEndpoint)

	if err != nil {
		return domain.RawTicker{}, apperror.New(apperror.CodeTickerFetchFailed,
			apperror.WithCause(err),
			apperror.WithContext("exchange", ExchangeName))
	}
	if resp.IsError() {
		return domain.RawTicker{}, apperror.New(apperror.CodeTickerFetchFailed,
			apperror.WithContext("status", fmt.Sprintf("HTTP %d", resp.StatusCode)),
			apperror.WithContext("exchange", ExchangeName))
	}

	return domain.RawTicker{
		Exchange:  ExchangeName,
		Product:   c.product,
		Timestamp: result.Timestamp,
		Bid:       result.Bid,
		Ask:       result.Ask,
		Volume:    result.Volume,
		Extra: map[string]string{
			"last": strconv.FormatFloat(result.Last, 'f', -1, 64),
			"high": strconv.FormatFloat(result.High, 'f', -1, 64),
			"low":  strconv.FormatFloat(result.Low, 'f', -1, 64),
		},
	}, nil
}

// FetchOrderBook retrieves the current raw order book, best price first.
func (c *Client) FetchOrderBook(ctx context.Context) (domain.RawOrderBook, error) {
	var result orderBookResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "order_books")),
	).
		SetResult(&result).
		Get(ctx, orderBookEndpoint)

	if err != nil {
		return domain.RawOrderBook{}, apperror.New(apperror.CodeOrderbookFetchFailed,
			apperror.WithCause(err),
			apperror.WithContext("exchange", ExchangeName))
	}
	if resp.IsError() {
		return domain.RawOrderBook{}, apperror.New(apperror.CodeOrderbookFetchFailed,
			apperror.WithContext("status", fmt.Sprintf("HTTP %d", resp.StatusCode)),
			apperror.WithContext("exchange", ExchangeName))
	}

	book := domain.RawOrderBook{
		Exchange: ExchangeName,
		Product:  c.product,
		Bids:     pairsToLevels(result.Bids),
		Asks:     pairsToLevels(result.Asks),
	}

	c.logger.Debug(ctx, "fetched Coincheck order book",
		"bids", len(book.Bids), "asks", len(book.Asks))

	return book, nil
}

func pairsToLevels(pairs [][]string) []domain.RawLevel {
	levels := make([]domain.RawLevel, 0, len(pairs))
	for _, p := range pairs {
		if len(p) < 2 {
			continue
		}
		levels = append(levels, domain.RawLevel{Price: p[0], Size: p[1]})
	}
	return levels
}
