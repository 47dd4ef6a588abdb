// Package bitbank implements the bitbank market data provider.
package bitbank

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/spread-monitor/business/marketdata/domain"
	"github.com/fd1az/spread-monitor/internal/apperror"
	"github.com/fd1az/spread-monitor/internal/httpclient"
	"github.com/fd1az/spread-monitor/internal/logger"
)

const (
	ExchangeName = "bitbank"

	BaseAPIURL = "https://public.bitbank.cc"

	tracerName  = "marketdata.bitbank"
	httpTimeout = 10 * time.Second
	userAgent   = "spread-monitor/1.0"
)

// ClientConfig holds configuration for the bitbank client.
type ClientConfig struct {
	BaseURL string
	Product string
	Timeout time.Duration
}

// Client fetches ticker and depth data from the bitbank public REST API.
type Client struct {
	client  httpclient.Client
	product string
	pair    string
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewClient creates a bitbank market data client.
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
		httpclient.WithProviderName("bitbank"),
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
		pair:    strings.ToLower(product), // BTC_JPY -> btc_jpy
		logger:  log,
		tracer:  tracer,
	}, nil
}

// ExchangeName returns the venue identifier.
func (c *Client) ExchangeName() string { return ExchangeName }

// Product returns the configured product code.
func (c *Client) Product() string { return c.product }

// tickerResponse wraps the /{pair}/ticker payload. Prices are strings,
// timestamp is epoch milliseconds.
type tickerResponse struct {
	Success int        `json:"success"`
	Data    tickerData `json:"data"`
}

type tickerData struct {
	Sell      string  `json:"sell"` // best ask
	Buy       string  `json:"buy"`  // best bid
	High      string  `json:"high"`
	Low       string  `json:"low"`
	Last      string  `json:"last"`
	Vol       string  `json:"vol"`
	Timestamp float64 `json:"timestamp"`
}

// depthResponse wraps the /{pair}/depth payload with [price, amount] string pairs.
type depthResponse struct {
	Success int       `json:"success"`
	Data    depthData `json:"data"`
}

type depthData struct {
	Asks      [][]string `json:"asks"`
	Bids      [][]string `json:"bids"`
	Timestamp float64    `json:"timestamp"`
}

// FetchTicker retrieves the current raw ticker.
func (c *Client) FetchTicker(ctx context.Context) (domain.RawTicker, error) {
	var result tickerResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "ticker")),
	).
		SetResult(&result).
		Get(ctx, "/"+c.pair+"/ticker")

	if err != nil {
		return domain.RawTicker{}, apperror.New(apperror.CodeTickerFetchFailed,
			apperror.WithCause(err),
			apperror.WithContext("exchange", ExchangeName))
	}
	if resp.IsError() || result.Success != 1 {
		return domain.RawTicker{}, apperror.New(apperror.CodeTickerFetchFailed,
			apperror.WithContext("status", fmt.Sprintf("HTTP %d success=%d", resp.StatusCode, result.Success)),
			apperror.WithContext("exchange", ExchangeName))
	}

	return domain.RawTicker{
		Exchange:  ExchangeName,
		Product:   c.product,
		Timestamp: result.Data.Timestamp,
		Bid:       result.Data.Buy,
		Ask:       result.Data.Sell,
		Volume:    result.Data.Vol,
		Extra: map[string]string{
			"last": result.Data.Last,
			"high": result.Data.High,
			"low":  result.Data.Low,
		},
	}, nil
}

// FetchOrderBook retrieves the current raw order book, best price first.
func (c *Client) FetchOrderBook(ctx context.Context) (domain.RawOrderBook, error) {
	var result depthResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "depth")),
	).
		SetResult(&result).
		Get(ctx, "/"+c.pair+"/depth")

	if err != nil {
		return domain.RawOrderBook{}, apperror.New(apperror.CodeOrderbookFetchFailed,
			apperror.WithCause(err),
			apperror.WithContext("exchange", ExchangeName))
	}
	if resp.IsError() || result.Success != 1 {
		return domain.RawOrderBook{}, apperror.New(apperror.CodeOrderbookFetchFailed,
			apperror.WithContext("status", fmt.Sprintf("HTTP %d success=%d", resp.StatusCode, result.Success)),
			apperror.WithContext("exchange", ExchangeName))
	}

	book := domain.RawOrderBook{
		Exchange:  ExchangeName,
		Product:   c.product,
		Timestamp: result.Data.Timestamp,
		Bids:      pairsToLevels(result.Data.Bids),
		Asks:      pairsToLevels(result.Data.Asks),
	}

	c.logger.Debug(ctx, "fetched bitbank depth",
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
