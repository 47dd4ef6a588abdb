// Package bitflyer implements the bitFlyer market data provider.
package bitflyer

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
	ExchangeName = "bitFlyer"

	BaseAPIURL = "https://api.bitflyer.com"

	tickerEndpoint = "/v1/ticker"
	boardEndpoint  = "/v1/board"

	tracerName  = "marketdata.bitflyer"
	httpTimeout = 10 * time.Second
	userAgent   = "spread-monitor/1.0"
)

// ClientConfig holds configuration for the bitFlyer client.
type ClientConfig struct {
	BaseURL string
	Product string
	Timeout time.Duration
}

// Client fetches ticker and board data from the bitFlyer public REST API.
type Client struct {
	client  httpclient.Client
	product string
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewClient creates a bitFlyer market data client.
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
		httpclient.WithProviderName("bitflyer"),
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

// tickerResponse is the /v1/ticker payload.
type tickerResponse struct {
	ProductCode     string  `json:"product_code"`
	Timestamp       string  `json:"timestamp"`
	BestBid         float64 `json:"best_bid"`
	BestAsk         float64 `json:"best_ask"`
	BestBidSize     float64 `json:"best_bid_size"`
	BestAskSize     float64 `json:"best_ask_size"`
	Volume          float64 `json:"volume"`
	VolumeByProduct float64 `json:"volume_by_product"`
	LTP             float64 `json:"ltp"`
}

// boardResponse is the /v1/board payload.
type boardResponse struct {
	MidPrice float64      `json:"mid_price"`
	Bids     []boardLevel `json:"bids"`
	Asks     []boardLevel `json:"asks"`
}

type boardLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// FetchTicker retrieves the current raw ticker.
func (c *Client) FetchTicker(ctx context.Context) (domain.RawTicker, error) {
	var result tickerResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "ticker")),
	).
		SetQueryParam("product_code", c.product).
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
		Bid:       result.BestBid,
		Ask:       result.BestAsk,
		BidSize:   result.BestBidSize,
		AskSize:   result.BestAskSize,
		Volume:    result.VolumeByProduct,
		Extra: map[string]string{
			"ltp":          strconv.FormatFloat(result.LTP, 'f', -1, 64),
			"total_volume": strconv.FormatFloat(result.Volume, 'f', -1, 64),
		},
	}, nil
}

// FetchOrderBook retrieves the current raw order book, best price first.
func (c *Client) FetchOrderBook(ctx context.Context) (domain.RawOrderBook, error) {
	var result boardResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "board")),
	).
		SetQueryParam("product_code", c.product).
		SetResult(&result).
		Get(ctx, boardEndpoint)

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
		Bids:     make([]domain.RawLevel, 0, len(result.Bids)),
		Asks:     make([]domain.RawLevel, 0, len(result.Asks)),
	}
	for _, l := range result.Bids {
		book.Bids = append(book.Bids, domain.RawLevel{Price: l.Price, Size: l.Size})
	}
	for _, l := range result.Asks {
		book.Asks = append(book.Asks, domain.RawLevel{Price: l.Price, Size: l.Size})
	}

	c.logger.Debug(ctx, "fetched bitFlyer board",
		"bids", len(book.Bids), "asks", len(book.Asks))

	return book, nil
}
