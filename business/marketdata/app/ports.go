// Package app contains application services and port definitions for the marketdata context.
package app

import (
	"context"

	"github.com/fd1az/spread-monitor/business/marketdata/domain"
)

// MarketDataProvider fetches raw ticker and order book data from one exchange.
type MarketDataProvider interface {
	// ExchangeName returns the venue identifier, e.g. "bitFlyer".
	ExchangeName() string

	// Product returns the traded product identifier, e.g. "BTC_JPY".
	Product() string

	// FetchTicker retrieves the current raw ticker.
	FetchTicker(ctx context.Context) (domain.RawTicker, error)

	// FetchOrderBook retrieves the current raw order book, best price first.
	FetchOrderBook(ctx context.Context) (domain.RawOrderBook, error)
}
