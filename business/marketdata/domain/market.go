// Package domain contains the canonical market data shapes for the marketdata context.
package domain

import (
	"github.com/shopspring/decimal"
)

// NormalizedLevel is one price/size point of an order book side.
type NormalizedLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// NormalizedTicker is the canonical best bid/ask snapshot for one exchange/product.
// Optional fields use NullDecimal so a missing upstream value stays distinguishable
// from zero.
type NormalizedTicker struct {
	Exchange  string
	Product   string
	Timestamp string
	Bid       decimal.NullDecimal
	Ask       decimal.NullDecimal
	BidSize   decimal.NullDecimal
	AskSize   decimal.NullDecimal
	Volume    decimal.NullDecimal
	Metadata  map[string]string
}

// NormalizedOrderBook holds both book sides ordered best price first.
type NormalizedOrderBook struct {
	Exchange  string
	Product   string
	Timestamp string
	Bids      []NormalizedLevel
	Asks      []NormalizedLevel
	Metadata  map[string]string
}

// BestBid returns the top-of-book bid level.
func (b *NormalizedOrderBook) BestBid() (NormalizedLevel, bool) {
	if len(b.Bids) == 0 {
		return NormalizedLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the top-of-book ask level.
func (b *NormalizedOrderBook) BestAsk() (NormalizedLevel, bool) {
	if len(b.Asks) == 0 {
		return NormalizedLevel{}, false
	}
	return b.Asks[0], true
}

// MarketSnapshot pairs the ticker and order book fetched from one exchange in
// a single cycle.
type MarketSnapshot struct {
	Ticker    NormalizedTicker
	OrderBook NormalizedOrderBook
}
