package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SpreadOpportunity is a fee-adjusted cross-exchange opportunity produced by
// one evaluation. Immutable; a fresh record is created every cycle.
type SpreadOpportunity struct {
	ID              string
	BuyExchange     string
	SellExchange    string
	Product         string
	BestBuyPrice    decimal.Decimal
	BestSellPrice   decimal.Decimal
	GrossSpread     decimal.Decimal
	NetSpread       decimal.Decimal
	AvailableVolume decimal.Decimal
	Metadata        map[string]string
}

// NewSpreadOpportunity assigns a record id and returns the opportunity.
func NewSpreadOpportunity(
	buyExchange, sellExchange, product string,
	buyPrice, sellPrice, gross, net, volume decimal.Decimal,
	metadata map[string]string,
) SpreadOpportunity {
	return SpreadOpportunity{
		ID:              uuid.NewString(),
		BuyExchange:     buyExchange,
		SellExchange:    sellExchange,
		Product:         product,
		BestBuyPrice:    buyPrice,
		BestSellPrice:   sellPrice,
		GrossSpread:     gross,
		NetSpread:       net,
		AvailableVolume: volume,
		Metadata:        metadata,
	}
}
