// Package app contains the spread evaluation service for the spread context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	marketDomain "github.com/fd1az/spread-monitor/business/marketdata/domain"
	"github.com/fd1az/spread-monitor/business/spread/domain"
	"github.com/fd1az/spread-monitor/internal/telemetry"
)

// Evaluation outcome tags reported to telemetry.
const (
	OutcomeSkipProduct     = "skip_product"
	OutcomeSkipLevels      = "skip_levels"
	OutcomeSkipVolumePrice = "skip_volume_price"
	OutcomeSkipNoProfit    = "skip_no_profit"
	OutcomePositive        = "positive"
)

var one = decimal.NewFromInt(1)

// Calculator evaluates directed buy/sell exchange pairs for fee-adjusted
// profitability. Rejections are expected outcomes, not errors.
type Calculator struct {
	fees     *domain.FeeModel
	recorder telemetry.Recorder
}

// NewCalculator creates a Calculator using the given fee model.
func NewCalculator(fees *domain.FeeModel, recorder telemetry.Recorder) *Calculator {
	return &Calculator{
		fees:     fees,
		recorder: recorder,
	}
}

// SetFeeModel replaces the fee model wholesale, used on config reload.
func (c *Calculator) SetFeeModel(fees *domain.FeeModel) {
	c.fees = fees
}

// Evaluate computes a fee-adjusted opportunity for buying on one exchange and
// selling on another, or returns nil when the pair is not profitable.
//
// Buy side pays its taker fee on entry, sell side pays its taker fee on exit,
// both sides pay a flat withdrawal fee once. Comparing gross spreads alone
// systematically overstates profitability.
func (c *Calculator) Evaluate(
	ctx context.Context,
	buy marketDomain.MarketSnapshot,
	sell marketDomain.MarketSnapshot,
) *domain.SpreadOpportunity {
	if buy.Ticker.Product != sell.Ticker.Product {
		c.recorder.SpreadEvaluation(ctx, OutcomeSkipProduct)
		return nil
	}

	buyLevel, buyOK := buy.OrderBook.BestAsk()
	sellLevel, sellOK := sell.OrderBook.BestBid()
	if !buyOK || !sellOK {
		c.recorder.SpreadEvaluation(ctx, OutcomeSkipLevels)
		return nil
	}

	volume := decimal.Min(buyLevel.Size, sellLevel.Size)
	if !volume.IsPositive() || sellLevel.Price.LessThanOrEqual(buyLevel.Price) {
		c.recorder.SpreadEvaluation(ctx, OutcomeSkipVolumePrice)
		return nil
	}

	buyFee := c.fees.ProfileFor(buy.Ticker.Exchange)
	sellFee := c.fees.ProfileFor(sell.Ticker.Exchange)

	buyPrice := buyLevel.Price
	sellPrice := sellLevel.Price

	gross := sellPrice.Sub(buyPrice)
	buyCost := buyPrice.Mul(buyFee.TakerPercent)
	sellGain := sellPrice.Mul(one.Sub(sellFee.TakerPercent))
	net := sellGain.
		Sub(buyPrice.Add(buyCost)).
		Sub(buyFee.WithdrawalFee).
		Sub(sellFee.WithdrawalFee)

	if !net.IsPositive() {
		c.recorder.SpreadEvaluation(ctx, OutcomeSkipNoProfit)
		return nil
	}

	c.recorder.SpreadEvaluation(ctx, OutcomePositive)
	c.recorder.SpreadOpportunity(ctx, buy.Ticker.Exchange, sell.Ticker.Exchange)

	// Fees used are carried in metadata so a net figure can always be
	// reconstructed after the fact.
	metadata := map[string]string{
		"buy_taker_percent":   buyFee.TakerPercent.String(),
		"buy_withdrawal_fee":  buyFee.WithdrawalFee.String(),
		"sell_taker_percent":  sellFee.TakerPercent.String(),
		"sell_withdrawal_fee": sellFee.WithdrawalFee.String(),
	}

	opp := domain.NewSpreadOpportunity(
		buy.Ticker.Exchange,
		sell.Ticker.Exchange,
		buy.Ticker.Product,
		buyPrice,
		sellPrice,
		gross,
		net,
		volume,
		metadata,
	)
	return &opp
}
