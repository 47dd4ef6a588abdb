// Package domain contains alert rules and the alert record for the alert context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	spreadDomain "github.com/fd1az/spread-monitor/business/spread/domain"
)

// AlertRule holds the dispatch thresholds. Replaced wholesale on reload,
// never mutated in place.
type AlertRule struct {
	MinNetSpread decimal.Decimal
	MinVolume    decimal.Decimal
	Cooldown     time.Duration
}

// DefaultAlertRule returns the thresholds used when no rules file is present.
func DefaultAlertRule() AlertRule {
	return AlertRule{
		MinNetSpread: decimal.NewFromInt(1000),
		MinVolume:    decimal.NewFromFloat(0.01),
		Cooldown:     180 * time.Second,
	}
}

// CooldownOrDefault returns the configured cooldown, or 60s for zero-value
// rules built without going through config.
func (r AlertRule) CooldownOrDefault() time.Duration {
	if r.Cooldown <= 0 {
		return 60 * time.Second
	}
	return r.Cooldown
}

// OpportunityAlert is a spread opportunity stamped with the time it was
// recorded, the unit handed to the router.
type OpportunityAlert struct {
	Opportunity spreadDomain.SpreadOpportunity
	RecordedAt  string
}

// NewOpportunityAlert stamps an opportunity with an RFC3339 UTC timestamp.
func NewOpportunityAlert(opp spreadDomain.SpreadOpportunity, now time.Time) OpportunityAlert {
	return OpportunityAlert{
		Opportunity: opp,
		RecordedAt:  now.UTC().Format(time.RFC3339),
	}
}

// DedupKey identifies one cooldown bucket. Direction-sensitive: buy->sell and
// sell->buy are distinct keys.
func (a OpportunityAlert) DedupKey() string {
	return a.Opportunity.Product + ":" + a.Opportunity.BuyExchange + "->" + a.Opportunity.SellExchange
}
