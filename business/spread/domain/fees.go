// Package domain contains the fee and opportunity types for the spread context.
package domain

import (
	"github.com/shopspring/decimal"
)

// FeeProfile holds the taker fee percentage and flat withdrawal fee for one
// exchange. Immutable per evaluation.
type FeeProfile struct {
	TakerPercent  decimal.Decimal
	WithdrawalFee decimal.Decimal
	Metadata      map[string]string
}

// DefaultFeeProfile is the fallback used when an exchange has no explicit
// profile: 0.2% taker, no withdrawal fee.
func DefaultFeeProfile() FeeProfile {
	return FeeProfile{
		TakerPercent:  decimal.NewFromFloat(0.002),
		WithdrawalFee: decimal.Zero,
	}
}

// FeeModel maps exchange names to fee profiles with a default fallback.
type FeeModel struct {
	profiles map[string]FeeProfile
	fallback FeeProfile
}

// NewFeeModel creates a FeeModel from explicit per-exchange profiles.
func NewFeeModel(profiles map[string]FeeProfile) *FeeModel {
	copied := make(map[string]FeeProfile, len(profiles))
	for k, v := range profiles {
		copied[k] = v
	}
	return &FeeModel{
		profiles: copied,
		fallback: DefaultFeeProfile(),
	}
}

// DefaultFeeModel returns a FeeModel preloaded with the venues this system
// monitors out of the box.
func DefaultFeeModel() *FeeModel {
	return NewFeeModel(map[string]FeeProfile{
		"bitFlyer": {
			TakerPercent:  decimal.NewFromFloat(0.0003),
			WithdrawalFee: decimal.NewFromInt(100),
		},
		"Coincheck": {
			TakerPercent:  decimal.NewFromFloat(0.001),
			WithdrawalFee: decimal.NewFromInt(250),
		},
		"bitbank": {
			TakerPercent:  decimal.NewFromFloat(0.002),
			WithdrawalFee: decimal.NewFromInt(120),
		},
	})
}

// ProfileFor returns the configured profile for an exchange, or the default
// fallback. Never fails.
func (m *FeeModel) ProfileFor(exchange string) FeeProfile {
	if p, ok := m.profiles[exchange]; ok {
		return p
	}
	return m.fallback
}
