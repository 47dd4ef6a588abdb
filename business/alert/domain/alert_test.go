package domain

import (
	"testing"
	"time"

	spreadDomain "github.com/fd1az/spread-monitor/business/spread/domain"
)

func TestDedupKey_DirectionSensitive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	forward := NewOpportunityAlert(spreadDomain.SpreadOpportunity{
		Product:      "BTC_JPY",
		BuyExchange:  "bitFlyer",
		SellExchange: "bitbank",
	}, now)
	reverse := NewOpportunityAlert(spreadDomain.SpreadOpportunity{
		Product:      "BTC_JPY",
		BuyExchange:  "bitbank",
		SellExchange: "bitFlyer",
	}, now)

	if forward.DedupKey() == reverse.DedupKey() {
		t.Errorf("forward and reverse share dedup key %q", forward.DedupKey())
	}
	if got, want := forward.DedupKey(), "BTC_JPY:bitFlyer->bitbank"; got != want {
		t.Errorf("DedupKey() = %q, want %q", got, want)
	}
	if got, want := forward.RecordedAt, "2025-06-01T12:00:00Z"; got != want {
		t.Errorf("RecordedAt = %q, want %q", got, want)
	}
}

func TestCooldownOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		cooldown time.Duration
		want     time.Duration
	}{
		{name: "configured", cooldown: 180 * time.Second, want: 180 * time.Second},
		{name: "zero_falls_back", cooldown: 0, want: 60 * time.Second},
		{name: "negative_falls_back", cooldown: -time.Second, want: 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := AlertRule{Cooldown: tt.cooldown}
			if got := rule.CooldownOrDefault(); got != tt.want {
				t.Errorf("CooldownOrDefault() = %v, want %v", got, tt.want)
			}
		})
	}
}
