// Package infra contains the notification channel implementations for the alert context.
package infra

import (
	"context"
	"fmt"
	"io"

	"github.com/fd1az/spread-monitor/business/alert/domain"
)

// ConsoleChannel writes a human-readable alert line to a writer. It always
// succeeds.
type ConsoleChannel struct {
	prefix string
	out    io.Writer
}

// NewConsoleChannel creates a console channel writing to out with the given
// line prefix.
func NewConsoleChannel(prefix string, out io.Writer) *ConsoleChannel {
	if prefix == "" {
		prefix = "[ALERT]"
	}
	return &ConsoleChannel{prefix: prefix, out: out}
}

// Name identifies the channel.
func (c *ConsoleChannel) Name() string { return "console" }

// Send writes one formatted alert line.
func (c *ConsoleChannel) Send(_ context.Context, alert domain.OpportunityAlert) error {
	opp := alert.Opportunity
	fmt.Fprintf(c.out, "%s %s buy %s -> sell %s net=%s gross=%s volume=%s at %s\n",
		c.prefix,
		opp.Product,
		opp.BuyExchange,
		opp.SellExchange,
		opp.NetSpread.String(),
		opp.GrossSpread.String(),
		opp.AvailableVolume.String(),
		alert.RecordedAt,
	)
	return nil
}
