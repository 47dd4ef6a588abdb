package infra

import (
	"context"
	"fmt"

	"github.com/fd1az/spread-monitor/business/alert/domain"
	"github.com/fd1az/spread-monitor/internal/logger"
)

// ChatChannel formats a structured chat message for a named room. Delivery is
// a stub: the message is logged, no network call is made.
type ChatChannel struct {
	room string
	log  logger.LoggerInterface
}

// NewChatChannel creates a chat channel targeting the given room.
func NewChatChannel(room string, log logger.LoggerInterface) *ChatChannel {
	if room == "" {
		room = "#alerts"
	}
	return &ChatChannel{room: room, log: log}
}

// Name identifies the channel.
func (c *ChatChannel) Name() string { return "chat" }

// Send formats and records one chat message. Always succeeds.
func (c *ChatChannel) Send(ctx context.Context, alert domain.OpportunityAlert) error {
	opp := alert.Opportunity
	message := fmt.Sprintf(":chart_with_upwards_trend: %s | buy %s / sell %s | net %s (gross %s) | vol %s",
		opp.Product, opp.BuyExchange, opp.SellExchange,
		opp.NetSpread.String(), opp.GrossSpread.String(), opp.AvailableVolume.String())

	c.log.Info(ctx, "chat alert", "room", c.room, "message", message)
	return nil
}
