package infra

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/fd1az/spread-monitor/business/alert/domain"
	"github.com/fd1az/spread-monitor/internal/apperror"
	"github.com/fd1az/spread-monitor/internal/httpclient"
	"github.com/fd1az/spread-monitor/internal/logger"
)

const webhookEventType = "spread_opportunity"

// WebhookConfig holds delivery configuration for the generic webhook channel.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
}

// WebhookChannel POSTs the alert as a JSON object to a configured endpoint.
// Success is any status in [200,300); anything else is a delivery error.
type WebhookChannel struct {
	client httpclient.Client
	url    string
	log    logger.LoggerInterface
}

// webhookPayload is the outbound wire format. Field names are fixed.
type webhookPayload struct {
	EventType       string            `json:"event_type"`
	BuyExchange     string            `json:"buy_exchange"`
	SellExchange    string            `json:"sell_exchange"`
	Product         string            `json:"product"`
	NetSpread       float64           `json:"net_spread"`
	GrossSpread     float64           `json:"gross_spread"`
	AvailableVolume float64           `json:"available_volume"`
	RecordedAt      string            `json:"recorded_at"`
	Metadata        map[string]string `json:"metadata"`
}

// NewWebhookChannel creates a webhook channel. Caller-supplied headers add to
// the JSON content type, they cannot replace it.
func NewWebhookChannel(cfg WebhookConfig, log logger.LoggerInterface) (*WebhookChannel, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	headers := map[string]string{}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	headers["Content-Type"] = "application/json"

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("alert-webhook"),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTracer(otel.Tracer("alert.webhook")),
		httpclient.WithHeaders(headers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &WebhookChannel{
		client: client,
		url:    cfg.URL,
		log:    log,
	}, nil
}

// Name identifies the channel.
func (c *WebhookChannel) Name() string { return "webhook" }

// Send serializes and POSTs one alert.
func (c *WebhookChannel) Send(ctx context.Context, alert domain.OpportunityAlert) error {
	opp := alert.Opportunity

	metadata := opp.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	payload := webhookPayload{
		EventType:       webhookEventType,
		BuyExchange:     opp.BuyExchange,
		SellExchange:    opp.SellExchange,
		Product:         opp.Product,
		NetSpread:       opp.NetSpread.InexactFloat64(),
		GrossSpread:     opp.GrossSpread.InexactFloat64(),
		AvailableVolume: opp.AvailableVolume.InexactFloat64(),
		RecordedAt:      alert.RecordedAt,
		Metadata:        metadata,
	}

	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("channel", "webhook")),
	).
		SetBody(payload).
		Post(ctx, c.url)

	if err != nil {
		return apperror.New(apperror.CodeDeliveryFailed,
			apperror.WithCause(err),
			apperror.WithContext("url", c.url))
	}
	// Success is strictly [200,300); redirects and other 3xx count as rejections.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperror.New(apperror.CodeDeliveryRejected,
			apperror.WithContext("status", fmt.Sprintf("HTTP %d", resp.StatusCode)),
			apperror.WithContext("url", c.url))
	}

	return nil
}
