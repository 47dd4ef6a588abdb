package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/spread-monitor/business/alert/domain"
	spreadDomain "github.com/fd1az/spread-monitor/business/spread/domain"
	"github.com/fd1az/spread-monitor/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func testAlert() domain.OpportunityAlert {
	opp := spreadDomain.NewSpreadOpportunity(
		"bitFlyer", "Coincheck", "BTC_JPY",
		decimal.RequireFromString("5000000"),
		decimal.RequireFromString("5030000"),
		decimal.RequireFromString("30000"),
		decimal.RequireFromString("23120"),
		decimal.RequireFromString("0.03"),
		map[string]string{"buy_taker_percent": "0.0003"},
	)
	return domain.NewOpportunityAlert(opp, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
}

func TestWebhookChannel_Send(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	var gotCustomHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotContentType = r.Header.Get("Content-Type")
		gotCustomHeader = r.Header.Get("X-Token")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch, err := NewWebhookChannel(WebhookConfig{
		URL:     srv.URL,
		Headers: map[string]string{"X-Token": "secret"},
	}, testLogger())
	require.NoError(t, err)

	require.NoError(t, ch.Send(context.Background(), testAlert()))

	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "secret", gotCustomHeader)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &payload))

	assert.Equal(t, "spread_opportunity", payload["event_type"])
	assert.Equal(t, "bitFlyer", payload["buy_exchange"])
	assert.Equal(t, "Coincheck", payload["sell_exchange"])
	assert.Equal(t, "BTC_JPY", payload["product"])
	assert.Equal(t, 23120.0, payload["net_spread"])
	assert.Equal(t, 30000.0, payload["gross_spread"])
	assert.Equal(t, 0.03, payload["available_volume"])
	assert.Equal(t, "2024-01-01T12:00:00Z", payload["recorded_at"])
	assert.NotNil(t, payload["metadata"])
}

func TestWebhookChannel_Send_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "200_ok", status: http.StatusOK, wantErr: false},
		{name: "202_accepted", status: http.StatusAccepted, wantErr: false},
		{name: "299_upper_edge", status: 299, wantErr: false},
		{name: "300_multiple_choices", status: http.StatusMultipleChoices, wantErr: true},
		{name: "304_not_modified", status: http.StatusNotModified, wantErr: true},
		{name: "400_bad_request", status: http.StatusBadRequest, wantErr: true},
		{name: "502_bad_gateway", status: http.StatusBadGateway, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			ch, err := NewWebhookChannel(WebhookConfig{URL: srv.URL}, testLogger())
			require.NoError(t, err)

			err = ch.Send(context.Background(), testAlert())
			if tt.wantErr {
				assert.Error(t, err, "status %d must be a delivery error", tt.status)
			} else {
				assert.NoError(t, err, "status %d must be a successful delivery", tt.status)
			}
		})
	}
}

func TestWebhookChannel_ContentTypeCannotBeReplaced(t *testing.T) {
	var gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch, err := NewWebhookChannel(WebhookConfig{
		URL:     srv.URL,
		Headers: map[string]string{"Content-Type": "text/plain"},
	}, testLogger())
	require.NoError(t, err)

	require.NoError(t, ch.Send(context.Background(), testAlert()))
	assert.Equal(t, "application/json", gotContentType)
}

func TestConsoleChannel_Send(t *testing.T) {
	var buf bytes.Buffer
	ch := NewConsoleChannel("[ALERT]", &buf)

	require.NoError(t, ch.Send(context.Background(), testAlert()))

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "[ALERT]"))
	assert.Contains(t, line, "bitFlyer")
	assert.Contains(t, line, "Coincheck")
	assert.Contains(t, line, "23120")
}

func TestChatChannel_Send_AlwaysSucceeds(t *testing.T) {
	ch := NewChatChannel("#alerts", testLogger())
	assert.NoError(t, ch.Send(context.Background(), testAlert()))
}
