package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alertDomain "github.com/fd1az/spread-monitor/business/alert/domain"
	monitorApp "github.com/fd1az/spread-monitor/business/monitor/app"
	monitorDomain "github.com/fd1az/spread-monitor/business/monitor/domain"
	"github.com/fd1az/spread-monitor/business/monitor/infra/storage"
	spreadDomain "github.com/fd1az/spread-monitor/business/spread/domain"
	"github.com/fd1az/spread-monitor/internal/logger"
)

type staticConfigProvider struct {
	cfg monitorApp.RuntimeConfig
}

func (s *staticConfigProvider) Current() monitorApp.RuntimeConfig { return s.cfg }

func (s *staticConfigProvider) Reload(ctx context.Context) (monitorApp.RuntimeConfig, error) {
	return s.cfg, nil
}

func newTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()

	store, err := storage.NewJSONLStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	configs := &staticConfigProvider{cfg: monitorApp.RuntimeConfig{
		AlertRule: alertDomain.AlertRule{
			MinNetSpread: decimal.NewFromInt(25000),
			MinVolume:    decimal.NewFromFloat(0.01),
			Cooldown:     60 * time.Second,
		},
		FeeProfiles: map[string]spreadDomain.FeeProfile{
			"bitFlyer": {
				TakerPercent:  decimal.NewFromFloat(0.0003),
				WithdrawalFee: decimal.NewFromInt(100),
			},
		},
	}}

	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	return NewServer(store, configs, 0, log), store
}

func seedOpportunity(t *testing.T, store storage.Store, buy, sell string, net float64) {
	t.Helper()
	require.NoError(t, store.Persist(context.Background(), monitorDomain.SnapshotRecord{
		Exchange:   buy + "->" + sell,
		Product:    "BTC_JPY",
		Kind:       monitorDomain.KindOpportunity,
		RecordedAt: "2024-01-01T00:00:00Z",
		Payload: map[string]any{
			"buy_exchange":     buy,
			"sell_exchange":    sell,
			"best_buy_price":   5001500.0,
			"best_sell_price":  5030000.0,
			"gross_spread":     net + 1000,
			"net_spread":       net,
			"available_volume": 0.03,
		},
	}))
}

func seedAlert(t *testing.T, store storage.Store, buy, sell string, net float64, recordedAt string) {
	t.Helper()
	require.NoError(t, store.Persist(context.Background(), monitorDomain.SnapshotRecord{
		Exchange:   buy + "->" + sell,
		Product:    "BTC_JPY",
		Kind:       monitorDomain.KindAlert,
		RecordedAt: recordedAt,
		Payload: map[string]any{
			"buy_exchange":     buy,
			"sell_exchange":    sell,
			"net_spread":       net,
			"gross_spread":     net + 1000,
			"available_volume": 0.03,
		},
	}))
}

func getList(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, []map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body []map[string]any
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func getObject(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestServer_OpportunitiesSortedByNetDesc(t *testing.T) {
	server, store := newTestServer(t)

	seedOpportunity(t, store, "bitFlyer", "Coincheck", 10000)
	seedOpportunity(t, store, "bitFlyer", "bitbank", 30000)
	seedOpportunity(t, store, "Coincheck", "bitbank", 20000)

	rec, body := getList(t, server.Handler(), "/api/v1/opportunities")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Len(t, body, 3)
	assert.Equal(t, 30000.0, body[0]["net_spread"])
	assert.Equal(t, 20000.0, body[1]["net_spread"])
	assert.Equal(t, 10000.0, body[2]["net_spread"])
}

func TestServer_OpportunitiesFilters(t *testing.T) {
	server, store := newTestServer(t)

	seedOpportunity(t, store, "bitFlyer", "Coincheck", 10000)
	seedOpportunity(t, store, "bitFlyer", "bitbank", 30000)
	seedOpportunity(t, store, "Coincheck", "bitbank", 20000)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"min_net_spread", "?min_net_spread=15000", 2},
		{"min_volume_passes_all", "?min_volume=0.01", 3},
		{"min_volume_excludes_all", "?min_volume=1", 0},
		{"buy_exchange", "?buy_exchange=bitFlyer", 2},
		{"sell_exchange", "?sell_exchange=bitbank", 2},
		{"combined", "?min_net_spread=15000&buy_exchange=bitFlyer", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := getList(t, server.Handler(), "/api/v1/opportunities"+tt.query)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Len(t, body, tt.want)
		})
	}
}

func TestServer_OpportunitiesInvalidFilter(t *testing.T) {
	server, _ := newTestServer(t)

	rec, _ := getObject(t, server.Handler(), "/api/v1/opportunities?min_net_spread=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_AlertsNewestFirstWithLimit(t *testing.T) {
	server, store := newTestServer(t)

	for i := 0; i < 5; i++ {
		seedAlert(t, store, "bitFlyer", "Coincheck", 26000,
			fmt.Sprintf("2024-01-01T00:00:%02dZ", i))
	}

	rec, body := getList(t, server.Handler(), "/api/v1/alerts?limit=2")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body, 2)
	assert.Equal(t, "2024-01-01T00:00:04Z", body[0]["recorded_at"])
	assert.Equal(t, "2024-01-01T00:00:03Z", body[1]["recorded_at"])
}

func TestServer_AlertsFilters(t *testing.T) {
	server, store := newTestServer(t)

	seedAlert(t, store, "bitFlyer", "Coincheck", 26000, "2024-01-01T00:00:00Z")
	seedAlert(t, store, "Coincheck", "bitbank", 50000, "2024-01-01T00:01:00Z")

	rec, body := getList(t, server.Handler(), "/api/v1/alerts?min_net_spread=40000")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body, 1)
	assert.Equal(t, "Coincheck", body[0]["buy_exchange"])

	rec, body = getList(t, server.Handler(), "/api/v1/alerts?sell_exchange=Coincheck")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body, 1)

	rec, _ = getObject(t, server.Handler(), "/api/v1/alerts?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_AlertsEmpty(t *testing.T) {
	server, _ := newTestServer(t)

	rec, body := getList(t, server.Handler(), "/api/v1/alerts")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, body)
	assert.Empty(t, body)
}

func TestServer_Config(t *testing.T) {
	server, _ := newTestServer(t)

	rec, body := getObject(t, server.Handler(), "/api/v1/config")

	assert.Equal(t, http.StatusOK, rec.Code)

	rule, ok := body["alert_rule"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 25000.0, rule["min_net_spread"])
	assert.Equal(t, 0.01, rule["min_volume"])
	assert.Equal(t, float64(60), rule["cooldown_seconds"])

	fees, ok := body["fees"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fees, "bitFlyer")
}

func TestServer_Index(t *testing.T) {
	server, _ := newTestServer(t)

	rec, body := getObject(t, server.Handler(), "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	endpoints, ok := body["endpoints"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/api/v1/opportunities", endpoints["opportunities"])
}

func TestServer_Health(t *testing.T) {
	server, _ := newTestServer(t)

	rec, body := getObject(t, server.Handler(), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestServer_MethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/opportunities", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
