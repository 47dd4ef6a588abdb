package bitbank

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/spread-monitor/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func TestClient_FetchTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/btc_jpy/ticker", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": 1,
			"data": {
				"sell": "5001000",
				"buy": "5000000",
				"last": "5000500",
				"vol": "321.0",
				"timestamp": 1700000000000
			}
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: srv.URL, Product: "BTC_JPY"}, testLogger())
	require.NoError(t, err)

	raw, err := client.FetchTicker(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ExchangeName, raw.Exchange)
	assert.Equal(t, "5000000", raw.Bid)
	assert.Equal(t, "5001000", raw.Ask)
	assert.Equal(t, float64(1700000000000), raw.Timestamp)
}

func TestClient_FetchTicker_APIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": 0, "data": {"code": 10000}}`))
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: srv.URL}, testLogger())
	require.NoError(t, err)

	_, err = client.FetchTicker(context.Background())
	assert.Error(t, err)
}

func TestClient_FetchOrderBook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/btc_jpy/depth", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": 1,
			"data": {
				"asks": [["5001000", "0.3"]],
				"bids": [["5000000", "0.5"], ["4999000", "0.8"]],
				"timestamp": 1700000000000
			}
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: srv.URL}, testLogger())
	require.NoError(t, err)

	raw, err := client.FetchOrderBook(context.Background())
	require.NoError(t, err)

	require.Len(t, raw.Asks, 1)
	require.Len(t, raw.Bids, 2)
	assert.Equal(t, "5000000", raw.Bids[0].Price)
}
