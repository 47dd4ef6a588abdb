package coincheck

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
		assert.Equal(t, "/api/ticker", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"last": 5000500,
			"bid": 5000000,
			"ask": 5001000,
			"volume": "123.45",
			"timestamp": 1700000000
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: srv.URL}, testLogger())
	require.NoError(t, err)

	raw, err := client.FetchTicker(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ExchangeName, raw.Exchange)
	assert.Equal(t, 5000000.0, raw.Bid)
	assert.Equal(t, 5001000.0, raw.Ask)
	assert.Equal(t, float64(1700000000), raw.Timestamp)
	assert.Equal(t, "123.45", raw.Volume)
}

func TestClient_FetchOrderBook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/order_books", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"asks": [["5001000", "0.3"], ["5002000", "1.0"]],
			"bids": [["5000000", "0.5"]]
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: srv.URL}, testLogger())
	require.NoError(t, err)

	raw, err := client.FetchOrderBook(context.Background())
	require.NoError(t, err)

	require.Len(t, raw.Asks, 2)
	require.Len(t, raw.Bids, 1)
	assert.Equal(t, "5001000", raw.Asks[0].Price)
	assert.Equal(t, "0.5", raw.Bids[0].Size)
}

func TestClient_FetchOrderBook_TruncatedPairSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"asks": [["5001000"]], "bids": [["5000000", "0.5"]]}`))
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: srv.URL}, testLogger())
	require.NoError(t, err)

	raw, err := client.FetchOrderBook(context.Background())
	require.NoError(t, err)

	assert.Empty(t, raw.Asks)
	assert.Len(t, raw.Bids, 1)
}
