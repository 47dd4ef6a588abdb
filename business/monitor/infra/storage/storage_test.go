package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/spread-monitor/business/monitor/domain"
)

func sampleRecord(i int) domain.SnapshotRecord {
	return domain.SnapshotRecord{
		Exchange:   "bitFlyer",
		Product:    "BTC_JPY",
		Kind:       domain.KindTicker,
		RecordedAt: fmt.Sprintf("2024-01-01T00:00:%02dZ", i),
		Payload:    map[string]any{"bid": 5000000.0, "seq": float64(i)},
		Metadata:   map[string]string{"source": "test"},
	}
}

// Both backends must satisfy the same contract.
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Persist(ctx, sampleRecord(i)))
	}
	require.NoError(t, store.Persist(ctx, domain.SnapshotRecord{
		Exchange:   "bitFlyer->Coincheck",
		Product:    "BTC_JPY",
		Kind:       domain.KindOpportunity,
		RecordedAt: "2024-01-01T00:01:00Z",
		Payload:    map[string]any{"net_spread": 23120.0},
	}))

	t.Run("list_by_kind_filters", func(t *testing.T) {
		tickers, err := store.ListByKind(ctx, domain.KindTicker, 0)
		require.NoError(t, err)
		assert.Len(t, tickers, 5)

		opps, err := store.ListByKind(ctx, domain.KindOpportunity, 0)
		require.NoError(t, err)
		require.Len(t, opps, 1)
		assert.Equal(t, 23120.0, opps[0].Payload["net_spread"])
	})

	t.Run("newest_first_with_limit", func(t *testing.T) {
		tickers, err := store.ListByKind(ctx, domain.KindTicker, 2)
		require.NoError(t, err)
		require.Len(t, tickers, 2)
		assert.Equal(t, float64(4), tickers[0].Payload["seq"])
		assert.Equal(t, float64(3), tickers[1].Payload["seq"])
	})

	t.Run("round_trip_preserves_fields", func(t *testing.T) {
		tickers, err := store.ListByKind(ctx, domain.KindTicker, 1)
		require.NoError(t, err)
		require.Len(t, tickers, 1)

		got := tickers[0]
		assert.Equal(t, "bitFlyer", got.Exchange)
		assert.Equal(t, "BTC_JPY", got.Product)
		assert.Equal(t, "test", got.Metadata["source"])
		assert.Equal(t, 5000000.0, got.Payload["bid"])
	})

	t.Run("unknown_kind_empty", func(t *testing.T) {
		records, err := store.ListByKind(ctx, "no_such_kind", 0)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestJSONLStore(t *testing.T) {
	store, err := NewJSONLStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	runStoreContract(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	defer store.Close()

	runStoreContract(t, store)
}

func TestJSONLStore_FilePerKind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONLStore(dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Persist(context.Background(), sampleRecord(0)))

	assert.FileExists(t, filepath.Join(dir, "snapshot-ticker.jsonl"))
}
