// Package storage provides the append-only snapshot stores.
package storage

import (
	"context"

	"github.com/fd1az/spread-monitor/business/monitor/domain"
)

// Store is an append-only snapshot log with kind-scoped read-back for the
// query API. Writers call Persist once per record.
type Store interface {
	Persist(ctx context.Context, record domain.SnapshotRecord) error

	// ListByKind returns up to limit records of one kind, newest first.
	// limit <= 0 means no limit.
	ListByKind(ctx context.Context, kind string, limit int) ([]domain.SnapshotRecord, error)

	Close() error
}
