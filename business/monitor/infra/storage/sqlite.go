package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "modernc.org/sqlite"

	"github.com/fd1az/spread-monitor/business/monitor/domain"
	"github.com/fd1az/spread-monitor/internal/apperror"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	exchange    TEXT NOT NULL,
	product     TEXT NOT NULL,
	kind        TEXT NOT NULL,
	recorded_at TEXT NOT NULL,
	payload     TEXT NOT NULL,
	metadata    TEXT
);
CREATE INDEX IF NOT EXISTS idx_snapshots_kind ON snapshots(kind, id);
`

// SQLiteStore appends records to a single snapshots table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and creates if needed) the database at dsn.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperror.New(apperror.CodeStorageUnavailable,
			apperror.WithCause(err),
			apperror.WithContext("dsn", dsn))
	}

	// Single writer; avoids SQLITE_BUSY from the concurrent query API reader.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperror.New(apperror.CodeStorageUnavailable,
			apperror.WithCause(err),
			apperror.WithContext("dsn", dsn))
	}

	return &SQLiteStore{db: db}, nil
}

// Persist inserts one record.
func (s *SQLiteStore) Persist(ctx context.Context, record domain.SnapshotRecord) error {
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return apperror.New(apperror.CodePersistenceFailed, apperror.WithCause(err))
	}
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return apperror.New(apperror.CodePersistenceFailed, apperror.WithCause(err))
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (exchange, product, kind, recorded_at, payload, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.Exchange, record.Product, record.Kind, record.RecordedAt,
		string(payload), string(metadata),
	)
	if err != nil {
		return apperror.New(apperror.CodePersistenceFailed, apperror.WithCause(err))
	}
	return nil
}

// ListByKind returns up to limit records of one kind, newest first.
func (s *SQLiteStore) ListByKind(ctx context.Context, kind string, limit int) ([]domain.SnapshotRecord, error) {
	query := `SELECT exchange, product, kind, recorded_at, payload, metadata
		FROM snapshots WHERE kind = ? ORDER BY id DESC`
	args := []any{kind}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.New(apperror.CodeStorageUnavailable, apperror.WithCause(err))
	}
	defer rows.Close()

	var records []domain.SnapshotRecord
	for rows.Next() {
		var record domain.SnapshotRecord
		var payload, metadata sql.NullString

		if err := rows.Scan(&record.Exchange, &record.Product, &record.Kind,
			&record.RecordedAt, &payload, &metadata); err != nil {
			return nil, apperror.New(apperror.CodeStorageUnavailable, apperror.WithCause(err))
		}

		if payload.Valid && payload.String != "" {
			if err := json.Unmarshal([]byte(payload.String), &record.Payload); err != nil {
				continue
			}
		}
		if metadata.Valid && metadata.String != "" && metadata.String != "null" {
			if err := json.Unmarshal([]byte(metadata.String), &record.Metadata); err != nil {
				continue
			}
		}

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.New(apperror.CodeStorageUnavailable, apperror.WithCause(err))
	}

	return records, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
