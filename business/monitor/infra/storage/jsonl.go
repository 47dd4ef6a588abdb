package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fd1az/spread-monitor/business/monitor/domain"
	"github.com/fd1az/spread-monitor/internal/apperror"
)

// JSONLStore appends records to one newline-delimited JSON file per kind,
// snapshot-<kind>.jsonl under the configured directory.
type JSONLStore struct {
	mu  sync.Mutex
	dir string
}

// NewJSONLStore creates the directory if needed and returns the store.
func NewJSONLStore(dir string) (*JSONLStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperror.New(apperror.CodeStorageUnavailable,
			apperror.WithCause(err),
			apperror.WithContext("dir", dir))
	}
	return &JSONLStore{dir: dir}, nil
}

func (s *JSONLStore) fileFor(kind string) string {
	return filepath.Join(s.dir, fmt.Sprintf("snapshot-%s.jsonl", kind))
}

// Persist appends one record as a JSON line.
func (s *JSONLStore) Persist(_ context.Context, record domain.SnapshotRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return apperror.New(apperror.CodePersistenceFailed, apperror.WithCause(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.fileFor(record.Kind), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return apperror.New(apperror.CodeStorageUnavailable, apperror.WithCause(err))
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return apperror.New(apperror.CodePersistenceFailed, apperror.WithCause(err))
	}
	return nil
}

// ListByKind returns up to limit records of one kind, newest first. A missing
// file means no records, not an error.
func (s *JSONLStore) ListByKind(_ context.Context, kind string, limit int) ([]domain.SnapshotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.fileFor(kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperror.New(apperror.CodeStorageUnavailable, apperror.WithCause(err))
	}
	defer f.Close()

	var records []domain.SnapshotRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var record domain.SnapshotRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			// A torn trailing line is skipped, not fatal.
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperror.New(apperror.CodeStorageUnavailable, apperror.WithCause(err))
	}

	// Newest first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Close is a no-op for the file-backed store.
func (s *JSONLStore) Close() error { return nil }
