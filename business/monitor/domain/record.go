// Package domain contains the persistence record shape for the monitor context.
package domain

// Snapshot record kinds.
const (
	KindTicker      = "ticker"
	KindOrderBook   = "order_book"
	KindOpportunity = "spread_opportunity"
	KindAlert       = "alert"
)

// SnapshotRecord is one append-only persistence entry. Payload holds the
// kind-specific fields already reduced to JSON-friendly values.
type SnapshotRecord struct {
	Exchange   string            `json:"exchange"`
	Product    string            `json:"product"`
	Kind       string            `json:"kind"`
	RecordedAt string            `json:"recorded_at"`
	Payload    map[string]any    `json:"payload"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
