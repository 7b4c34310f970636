// Package stream wraps an append-only, per-topic log with consumer-side cursors.
//
// Entries are immutable once appended. Reads are long-polls: they return the entries
// strictly after a cursor, or nothing once the block timeout elapses. Deleting an entry is
// best-effort cleanup and is idempotent.
package stream

import (
	"context"
	"time"
)

// Origin is the cursor that precedes every entry of a topic.
const Origin = "0-0"

type Entry struct {
	ID     string
	Fields map[string]string
}

type Transport interface {
	// Append adds an entry and returns its log-assigned id. It never waits on consumers.
	Append(ctx context.Context, topic string, fields map[string]string) (string, error)
	// Read returns up to count entries with id > afterID, waiting at most block for one to appear.
	// An empty result is not an error.
	Read(ctx context.Context, topic, afterID string, block time.Duration, count int64) ([]Entry, error)
	// Delete removes one entry and reports whether it existed.
	Delete(ctx context.Context, topic, id string) (bool, error)
	// Tail returns the id of the newest entry, or Origin for an empty topic.
	Tail(ctx context.Context, topic string) (string, error)
	Close() error
}

// Trimmer is implemented by transports that can drop entries by age.
type Trimmer interface {
	Trim(ctx context.Context, topic string, olderThan time.Duration) (int64, error)
}
