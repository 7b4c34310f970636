package cursor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/k1networth/orderflow/internal/shared/errs"
	"github.com/k1networth/orderflow/internal/stream"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cursors (
	consumer TEXT NOT NULL,
	topic TEXT NOT NULL,
	last_id TEXT NOT NULL,
	updated_at_utc_ns INTEGER NOT NULL,
	PRIMARY KEY (consumer, topic)
);
`

// SQLiteStore keeps positions in a local file next to the worker.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir cursor dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.E(errs.ErrPersistence, "cursor.open", err)
	}
	// One writer; keeps modernc from handing out a second connection mid-write.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA busy_timeout=5000;",
		sqliteSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, errs.E(errs.ErrPersistence, "cursor.init", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, consumer, topic string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_id FROM cursors WHERE consumer = ? AND topic = ?`, consumer, topic,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return stream.Origin, nil
	}
	if err != nil {
		return "", errs.E(errs.ErrPersistence, "cursor.load", err)
	}
	return id, nil
}

func (s *SQLiteStore) Save(ctx context.Context, consumer, topic, id string) error {
	const q = `
INSERT INTO cursors (consumer, topic, last_id, updated_at_utc_ns)
VALUES (?, ?, ?, ?)
ON CONFLICT (consumer, topic) DO UPDATE
SET last_id = excluded.last_id,
    updated_at_utc_ns = excluded.updated_at_utc_ns;
`
	if _, err := s.db.ExecContext(ctx, q, consumer, topic, id, time.Now().UTC().UnixNano()); err != nil {
		return errs.E(errs.ErrPersistence, "cursor.save", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
