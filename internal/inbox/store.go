// Package inbox records which work items a worker has already answered, keyed by
// correlation id, so a redelivered item gets the stored response instead of a second run
// of its handler.
package inbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/k1networth/orderflow/internal/shared/db"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// storedResponse is the JSON shape of the response column.
type storedResponse struct {
	Status    bool              `json:"status"`
	Result    map[string]string `json:"result,omitempty"`
	ErrorCode string            `json:"error,omitempty"`
}

// StartProcessing ensures a row exists for the item and bumps its attempt count.
// When the item was already answered it returns the stored response and done=true.
func (s *Store) StartProcessing(ctx context.Context, domain protocol.Domain, correlationID string) (protocol.Response, bool, error) {
	const q = `
INSERT INTO processed_work_items (correlation_id, domain, status, attempts, updated_at)
VALUES ($1, $2, 'processing', 1, now())
ON CONFLICT (correlation_id) DO UPDATE
SET attempts = processed_work_items.attempts + 1,
    updated_at = now()
RETURNING status, response;
`
	var (
		status string
		raw    []byte
	)
	if err := s.db.QueryRowContext(ctx, q, correlationID, string(domain)).Scan(&status, &raw); err != nil {
		return protocol.Response{}, false, db.Wrap("inbox.start", err)
	}
	if status != "done" || len(raw) == 0 {
		return protocol.Response{}, false, nil
	}

	var sr storedResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return protocol.Response{}, false, db.Wrap("inbox.decode", err)
	}
	return protocol.Response{
		CorrelationID: correlationID,
		Status:        sr.Status,
		Result:        sr.Result,
		ErrorCode:     sr.ErrorCode,
	}, true, nil
}

// MarkDone stores the response that was published for the item.
func (s *Store) MarkDone(ctx context.Context, resp protocol.Response) error {
	raw, err := json.Marshal(storedResponse{Status: resp.Status, Result: resp.Result, ErrorCode: resp.ErrorCode})
	if err != nil {
		return db.Wrap("inbox.encode", err)
	}
	const q = `
UPDATE processed_work_items
SET status = 'done', response = $2, processed_at = now(), last_error = NULL, updated_at = now()
WHERE correlation_id = $1;
`
	res, err := s.db.ExecContext(ctx, q, resp.CorrelationID, raw)
	if err != nil {
		return db.Wrap("inbox.mark_done", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.Wrap("inbox.mark_done", sql.ErrNoRows)
	}
	return nil
}

// MarkFailed keeps the item retryable and records why the last attempt failed.
func (s *Store) MarkFailed(ctx context.Context, correlationID, errMsg string) error {
	const q = `
UPDATE processed_work_items
SET status = 'processing', last_error = $2, updated_at = now()
WHERE correlation_id = $1;
`
	_, err := s.db.ExecContext(ctx, q, correlationID, errMsg)
	return db.Wrap("inbox.mark_failed", err)
}

// Attempts reports how many times the item was started. Zero means unknown.
func (s *Store) Attempts(ctx context.Context, correlationID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT attempts FROM processed_work_items WHERE correlation_id = $1`, correlationID,
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, db.Wrap("inbox.attempts", err)
}
