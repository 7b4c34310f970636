package streaming

import (
	"context"
	"database/sql"
	"errors"

	"github.com/k1networth/orderflow/internal/shared/db"
	"github.com/k1networth/orderflow/internal/shared/errs"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindVideos(ctx context.Context, id string) ([]Video, error) {
	const q = `
SELECT id_streaming, nome, link
FROM streaming
WHERE id_streaming = $1
ORDER BY nome;
`
	rows, err := s.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, db.Wrap("streaming.find_videos", err)
	}
	defer rows.Close()

	var out []Video
	for rows.Next() {
		var v Video
		if err := rows.Scan(&v.IDStreaming, &v.Nome, &v.Link); err != nil {
			return nil, db.Wrap("streaming.find_videos", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap("streaming.find_videos", err)
	}
	if len(out) == 0 {
		return nil, errs.E(errs.ErrNotFound, "streaming.find_videos", errors.New("no video "+id))
	}
	return out, nil
}

func (s *PostgresStore) FindClient(ctx context.Context, cpf string) (Client, error) {
	const q = `
SELECT cpf, nome, email
FROM clientes
WHERE cpf = $1;
`
	var c Client
	if err := s.db.QueryRowContext(ctx, q, cpf).Scan(&c.CPF, &c.Nome, &c.Email); err != nil {
		return Client{}, db.Wrap("streaming.find_client", err)
	}
	return c, nil
}
