package association

import (
	"context"
	"database/sql"

	"github.com/k1networth/orderflow/internal/shared/db"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(Tx) error) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(pgTx{tx: tx})
	})
}

type pgTx struct {
	tx *sql.Tx
}

func (t pgTx) Insert(ctx context.Context, m NewMembership) error {
	const q = `
INSERT INTO associacoes (cliente_id, vendedor_id, data_geracao, plano, ativo)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := t.tx.ExecContext(ctx, q, m.ClienteID, m.VendedorID, m.DataGeracao, m.Plano, m.Ativo)
	return db.Wrap("association.insert", err)
}

func (t pgTx) Find(ctx context.Context, cpf string) (Membership, error) {
	const q = `
SELECT a.cliente_id, COALESCE(c.nome, ''), COALESCE(c.email, ''), a.plano, a.ativo
FROM associacoes a
LEFT JOIN clientes c ON c.cpf = a.cliente_id
WHERE a.cliente_id = $1
FOR UPDATE OF a;
`
	var m Membership
	err := t.tx.QueryRowContext(ctx, q, cpf).Scan(&m.CPF, &m.Nome, &m.Email, &m.Plano, &m.Ativo)
	if err != nil {
		return Membership{}, db.Wrap("association.find", err)
	}
	return m, nil
}

func (t pgTx) UpdatePlan(ctx context.Context, cpf, plano string) error {
	const q = `
UPDATE associacoes
SET plano = $2, updated_at = now()
WHERE cliente_id = $1;
`
	_, err := t.tx.ExecContext(ctx, q, cpf, plano)
	return db.Wrap("association.update_plan", err)
}

func (t pgTx) Activate(ctx context.Context, cpf string) error {
	const q = `
UPDATE associacoes
SET ativo = true, updated_at = now()
WHERE cliente_id = $1;
`
	_, err := t.tx.ExecContext(ctx, q, cpf)
	return db.Wrap("association.activate", err)
}
