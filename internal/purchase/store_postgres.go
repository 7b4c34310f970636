package purchase

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

func (t pgTx) InsertSale(ctx context.Context, s Sale) (int64, error) {
	const q = `
INSERT INTO vendas (data, cliente_id, vendedor_id, tipo_compra, produto_id, quantidade, preco, tipo_pagamento)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id;
`
	var id int64
	err := t.tx.QueryRowContext(ctx, q,
		s.Data, s.ClienteID, s.VendedorID, s.TipoCompra, s.ProdutoID, s.Quantidade, s.Preco, s.TipoPagamento,
	).Scan(&id)
	if err != nil {
		return 0, db.Wrap("purchase.insert_sale", err)
	}
	return id, nil
}

func (t pgTx) InsertCommission(ctx context.Context, c Commission) error {
	const q = `
INSERT INTO comissoes (venda_id, vendedor_id, data_pagamento, valor, status)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := t.tx.ExecContext(ctx, q, c.VendaID, c.VendedorID, c.DataPagamento, c.Valor, c.Status)
	return db.Wrap("purchase.insert_commission", err)
}

func (t pgTx) InsertRoyaltyGuide(ctx context.Context, g RoyaltyGuide) error {
	const q = `
INSERT INTO guias_royalty (venda_id, data_geracao, status, valor)
VALUES ($1, $2, $3, $4);
`
	_, err := t.tx.ExecContext(ctx, q, g.VendaID, g.DataGeracao, g.Status, g.Valor)
	return db.Wrap("purchase.insert_royalty_guide", err)
}

func (t pgTx) InsertShipmentGuide(ctx context.Context, g ShipmentGuide) error {
	const q = `
INSERT INTO guias_remessa (venda_id, cliente_id, data_geracao, status, data_prevista_entrega)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := t.tx.ExecContext(ctx, q, g.VendaID, g.ClienteID, g.DataGeracao, g.Status, g.DataPrevistaEntrega)
	return db.Wrap("purchase.insert_shipment_guide", err)
}
