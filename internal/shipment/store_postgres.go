package shipment

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

// FindSale joins the sale with whichever guide it produced. Sales of products missing from
// the catalog fall back to the sale's own price, and are typed as books when a royalty
// guide exists.
func (s *PostgresStore) FindSale(ctx context.Context, codigoVenda int) (SaleRecord, error) {
	const q = `
SELECT vd.id,
       COALESCE(gr.id, gy.id, vd.id),
       COALESCE(gr.data_geracao, gy.data_geracao, vd.data),
       c.nome, c.endereco, c.telefone, c.cpf,
       vd.produto_id,
       COALESCE(p.descricao, ''),
       COALESCE(p.tipo, CASE WHEN gy.id IS NOT NULL THEN 'livro' ELSE '' END),
       vd.quantidade,
       COALESCE(p.valor_unitario, vd.preco / vd.quantidade)::float8,
       vd.preco::float8,
       vd.tipo_pagamento
FROM vendas vd
JOIN clientes c ON c.cpf = vd.cliente_id
LEFT JOIN produtos p ON p.id = vd.produto_id
LEFT JOIN guias_remessa gr ON gr.venda_id = vd.id
LEFT JOIN guias_royalty gy ON gy.venda_id = vd.id
WHERE vd.id = $1
LIMIT 1;
`
	var r SaleRecord
	err := s.db.QueryRowContext(ctx, q, codigoVenda).Scan(
		&r.VendaID, &r.GuiaID, &r.DataEmissao,
		&r.ClienteNome, &r.ClienteEndereco, &r.ClienteTelefone, &r.ClienteDocumento,
		&r.ProdutoID, &r.ProdutoDescricao, &r.ProdutoTipo,
		&r.Quantidade, &r.ValorUnitario, &r.ValorTotal, &r.TipoPagamento,
	)
	if err != nil {
		return SaleRecord{}, db.Wrap("shipment.find_sale", err)
	}
	return r, nil
}
