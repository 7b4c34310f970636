package commission_test

import (
	"context"
	"testing"

	"github.com/k1networth/orderflow/internal/commission"
	"github.com/k1networth/orderflow/internal/shared/db/dbtest"
)

func TestPostgresTotals(t *testing.T) {
	pg := dbtest.Postgres(t)
	ctx := context.Background()

	seed := []string{
		`INSERT INTO vendedores (id, nome) VALUES (1, 'Ana Souza'), (2, 'Bruno Lima')`,
		`INSERT INTO vendas (id, data, cliente_id, vendedor_id, tipo_compra, produto_id, quantidade, preco, tipo_pagamento) VALUES
			(1, '2024-07-03', 'c', '1', 'produto_fisico', 10, 1, 1500.00, 'pix'),
			(2, '2024-07-25', 'c', '1', 'produto_fisico', 8, 1, 150.00, 'pix'),
			(3, '2024-08-01', 'c', '1', 'produto_fisico', 8, 1, 99.00, 'pix'),
			(4, '2024-07-10', 'c', '2', 'produto_fisico', 8, 1, 70.00, 'pix')`,
		`INSERT INTO comissoes (venda_id, vendedor_id, data_pagamento, valor, status) VALUES
			(1, '1', '2024-07-03', 1500.00, 'Fechado'),
			(2, '1', '2024-07-25', 150.00, 'Fechado')`,
	}
	for _, q := range seed {
		if _, err := pg.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rows, err := commission.NewPostgresStore(pg).Totals(ctx, commission.Request{VendedorID: 1, Mes: 7, Ano: 2024})
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.NomeVendedor != "Ana Souza" || r.TotalVendas != 2 || r.TotalVendasValor != 1650 || r.TotalRecebimentos != 1650 {
		t.Fatalf("unexpected row %+v", r)
	}

	rows, err = commission.NewPostgresStore(pg).Totals(ctx, commission.Request{VendedorID: 1, Mes: 1, Ano: 2024})
	if err != nil || len(rows) != 0 {
		t.Fatalf("expected no rows, got %v (err=%v)", rows, err)
	}
}
