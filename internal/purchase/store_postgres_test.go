package purchase_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/k1networth/orderflow/internal/purchase"
	"github.com/k1networth/orderflow/internal/shared/db/dbtest"
)

func TestPostgresStorePersistsOnePurchase(t *testing.T) {
	pg := dbtest.Postgres(t)
	h := newHandler(purchase.NewPostgresStore(pg))
	ctx := context.Background()

	res, err := h.Handle(ctx, item(bookItem))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	id, err := strconv.ParseInt(res["venda_id"], 10, 64)
	if err != nil {
		t.Fatalf("venda_id: %v", err)
	}

	for table, want := range map[string]int{"vendas": 1, "comissoes": 1, "guias_royalty": 1, "guias_remessa": 0} {
		var n int
		q := "SELECT count(*) FROM " + table
		if table != "vendas" {
			q += " WHERE venda_id = $1"
		} else {
			q += " WHERE id = $1"
		}
		if err := pg.QueryRowContext(ctx, q, id).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != want {
			t.Fatalf("%s: expected %d rows, got %d", table, want, n)
		}
	}
}

func TestPostgresStoreRollsBackOnConstraintViolation(t *testing.T) {
	pg := dbtest.Postgres(t)
	h := newHandler(purchase.NewPostgresStore(pg))
	ctx := context.Background()

	// the royalty value overflows NUMERIC(12,2) after sale and commission were inserted
	bad := `{"data":"2024-07-25","cliente_id":"1","vendedor_id":"1","tipo_compra":"produto_fisico",
		"detalhes_compra":{"produto_id":1,"tipo_produto":"livro","quantidade":1,"preco":10,"nome_produto":"x",
		"tipo_pagamento":"pix","valor_royalty":99999999999999}}`
	if _, err := h.Handle(ctx, item(bad)); err == nil {
		t.Fatalf("expected royalty insert to fail")
	}

	var n int
	if err := pg.QueryRowContext(ctx, "SELECT count(*) FROM vendas").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no sale rows after failure, got %d", n)
	}
}
