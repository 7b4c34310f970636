package commission_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/k1networth/orderflow/internal/commission"
	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/k1networth/orderflow/internal/shared/errs"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func item(payload string) protocol.WorkItem {
	return protocol.WorkItem{CorrelationID: "c-1", Payload: []byte(payload)}
}

func july(day int) time.Time { return time.Date(2024, 7, day, 0, 0, 0, 0, time.UTC) }

func seeded() *commission.InMemoryStore {
	s := commission.NewInMemoryStore()
	s.Add(commission.SaleEntry{VendedorID: 1, NomeVendedor: "Ana Souza", Data: july(3), Preco: 1500, Comissao: 1500})
	s.Add(commission.SaleEntry{VendedorID: 1, NomeVendedor: "Ana Souza", Data: july(25), Preco: 150, Comissao: 150})
	s.Add(commission.SaleEntry{VendedorID: 1, NomeVendedor: "Ana Souza", Data: july(25).AddDate(0, 1, 0), Preco: 99, Comissao: 99})
	s.Add(commission.SaleEntry{VendedorID: 2, NomeVendedor: "Bruno Lima", Data: july(10), Preco: 70, Comissao: 70})
	return s
}

func TestTotalsRoundTripThroughResponse(t *testing.T) {
	h := &commission.Handler{Log: testLogger(), Store: seeded()}

	res, err := h.Handle(context.Background(), item(`{"vendedor_id":1,"mes":7,"ano":2024}`))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	want := []commission.Row{{ID: 1, NomeVendedor: "Ana Souza", TotalVendas: 2, TotalVendasValor: 1650, TotalRecebimentos: 1650}}

	wire := protocol.Success("c-1", res).Fields()
	resp, err := protocol.DecodeResponse(wire)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	var got []commission.Row
	if err := json.Unmarshal([]byte(resp.Result[protocol.FieldSellers]), &got); err != nil {
		t.Fatalf("decode vendedores: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestNoSalesIsNotFound(t *testing.T) {
	h := &commission.Handler{Log: testLogger(), Store: seeded()}

	_, err := h.Handle(context.Background(), item(`{"vendedor_id":1,"mes":1,"ano":2024}`))
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMonthOutOfRangeIsValidationError(t *testing.T) {
	h := &commission.Handler{Log: testLogger(), Store: seeded()}

	_, err := h.Handle(context.Background(), item(`{"vendedor_id":1,"mes":13,"ano":2024}`))
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type failingStore struct{}

func (failingStore) Totals(context.Context, commission.Request) ([]commission.Row, error) {
	return nil, errs.E(errs.ErrPersistence, "commission.totals", errors.New("connection reset"))
}

func TestStoreFailureIsPersistenceError(t *testing.T) {
	h := &commission.Handler{Log: testLogger(), Store: failingStore{}}

	_, err := h.Handle(context.Background(), item(`{"vendedor_id":1,"mes":7,"ano":2024}`))
	if errs.Code(err) != "persistence_error" {
		t.Fatalf("expected persistence_error, got %q", errs.Code(err))
	}
}
