package shipment_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/k1networth/orderflow/internal/shared/errs"
	"github.com/k1networth/orderflow/internal/shipment"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

var company = shipment.Company{
	Nome:           "Nova Terra Comércio Ltda.",
	Endereco:       "Rua Dr. José Maria Rodrigues, 123, Centro, CEP 13010-010",
	CidadeEstado:   "Campinas/SP",
	Telefone:       "(19) 3232-1111",
	CNPJ:           "43.745.219/0001-55",
	PesoTotal:      20,
	Volume:         1,
	Transportadora: "Rápido Norte Transportes Ltda.",
	Observacao:     "Fragil - Manusear com cuidado",
}

func bookSale() shipment.SaleRecord {
	return shipment.SaleRecord{
		VendaID:          1,
		GuiaID:           1,
		DataEmissao:      time.Date(2024, 8, 8, 0, 0, 0, 0, time.UTC),
		ClienteNome:      "Carlos Silva",
		ClienteEndereco:  "Rua A, 123, São Paulo/SP - 01010-000",
		ClienteTelefone:  "(11) 1234-5678",
		ClienteDocumento: "123.456.789-00",
		ProdutoID:        8,
		ProdutoDescricao: "The Two Towers",
		ProdutoTipo:      "livro",
		Quantidade:       1,
		ValorUnitario:    150,
		ValorTotal:       150,
		TipoPagamento:    "PIX",
	}
}

func newHandler() *shipment.Handler {
	store := shipment.NewInMemoryStore()
	store.Add(bookSale())
	gadget := bookSale()
	gadget.VendaID, gadget.GuiaID, gadget.ProdutoTipo = 2, 5, "eletronico"
	store.Add(gadget)
	return &shipment.Handler{Log: testLogger(), Store: store, Company: company}
}

func handle(t *testing.T, h *shipment.Handler, payload string) (string, error) {
	t.Helper()
	res, err := h.Handle(context.Background(), protocol.WorkItem{CorrelationID: "c-1", Payload: []byte(payload)})
	if err != nil {
		return "", err
	}
	return res[protocol.FieldShipmentDoc], nil
}

func TestBookSaleIsFlaggedForRoyaltyDepartment(t *testing.T) {
	raw, err := handle(t, newHandler(), `{"codigo_venda":1}`)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["Departamento de Royalty"] != "True" {
		t.Fatalf("expected \"True\", got %v", doc["Departamento de Royalty"])
	}
	if doc["numero_guia"] != "GR-1" || doc["data_emissao"] != "08/08/2024" {
		t.Fatalf("unexpected header %v / %v", doc["numero_guia"], doc["data_emissao"])
	}
	dest := doc["destinatario"].(map[string]any)
	if dest["cnpj/cpf"] != "123.456.789-00" {
		t.Fatalf("unexpected recipient %v", dest)
	}
	if doc["transportadora"] != company.Transportadora || doc["condicoes_pagamento"] != "PIX" {
		t.Fatalf("unexpected shipping fields %v", doc)
	}
}

func TestOtherProductsAreNotRoyalty(t *testing.T) {
	raw, err := handle(t, newHandler(), `{"codigo_venda":2}`)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(raw, `"Departamento de Royalty": "False"`) {
		t.Fatalf("expected False flag, got %s", raw)
	}
	if !strings.Contains(raw, `"numero_guia": "GR-5"`) {
		t.Fatalf("expected guide number of the sale, got %s", raw)
	}
}

func TestDocumentKeepsFieldOrderAndIndent(t *testing.T) {
	raw, err := handle(t, newHandler(), `{"codigo_venda":1}`)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.HasPrefix(raw, "{\n    \"numero_guia\"") {
		t.Fatalf("expected four-space indent, got %q", raw[:20])
	}

	order := []string{"numero_guia", "data_emissao", "Departamento de Royalty", "remetente", "destinatario",
		"produtos", "peso_total", "volume", "transportadora", "condicoes_pagamento", "observacoes"}
	last := -1
	for _, k := range order {
		i := strings.Index(raw, `"`+k+`"`)
		if i < 0 || i < last {
			t.Fatalf("field %q out of order in %s", k, raw)
		}
		last = i
	}
}

func TestUnknownSaleIsNotFound(t *testing.T) {
	_, err := handle(t, newHandler(), `{"codigo_venda":42}`)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if errs.Code(err) != "not_found" {
		t.Fatalf("expected not_found marker, got %q", errs.Code(err))
	}
}

func TestMissingCodeIsValidationError(t *testing.T) {
	if _, err := handle(t, newHandler(), `{}`); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
