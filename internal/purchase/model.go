package purchase

import (
	"strings"
	"time"

	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/k1networth/orderflow/internal/shared/errs"
)

// TypePhysical is the only tipo_compra handled by the purchase worker.
const TypePhysical = "produto_fisico"

const (
	statusClosed     = "Fechado"
	deliveryLeadTime = 15 * 24 * time.Hour
)

type Details struct {
	ProdutoID      int             `json:"produto_id" binding:"required"`
	TipoProduto    string          `json:"tipo_produto" binding:"required"`
	Quantidade     int             `json:"quantidade" binding:"required,gt=0"`
	Preco          float64         `json:"preco" binding:"required,gt=0"`
	NomeProduto    string          `json:"nome_produto" binding:"required"`
	TipoPagamento  string          `json:"tipo_pagamento" binding:"required"`
	Especificacoes string          `json:"especificacoes,omitempty"`
	Garantia       int             `json:"garantia,omitempty"`
	Autor          string          `json:"autor,omitempty"`
	ISBN           string          `json:"isbn,omitempty"`
	ValorRoyalty   protocol.Amount `json:"valor_royalty,omitempty"`
}

type Request struct {
	Data       string  `json:"data" binding:"required"`
	ClienteID  string  `json:"cliente_id" binding:"required"`
	VendedorID string  `json:"vendedor_id" binding:"required"`
	TipoCompra string  `json:"tipo_compra" binding:"required"`
	Detalhes   Details `json:"detalhes_compra"`
}

// IsBook reports whether the product pays royalties instead of being shipped.
func (r Request) IsBook() bool {
	return strings.EqualFold(strings.TrimSpace(r.Detalhes.TipoProduto), "livro")
}

type Sale struct {
	Data          time.Time
	ClienteID     string
	VendedorID    string
	TipoCompra    string
	ProdutoID     int
	Quantidade    int
	Preco         float64
	TipoPagamento string
}

type Commission struct {
	VendaID       int64
	VendedorID    string
	DataPagamento time.Time
	Valor         float64
	Status        string
}

type RoyaltyGuide struct {
	VendaID     int64
	DataGeracao time.Time
	Status      string
	Valor       float64
}

type ShipmentGuide struct {
	VendaID             int64
	ClienteID           string
	DataGeracao         time.Time
	Status              string
	DataPrevistaEntrega time.Time
}

// Validate applies the checks the handler runs before writing anything.
func (r Request) Validate() error {
	_, err := r.sale()
	return err
}

func (r Request) sale() (Sale, error) {
	if r.TipoCompra != TypePhysical {
		return Sale{}, errs.ValidationError("tipo_compra " + r.TipoCompra + " is not supported")
	}
	if r.IsBook() && r.Detalhes.ValorRoyalty <= 0 {
		return Sale{}, errs.ValidationError("detalhes_compra.valor_royalty is required for livro")
	}
	date, err := protocol.ParseDate("data", r.Data)
	if err != nil {
		return Sale{}, err
	}
	return Sale{
		Data:          date,
		ClienteID:     strings.TrimSpace(r.ClienteID),
		VendedorID:    strings.TrimSpace(r.VendedorID),
		TipoCompra:    r.TipoCompra,
		ProdutoID:     r.Detalhes.ProdutoID,
		Quantidade:    r.Detalhes.Quantidade,
		Preco:         r.Detalhes.Preco,
		TipoPagamento: r.Detalhes.TipoPagamento,
	}, nil
}
