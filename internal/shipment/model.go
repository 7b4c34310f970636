package shipment

import (
	"strings"
	"time"
)

type Request struct {
	CodigoVenda int `json:"codigo_venda" form:"codigo_venda" binding:"required,gt=0"`
}

// Company is the sender printed on every guide.
type Company struct {
	Nome           string
	Endereco       string
	CidadeEstado   string
	Telefone       string
	CNPJ           string
	PesoTotal      float64
	Volume         int
	Transportadora string
	Observacao     string
}

// SaleRecord is a sale joined with its client, product and guide.
type SaleRecord struct {
	VendaID          int64
	GuiaID           int64
	DataEmissao      time.Time
	ClienteNome      string
	ClienteEndereco  string
	ClienteTelefone  string
	ClienteDocumento string
	ProdutoID        int
	ProdutoDescricao string
	ProdutoTipo      string
	Quantidade       int
	ValorUnitario    float64
	ValorTotal       float64
	TipoPagamento    string
}

func (r SaleRecord) royalty() bool {
	return strings.Contains(strings.ToLower(r.ProdutoTipo), "livro")
}

type Party struct {
	Nome     string `json:"nome"`
	Endereco string `json:"endereco"`
	Telefone string `json:"telefone"`
	CNPJ     string `json:"cnpj"`
}

type Recipient struct {
	Nome      string `json:"nome"`
	Endereco  string `json:"endereco"`
	Telefone  string `json:"telefone"`
	Documento string `json:"cnpj/cpf"`
}

type Product struct {
	Codigo        int     `json:"codigo"`
	Descricao     string  `json:"descricao"`
	Tipo          string  `json:"tipo"`
	Quantidade    int     `json:"quantidade"`
	ValorUnitario float64 `json:"valor_unitario"`
	ValorTotal    float64 `json:"valor_total"`
}

// Document is the shipment guide. Field order is part of the format.
type Document struct {
	NumeroGuia          string    `json:"numero_guia"`
	DataEmissao         string    `json:"data_emissao"`
	DepartamentoRoyalty string    `json:"Departamento de Royalty"`
	Remetente           Party     `json:"remetente"`
	Destinatario        Recipient `json:"destinatario"`
	Produtos            []Product `json:"produtos"`
	PesoTotal           float64   `json:"peso_total"`
	Volume              int       `json:"volume"`
	Transportadora      string    `json:"transportadora"`
	CondicoesPagamento  string    `json:"condicoes_pagamento"`
	Observacoes         string    `json:"observacoes"`
}
