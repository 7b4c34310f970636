package shipment

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/k1networth/orderflow/internal/shared/errs"
)

const issueDateLayout = "02/01/2006"

// BuildDocument fills a guide from a stored sale and the sender company.
func BuildDocument(rec SaleRecord, c Company) Document {
	royalty := "False"
	if rec.royalty() {
		royalty = "True"
	}
	return Document{
		NumeroGuia:          fmt.Sprintf("GR-%d", rec.GuiaID),
		DataEmissao:         rec.DataEmissao.Format(issueDateLayout),
		DepartamentoRoyalty: royalty,
		Remetente: Party{
			Nome:     c.Nome,
			Endereco: c.Endereco,
			Telefone: c.Telefone,
			CNPJ:     c.CNPJ,
		},
		Destinatario: Recipient{
			Nome:      rec.ClienteNome,
			Endereco:  rec.ClienteEndereco,
			Telefone:  rec.ClienteTelefone,
			Documento: rec.ClienteDocumento,
		},
		Produtos: []Product{{
			Codigo:        rec.ProdutoID,
			Descricao:     rec.ProdutoDescricao,
			Tipo:          rec.ProdutoTipo,
			Quantidade:    rec.Quantidade,
			ValorUnitario: rec.ValorUnitario,
			ValorTotal:    rec.ValorTotal,
		}},
		PesoTotal:          c.PesoTotal,
		Volume:             c.Volume,
		Transportadora:     c.Transportadora,
		CondicoesPagamento: rec.TipoPagamento,
		Observacoes:        c.Observacao,
	}
}

// Encode renders the document as JSON indented with four spaces.
func (d Document) Encode() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(d); err != nil {
		return "", errs.E(errs.ErrValidation, "shipment.encode", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
