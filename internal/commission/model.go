package commission

// Request selects one seller and one calendar month. The form tags let the gateway bind it
// from a query string as well as from a JSON body.
type Request struct {
	VendedorID int `json:"vendedor_id" form:"vendedor_id" binding:"required,gt=0"`
	Mes        int `json:"mes" form:"mes" binding:"required,min=1,max=12"`
	Ano        int `json:"ano" form:"ano" binding:"required,min=1900"`
}

// Row is one seller's totals for the requested month.
type Row struct {
	ID                int     `json:"id"`
	NomeVendedor      string  `json:"nome_vendedor"`
	TotalVendas       int64   `json:"total_vendas"`
	TotalVendasValor  float64 `json:"total_vendas_valor"`
	TotalRecebimentos float64 `json:"total_recebimentos"`
}
