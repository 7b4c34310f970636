package commission

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

func (s *PostgresStore) Totals(ctx context.Context, req Request) ([]Row, error) {
	const q = `
SELECT v.id,
       v.nome,
       COUNT(DISTINCT vd.id),
       COALESCE(SUM(vd.preco), 0)::float8,
       COALESCE(SUM(c.valor), 0)::float8
FROM vendedores v
JOIN vendas vd ON vd.vendedor_id = v.id::text
LEFT JOIN comissoes c ON c.venda_id = vd.id
WHERE v.id = $1
  AND EXTRACT(MONTH FROM vd.data) = $2
  AND EXTRACT(YEAR FROM vd.data) = $3
GROUP BY v.id, v.nome
ORDER BY v.id;
`
	rows, err := s.db.QueryContext(ctx, q, req.VendedorID, req.Mes, req.Ano)
	if err != nil {
		return nil, db.Wrap("commission.totals", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.NomeVendedor, &r.TotalVendas, &r.TotalVendasValor, &r.TotalRecebimentos); err != nil {
			return nil, db.Wrap("commission.totals", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap("commission.totals", err)
	}
	return out, nil
}
