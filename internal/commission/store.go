package commission

import (
	"context"
	"sync"
	"time"
)

type Store interface {
	// Totals returns no rows, and no error, when the seller sold nothing that month.
	Totals(ctx context.Context, req Request) ([]Row, error)
}

// SaleEntry is what InMemoryStore aggregates: one sale with the commission paid on it.
type SaleEntry struct {
	VendedorID   int
	NomeVendedor string
	Data         time.Time
	Preco        float64
	Comissao     float64
}

type InMemoryStore struct {
	mu    sync.RWMutex
	sales []SaleEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Add(e SaleEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append(s.sales, e)
}

func (s *InMemoryStore) Totals(_ context.Context, req Request) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var row *Row
	for _, e := range s.sales {
		if e.VendedorID != req.VendedorID || int(e.Data.Month()) != req.Mes || e.Data.Year() != req.Ano {
			continue
		}
		if row == nil {
			row = &Row{ID: e.VendedorID, NomeVendedor: e.NomeVendedor}
		}
		row.TotalVendas++
		row.TotalVendasValor += e.Preco
		row.TotalRecebimentos += e.Comissao
	}
	if row == nil {
		return nil, nil
	}
	return []Row{*row}, nil
}
