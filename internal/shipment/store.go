package shipment

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/k1networth/orderflow/internal/shared/errs"
)

type Store interface {
	// FindSale returns ErrNotFound when no sale has the given code.
	FindSale(ctx context.Context, codigoVenda int) (SaleRecord, error)
}

type InMemoryStore struct {
	mu    sync.RWMutex
	sales map[int64]SaleRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sales: map[int64]SaleRecord{}}
}

func (s *InMemoryStore) Add(r SaleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales[r.VendaID] = r
}

func (s *InMemoryStore) FindSale(_ context.Context, codigoVenda int) (SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.sales[int64(codigoVenda)]
	if !ok {
		return SaleRecord{}, errs.E(errs.ErrNotFound, "shipment.find_sale", errors.New("no sale "+strconv.Itoa(codigoVenda)))
	}
	return r, nil
}
