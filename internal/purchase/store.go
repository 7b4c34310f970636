package purchase

import (
	"context"
	"sync"

	"github.com/k1networth/orderflow/internal/shared/errs"
)

// Store runs the inserts of one purchase atomically: either every row of fn is kept or none.
type Store interface {
	WithinTx(ctx context.Context, fn func(Tx) error) error
}

type Tx interface {
	InsertSale(ctx context.Context, s Sale) (int64, error)
	InsertCommission(ctx context.Context, c Commission) error
	InsertRoyaltyGuide(ctx context.Context, g RoyaltyGuide) error
	InsertShipmentGuide(ctx context.Context, g ShipmentGuide) error
}

// InMemoryStore stages writes per transaction and applies them on success.
type InMemoryStore struct {
	mu     sync.Mutex
	nextID int64

	Sales          []Sale
	Commissions    []Commission
	RoyaltyGuides  []RoyaltyGuide
	ShipmentGuides []ShipmentGuide

	// FailOn makes the named insert fail, e.g. "commission".
	FailOn string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) WithinTx(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, nextID: s.nextID}
	if err := fn(tx); err != nil {
		return err
	}
	s.nextID = tx.nextID
	s.Sales = append(s.Sales, tx.sales...)
	s.Commissions = append(s.Commissions, tx.commissions...)
	s.RoyaltyGuides = append(s.RoyaltyGuides, tx.royalty...)
	s.ShipmentGuides = append(s.ShipmentGuides, tx.shipment...)
	return nil
}

type memTx struct {
	store  *InMemoryStore
	nextID int64

	sales       []Sale
	commissions []Commission
	royalty     []RoyaltyGuide
	shipment    []ShipmentGuide
}

func (t *memTx) fail(name string) error {
	if t.store.FailOn == name {
		return errs.E(errs.ErrPersistence, "purchase.insert_"+name, nil)
	}
	return nil
}

func (t *memTx) InsertSale(_ context.Context, s Sale) (int64, error) {
	if err := t.fail("sale"); err != nil {
		return 0, err
	}
	t.nextID++
	t.sales = append(t.sales, s)
	return t.nextID, nil
}

func (t *memTx) InsertCommission(_ context.Context, c Commission) error {
	if err := t.fail("commission"); err != nil {
		return err
	}
	t.commissions = append(t.commissions, c)
	return nil
}

func (t *memTx) InsertRoyaltyGuide(_ context.Context, g RoyaltyGuide) error {
	if err := t.fail("royalty_guide"); err != nil {
		return err
	}
	t.royalty = append(t.royalty, g)
	return nil
}

func (t *memTx) InsertShipmentGuide(_ context.Context, g ShipmentGuide) error {
	if err := t.fail("shipment_guide"); err != nil {
		return err
	}
	t.shipment = append(t.shipment, g)
	return nil
}
