package association

import (
	"context"
	"errors"
	"sync"

	"github.com/k1networth/orderflow/internal/shared/errs"
)

type Store interface {
	WithinTx(ctx context.Context, fn func(Tx) error) error
}

type Tx interface {
	Insert(ctx context.Context, m NewMembership) error
	// Find returns ErrNotFound when the client has no association.
	Find(ctx context.Context, cpf string) (Membership, error)
	UpdatePlan(ctx context.Context, cpf, plano string) error
	Activate(ctx context.Context, cpf string) error
}

type Contact struct {
	Nome  string
	Email string
}

// InMemoryStore keeps memberships in a map and copies it per transaction.
type InMemoryStore struct {
	mu       sync.Mutex
	contacts map[string]Contact
	members  map[string]Membership
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{contacts: map[string]Contact{}, members: map[string]Membership{}}
}

// AddClient registers contact data, as the clientes table does.
func (s *InMemoryStore) AddClient(cpf string, c Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[cpf] = c
}

// Get returns the committed membership.
func (s *InMemoryStore) Get(cpf string) (Membership, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[cpf]
	return m, ok
}

func (s *InMemoryStore) WithinTx(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{contacts: s.contacts, members: make(map[string]Membership, len(s.members))}
	for k, v := range s.members {
		tx.members[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.members = tx.members
	return nil
}

type memTx struct {
	contacts map[string]Contact
	members  map[string]Membership
}

func (t *memTx) Insert(_ context.Context, m NewMembership) error {
	if _, ok := t.members[m.ClienteID]; ok {
		return errs.E(errs.ErrValidation, "association.insert", errors.New("client already has an association"))
	}
	c := t.contacts[m.ClienteID]
	t.members[m.ClienteID] = Membership{CPF: m.ClienteID, Nome: c.Nome, Email: c.Email, Plano: m.Plano, Ativo: m.Ativo}
	return nil
}

func (t *memTx) Find(_ context.Context, cpf string) (Membership, error) {
	m, ok := t.members[cpf]
	if !ok {
		return Membership{}, errs.E(errs.ErrNotFound, "association.find", nil)
	}
	if c, ok := t.contacts[cpf]; ok {
		m.Nome, m.Email = c.Nome, c.Email
	}
	return m, nil
}

func (t *memTx) UpdatePlan(_ context.Context, cpf, plano string) error {
	m := t.members[cpf]
	m.Plano = plano
	t.members[cpf] = m
	return nil
}

func (t *memTx) Activate(_ context.Context, cpf string) error {
	m := t.members[cpf]
	m.Ativo = true
	t.members[cpf] = m
	return nil
}
