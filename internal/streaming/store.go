package streaming

import (
	"context"
	"errors"
	"sync"

	"github.com/k1networth/orderflow/internal/shared/errs"
)

type Store interface {
	// FindVideos returns ErrNotFound when the catalog has no entry for id.
	FindVideos(ctx context.Context, id string) ([]Video, error)
	FindClient(ctx context.Context, cpf string) (Client, error)
}

type InMemoryStore struct {
	mu      sync.RWMutex
	videos  map[string][]Video
	clients map[string]Client
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{videos: map[string][]Video{}, clients: map[string]Client{}}
}

func (s *InMemoryStore) AddVideo(v Video) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[v.IDStreaming] = append(s.videos[v.IDStreaming], v)
}

func (s *InMemoryStore) AddClient(c Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.CPF] = c
}

func (s *InMemoryStore) FindVideos(_ context.Context, id string) ([]Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs := s.videos[id]
	if len(vs) == 0 {
		return nil, errs.E(errs.ErrNotFound, "streaming.find_videos", errors.New("no video "+id))
	}
	return append([]Video(nil), vs...), nil
}

func (s *InMemoryStore) FindClient(_ context.Context, cpf string) (Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[cpf]
	if !ok {
		return Client{}, errs.E(errs.ErrNotFound, "streaming.find_client", errors.New("no client "+cpf))
	}
	return c, nil
}
