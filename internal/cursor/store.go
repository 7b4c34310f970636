// Package cursor persists how far a consumer has read into a topic, so a restarted worker
// resumes after its last processed entry instead of replaying the topic from the origin.
package cursor

import (
	"context"
	"sync"

	"github.com/k1networth/orderflow/internal/stream"
)

type Store interface {
	// Load returns the last saved position, or stream.Origin when none was saved.
	Load(ctx context.Context, consumer, topic string) (string, error)
	Save(ctx context.Context, consumer, topic, id string) error
}

// MemoryStore keeps positions for the life of the process only.
type MemoryStore struct {
	mu  sync.Mutex
	pos map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pos: make(map[string]string)}
}

func (s *MemoryStore) Load(_ context.Context, consumer, topic string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.pos[key(consumer, topic)]; ok {
		return id, nil
	}
	return stream.Origin, nil
}

func (s *MemoryStore) Save(_ context.Context, consumer, topic, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos[key(consumer, topic)] = id
	return nil
}

func key(consumer, topic string) string { return consumer + "/" + topic }
