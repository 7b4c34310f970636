package cursor

import (
	"context"
	"errors"

	"github.com/k1networth/orderflow/internal/shared/errs"
	"github.com/k1networth/orderflow/internal/stream"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one hash per consumer, field = topic, value = last processed id.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "cursor:"}
}

func (s *RedisStore) Load(ctx context.Context, consumer, topic string) (string, error) {
	id, err := s.rdb.HGet(ctx, s.prefix+consumer, topic).Result()
	if errors.Is(err, redis.Nil) {
		return stream.Origin, nil
	}
	if err != nil {
		return "", errs.E(errs.ErrTransport, "cursor.load", err)
	}
	return id, nil
}

func (s *RedisStore) Save(ctx context.Context, consumer, topic, id string) error {
	if err := s.rdb.HSet(ctx, s.prefix+consumer, topic, id).Err(); err != nil {
		return errs.E(errs.ErrTransport, "cursor.save", err)
	}
	return nil
}
