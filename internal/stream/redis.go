package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/k1networth/orderflow/internal/shared/errs"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// MaxLen caps each topic approximately on append. 0 keeps everything.
	MaxLen int64

	DialTimeout time.Duration
}

// RedisTransport maps topics onto Redis Streams.
type RedisTransport struct {
	rdb    *redis.Client
	maxLen int64
}

func NewRedisTransport(cfg RedisConfig) *RedisTransport {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:                  cfg.Addr,
		Password:              cfg.Password,
		DB:                    cfg.DB,
		DialTimeout:           cfg.DialTimeout,
		ContextTimeoutEnabled: true,
	})
	return &RedisTransport{rdb: rdb, maxLen: cfg.MaxLen}
}

// NewRedisTransportFromClient shares an existing client, e.g. with the cursor store.
func NewRedisTransportFromClient(rdb *redis.Client, maxLen int64) *RedisTransport {
	return &RedisTransport{rdb: rdb, maxLen: maxLen}
}

func (t *RedisTransport) Client() *redis.Client { return t.rdb }

func (t *RedisTransport) Ping(ctx context.Context) error {
	if err := t.rdb.Ping(ctx).Err(); err != nil {
		return errs.E(errs.ErrTransport, "stream.ping", err)
	}
	return nil
}

func (t *RedisTransport) Append(ctx context.Context, topic string, fields map[string]string) (string, error) {
	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	args := &redis.XAddArgs{Stream: topic, Values: values}
	if t.maxLen > 0 {
		args.MaxLen = t.maxLen
		args.Approx = true
	}
	id, err := t.rdb.XAdd(ctx, args).Result()
	if err != nil {
		return "", errs.E(errs.ErrTransport, "stream.append", err)
	}
	return id, nil
}

func (t *RedisTransport) Read(ctx context.Context, topic, afterID string, block time.Duration, count int64) ([]Entry, error) {
	if afterID == "" {
		afterID = Origin
	}
	switch {
	case block <= 0:
		// go-redis treats 0 as "block forever"; negative omits BLOCK.
		block = -1
	case block < time.Millisecond:
		// BLOCK is sent in whole milliseconds and 0 would never return.
		block = time.Millisecond
	}
	res, err := t.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{topic, afterID},
		Count:   count,
		Block:   block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.E(errs.ErrTransport, "stream.read", err)
	}

	var out []Entry
	for _, s := range res {
		for _, msg := range s.Messages {
			out = append(out, Entry{ID: msg.ID, Fields: stringValues(msg.Values)})
		}
	}
	return out, nil
}

func (t *RedisTransport) Delete(ctx context.Context, topic, id string) (bool, error) {
	n, err := t.rdb.XDel(ctx, topic, id).Result()
	if err != nil {
		return false, errs.E(errs.ErrTransport, "stream.delete", err)
	}
	return n > 0, nil
}

func (t *RedisTransport) Tail(ctx context.Context, topic string) (string, error) {
	msgs, err := t.rdb.XRevRangeN(ctx, topic, "+", "-", 1).Result()
	if err != nil {
		return "", errs.E(errs.ErrTransport, "stream.tail", err)
	}
	if len(msgs) == 0 {
		return Origin, nil
	}
	return msgs[0].ID, nil
}

// Trim drops entries appended before now-olderThan. Redis stream ids start with the
// append time in milliseconds, so this is an XTRIM MINID.
func (t *RedisTransport) Trim(ctx context.Context, topic string, olderThan time.Duration) (int64, error) {
	minID := fmt.Sprintf("%d-0", time.Now().Add(-olderThan).UnixMilli())
	n, err := t.rdb.XTrimMinID(ctx, topic, minID).Result()
	if err != nil {
		return 0, errs.E(errs.ErrTransport, "stream.trim", err)
	}
	return n, nil
}

func (t *RedisTransport) Close() error { return t.rdb.Close() }

func stringValues(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch vv := v.(type) {
		case string:
			out[k] = vv
		case []byte:
			out[k] = string(vv)
		default:
			out[k] = fmt.Sprint(vv)
		}
	}
	return out
}
