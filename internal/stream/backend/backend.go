// Package backend opens the stream transport named by the configuration.
package backend

import (
	"fmt"
	"log/slog"

	"github.com/k1networth/orderflow/internal/shared/config"
	"github.com/k1networth/orderflow/internal/shared/kafkax"
	"github.com/k1networth/orderflow/internal/stream"
)

func Open(cfg config.Config, log *slog.Logger) (stream.Transport, error) {
	switch cfg.StreamBackend {
	case "redis":
		return stream.NewRedisTransport(stream.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			MaxLen:   cfg.StreamMaxLen,
		}), nil
	case "kafka":
		return kafkax.NewLog(kafkax.Config{
			Brokers:  cfg.KafkaBrokers,
			ClientID: cfg.KafkaClientID,
			Logger:   log,
		}), nil
	default:
		return nil, fmt.Errorf("unknown stream backend %q", cfg.StreamBackend)
	}
}
