// Package janitor removes responses nobody will read: a caller that timed out leaves its
// response on the topic, and the correlation client never deletes entries it does not own.
package janitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/k1networth/orderflow/internal/stream"
)

// ErrNoRetention is returned by Run when Retention would trim responses still being awaited.
var ErrNoRetention = errors.New("janitor: retention must be positive")

type Janitor struct {
	Trimmer stream.Trimmer
	Log     *slog.Logger
	Metrics *Metrics

	// Topics defaults to the response topic of every domain.
	Topics   []string
	Interval time.Duration
	// Retention must outlive the longest caller wait; entries younger than it are never trimmed.
	Retention time.Duration
}

// ResponseTopics lists the worker→gateway topics.
func ResponseTopics() []string {
	var out []string
	for _, d := range protocol.Domains() {
		out = append(out, d.ResponseTopic())
	}
	return out
}

// Run sweeps once immediately and then every Interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	if j.Retention <= 0 {
		return ErrNoRetention
	}
	if len(j.Topics) == 0 {
		j.Topics = ResponseTopics()
	}
	if j.Interval <= 0 {
		j.Interval = time.Minute
	}

	j.Log.Info("janitor_start",
		slog.String("interval", j.Interval.String()),
		slog.String("retention", j.Retention.String()),
		slog.Int("topics", len(j.Topics)),
	)

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		j.Sweep(ctx)
		select {
		case <-ctx.Done():
			j.Log.Info("janitor_shutdown")
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep trims every topic once and returns the number of removed entries.
// A non-positive Retention trims nothing.
func (j *Janitor) Sweep(ctx context.Context) int64 {
	var total int64
	if j.Retention <= 0 {
		j.Log.Warn("janitor_sweep_skipped", slog.String("retention", j.Retention.String()))
		return 0
	}
	for _, topic := range j.Topics {
		n, err := j.Trimmer.Trim(ctx, topic, j.Retention)
		if err != nil {
			if ctx.Err() != nil {
				return total
			}
			if j.Metrics != nil {
				j.Metrics.ErrorsTotal.WithLabelValues(topic).Inc()
			}
			j.Log.Error("janitor_trim_failed", slog.String("topic", topic), slog.String("err", err.Error()))
			continue
		}
		if n > 0 {
			if j.Metrics != nil {
				j.Metrics.TrimmedTotal.WithLabelValues(topic).Add(float64(n))
			}
			j.Log.Info("janitor_trimmed", slog.String("topic", topic), slog.Int64("count", n))
		}
		total += n
	}
	if j.Metrics != nil {
		j.Metrics.SweepsTotal.Inc()
	}
	return total
}
