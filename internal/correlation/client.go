// Package correlation turns publish-then-poll over a pair of topics into one bounded call.
//
// Every work item carries a fresh correlation id. The client reads the response topic
// strictly after the position it observed before publishing and only consumes the entry
// carrying its own id; entries of other callers are left where they are.
package correlation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/k1networth/orderflow/internal/shared/errs"
	"github.com/k1networth/orderflow/internal/shared/requestid"
	"github.com/k1networth/orderflow/internal/stream"
)

const (
	defaultPollInterval = time.Second
	defaultTimeout      = 30 * time.Second
	defaultBatchSize    = 100
	ackTimeout          = 2 * time.Second
)

type Config struct {
	// PollInterval bounds a single blocking read.
	PollInterval time.Duration
	// Timeout bounds the whole call when the caller's context has no earlier deadline.
	Timeout   time.Duration
	BatchSize int64
}

type Client struct {
	tr      stream.Transport
	log     *slog.Logger
	cfg     Config
	metrics *Metrics
	newID   func() string
}

func NewClient(tr stream.Transport, log *slog.Logger, cfg Config, m *Metrics) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Client{tr: tr, log: log, cfg: cfg, metrics: m, newID: uuid.NewString}
}

// Request publishes payload to the domain's worker and waits for the correlated response.
// It always resolves: a successful response, ErrRemoteProcessing (the response is
// returned as well), ErrTimeout, ErrTransport, or the caller's cancellation.
func (c *Client) Request(ctx context.Context, domain protocol.Domain, payload any) (protocol.Response, error) {
	const op = "correlation.request"
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	correlationID := c.newID()
	item, err := protocol.NewWorkItem(correlationID, requestid.Get(ctx), payload)
	if err != nil {
		c.observe(domain, "invalid", start)
		return protocol.Response{}, err
	}

	responses := domain.ResponseTopic()
	cursor, err := c.tr.Tail(ctx, responses)
	if err != nil {
		return protocol.Response{}, c.fail(ctx, domain, op, correlationID, start, err)
	}

	if _, err := c.tr.Append(ctx, domain.RequestTopic(), item.Fields()); err != nil {
		return protocol.Response{}, c.fail(ctx, domain, op, correlationID, start, err)
	}
	c.log.Info("work_item_published",
		slog.String("domain", string(domain)),
		slog.String("correlation_id", correlationID),
		slog.String("request_id", item.RequestID),
	)

	deadline, _ := ctx.Deadline()
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return protocol.Response{}, c.fail(ctx, domain, op, correlationID, start, context.DeadlineExceeded)
		}
		block := min(c.cfg.PollInterval, remaining)

		entries, err := c.tr.Read(ctx, responses, cursor, block, c.cfg.BatchSize)
		if err != nil {
			return protocol.Response{}, c.fail(ctx, domain, op, correlationID, start, err)
		}

		for _, e := range entries {
			cursor = e.ID
			if e.Fields[protocol.FieldCorrelationID] != correlationID {
				continue
			}

			c.ack(ctx, responses, e.ID)

			resp, err := protocol.DecodeResponse(e.Fields)
			if err != nil {
				c.observe(domain, "remote_failure", start)
				return protocol.Response{}, errs.E(errs.ErrRemoteProcessing, op, err)
			}
			if !resp.Status {
				c.observe(domain, "remote_failure", start)
				c.log.Warn("correlation_remote_failure",
					slog.String("domain", string(domain)),
					slog.String("correlation_id", correlationID),
					slog.String("error_code", resp.ErrorCode),
				)
				return resp, errs.E(errs.ErrRemoteProcessing, op, errors.New(resp.ErrorCode))
			}

			c.observe(domain, "success", start)
			c.log.Info("correlation_matched",
				slog.String("domain", string(domain)),
				slog.String("correlation_id", correlationID),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
			return resp, nil
		}
	}
}

// ack deletes the matched response. It runs on a detached context so a caller that just
// timed out still cleans up after itself, and its failure never fails the call.
func (c *Client) ack(ctx context.Context, topic, id string) {
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
	defer cancel()
	if _, err := c.tr.Delete(ackCtx, topic, id); err != nil {
		if c.metrics != nil {
			c.metrics.orphanDeletes.Inc()
		}
		c.log.Warn("correlation_ack_failed",
			slog.String("topic", topic),
			slog.String("entry_id", id),
			slog.String("err", err.Error()),
		)
	}
}

func (c *Client) fail(ctx context.Context, domain protocol.Domain, op, correlationID string, start time.Time, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		c.observe(domain, "timeout", start)
		c.log.Warn("correlation_timeout",
			slog.String("domain", string(domain)),
			slog.String("correlation_id", correlationID),
			slog.Int64("waited_ms", time.Since(start).Milliseconds()),
		)
		return errs.E(errs.ErrTimeout, op, context.DeadlineExceeded)
	case errors.Is(err, context.Canceled):
		c.observe(domain, "canceled", start)
		return err
	default:
		c.observe(domain, "transport_error", start)
		c.log.Error("correlation_transport_failed",
			slog.String("domain", string(domain)),
			slog.String("correlation_id", correlationID),
			slog.String("err", err.Error()),
		)
		if errors.Is(err, errs.ErrTransport) {
			return err
		}
		return errs.E(errs.ErrTransport, op, err)
	}
}

func (c *Client) observe(domain protocol.Domain, outcome string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.requestsTotal.WithLabelValues(string(domain), outcome).Inc()
	if outcome == "success" || outcome == "remote_failure" {
		c.metrics.duration.WithLabelValues(string(domain)).Observe(time.Since(start).Seconds())
	}
}
