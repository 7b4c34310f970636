// Package worker runs the consumer side of one domain: poll the inbound topic from a
// persisted cursor, hand each work item to the domain handler, and publish exactly one
// response per item before moving the cursor past it.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/k1networth/orderflow/internal/cursor"
	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/k1networth/orderflow/internal/shared/errs"
	"github.com/k1networth/orderflow/internal/stream"
)

// Handler turns one work item into a result. It never touches the stream.
type Handler interface {
	Handle(ctx context.Context, item protocol.WorkItem) (protocol.Result, error)
}

type HandlerFunc func(ctx context.Context, item protocol.WorkItem) (protocol.Result, error)

func (f HandlerFunc) Handle(ctx context.Context, item protocol.WorkItem) (protocol.Result, error) {
	return f(ctx, item)
}

// Inbox remembers answered work items by correlation id. Implemented by inbox.Store.
type Inbox interface {
	StartProcessing(ctx context.Context, domain protocol.Domain, correlationID string) (protocol.Response, bool, error)
	MarkDone(ctx context.Context, resp protocol.Response) error
	MarkFailed(ctx context.Context, correlationID, errMsg string) error
}

type Loop struct {
	Domain    protocol.Domain
	Consumer  string
	Transport stream.Transport
	Cursors   cursor.Store
	Handler   Handler
	// Inbox is optional. Without it a redelivered item runs its handler again.
	Inbox   Inbox
	Log     *slog.Logger
	Metrics *Metrics

	PollInterval  time.Duration
	BatchSize     int64
	HandleTimeout time.Duration
	// NewBackOff builds the retry policy for publishing a response. Defaults to an
	// exponential backoff without an elapsed-time limit.
	NewBackOff func() backoff.BackOff

	state atomic.Int32
}

func (l *Loop) State() State { return State(l.state.Load()) }

func (l *Loop) setState(s State) { l.state.Store(int32(s)) }

// Run polls until ctx is cancelled. It returns nil on shutdown and an error only when the
// starting cursor cannot be loaded.
func (l *Loop) Run(ctx context.Context) error {
	l.defaults()
	defer l.setState(StateIdle)

	in := l.Domain.RequestTopic()
	last, err := l.Cursors.Load(ctx, l.Consumer, in)
	if err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}

	l.Log.Info("worker_start",
		slog.String("domain", string(l.Domain)),
		slog.String("topic", in),
		slog.String("cursor", last),
	)

	for {
		if ctx.Err() != nil {
			l.Log.Info("worker_shutdown", slog.String("domain", string(l.Domain)), slog.String("cursor", last))
			return nil
		}

		l.setState(StatePolling)
		entries, err := l.Transport.Read(ctx, in, last, l.PollInterval, l.BatchSize)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			l.metric(func(m *Metrics) { m.pollErrors.WithLabelValues(string(l.Domain)).Inc() })
			l.Log.Error("worker_poll_failed", slog.String("domain", string(l.Domain)), slog.String("err", err.Error()))
			sleep(ctx, l.PollInterval)
			continue
		}

		for _, e := range entries {
			if err := l.processEntry(ctx, e); err != nil {
				// shutdown before the response went out: the cursor stays put and the item
				// is delivered again after restart
				l.Log.Warn("worker_abandoned_entry",
					slog.String("domain", string(l.Domain)),
					slog.String("entry_id", e.ID),
					slog.String("err", err.Error()),
				)
				break
			}
			last = e.ID
		}
	}
}

func (l *Loop) processEntry(ctx context.Context, e stream.Entry) error {
	l.setState(StateHandling)
	resp, replayed := l.respond(ctx, e)

	l.setState(StatePublishing)
	if err := l.publish(ctx, resp); err != nil {
		return err
	}

	status := "false"
	if resp.Status {
		status = "true"
	}
	l.metric(func(m *Metrics) { m.processedTotal.WithLabelValues(string(l.Domain), status).Inc() })
	l.Log.Info("work_item_handled",
		slog.String("domain", string(l.Domain)),
		slog.String("entry_id", e.ID),
		slog.String("correlation_id", resp.CorrelationID),
		slog.Bool("status", resp.Status),
		slog.Bool("replayed", replayed),
	)

	l.setState(StateAdvancing)
	if err := l.Cursors.Save(ctx, l.Consumer, l.Domain.RequestTopic(), e.ID); err != nil {
		// the in-memory position still advances; a restart may replay this item
		l.Log.Warn("worker_cursor_save_failed", slog.String("domain", string(l.Domain)), slog.String("err", err.Error()))
	}
	return nil
}

// respond always yields a response for the entry, whatever happens while handling it.
func (l *Loop) respond(ctx context.Context, e stream.Entry) (protocol.Response, bool) {
	item, err := protocol.DecodeWorkItem(e.Fields)
	if err != nil {
		l.Log.Warn("work_item_invalid",
			slog.String("domain", string(l.Domain)),
			slog.String("entry_id", e.ID),
			slog.String("correlation_id", item.CorrelationID),
			slog.String("err", err.Error()),
		)
		return protocol.Failure(item.CorrelationID, err), false
	}
	if !item.PublishedAt.IsZero() {
		lag := time.Since(item.PublishedAt).Seconds()
		l.metric(func(m *Metrics) { m.lagSeconds.WithLabelValues(string(l.Domain)).Set(lag) })
	}

	if l.Inbox != nil {
		stored, done, err := l.Inbox.StartProcessing(ctx, l.Domain, item.CorrelationID)
		switch {
		case err != nil:
			l.Log.Warn("worker_inbox_unavailable", slog.String("correlation_id", item.CorrelationID), slog.String("err", err.Error()))
		case done:
			l.metric(func(m *Metrics) { m.replayedTotal.WithLabelValues(string(l.Domain)).Inc() })
			return stored, true
		}
	}

	start := time.Now()
	result, err := l.handle(ctx, item)
	l.metric(func(m *Metrics) {
		m.handleDuration.WithLabelValues(string(l.Domain)).Observe(time.Since(start).Seconds())
	})

	var resp protocol.Response
	if err != nil {
		level := slog.LevelError
		if deterministic(err) {
			level = slog.LevelWarn
		}
		l.Log.Log(ctx, level, "work_item_failed",
			slog.String("domain", string(l.Domain)),
			slog.String("correlation_id", item.CorrelationID),
			slog.String("request_id", item.RequestID),
			slog.String("error_code", errs.Code(err)),
			slog.String("err", err.Error()),
		)
		resp = protocol.Failure(item.CorrelationID, err)
	} else {
		resp = protocol.Success(item.CorrelationID, result)
	}

	l.record(ctx, resp, err)
	return resp, false
}

// record stores the outcome before it is published, so a crash between the two replays
// the same answer instead of running the handler twice. Transient failures stay retryable.
func (l *Loop) record(ctx context.Context, resp protocol.Response, handleErr error) {
	if l.Inbox == nil {
		return
	}
	var err error
	if handleErr == nil || deterministic(handleErr) {
		err = l.Inbox.MarkDone(ctx, resp)
	} else {
		err = l.Inbox.MarkFailed(ctx, resp.CorrelationID, handleErr.Error())
	}
	if err != nil {
		l.Log.Warn("worker_inbox_record_failed", slog.String("correlation_id", resp.CorrelationID), slog.String("err", err.Error()))
	}
}

func (l *Loop) handle(ctx context.Context, item protocol.WorkItem) (result protocol.Result, err error) {
	ctx, cancel := context.WithTimeout(ctx, l.HandleTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = fmt.Errorf("worker.handle: handler panic: %v", p)
		}
	}()
	return l.Handler.Handle(ctx, item)
}

// publish retries until the response is appended or ctx is cancelled.
func (l *Loop) publish(ctx context.Context, resp protocol.Response) error {
	out := l.Domain.ResponseTopic()
	fields := resp.Fields()

	op := func() error {
		_, err := l.Transport.Append(ctx, out, fields)
		return err
	}
	notify := func(err error, next time.Duration) {
		l.metric(func(m *Metrics) { m.retriesTotal.WithLabelValues(string(l.Domain)).Inc() })
		l.Log.Warn("worker_publish_retry",
			slog.String("domain", string(l.Domain)),
			slog.String("correlation_id", resp.CorrelationID),
			slog.String("retry_in", next.String()),
			slog.String("err", err.Error()),
		)
	}
	return backoff.RetryNotify(op, backoff.WithContext(l.NewBackOff(), ctx), notify)
}

func (l *Loop) defaults() {
	if l.PollInterval <= 0 {
		l.PollInterval = time.Second
	}
	if l.BatchSize <= 0 {
		l.BatchSize = 10
	}
	if l.HandleTimeout <= 0 {
		l.HandleTimeout = 30 * time.Second
	}
	if l.Consumer == "" {
		l.Consumer = "worker-" + string(l.Domain)
	}
	if l.NewBackOff == nil {
		l.NewBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			b.MaxElapsedTime = 0
			return b
		}
	}
}

func (l *Loop) metric(fn func(*Metrics)) {
	if l.Metrics != nil {
		fn(l.Metrics)
	}
}

// deterministic failures give the same answer on every retry.
func deterministic(err error) bool {
	return errors.Is(err, errs.ErrValidation) || errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrRejected)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
