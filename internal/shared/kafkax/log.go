// Package kafkax exposes a single-partition Kafka topic as a stream.Transport.
//
// Entry ids are offset+1 so that "0-0" (stream.Origin) precedes the first record.
// Kafka cannot remove individual records; Delete is a no-op and retention is left to the broker.
package kafkax

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/k1networth/orderflow/internal/shared/errs"
	"github.com/k1networth/orderflow/internal/stream"
	"github.com/segmentio/kafka-go"
)

type Config struct {
	Brokers  []string
	ClientID string

	Partition    int
	WriteTimeout time.Duration
	MaxBytes     int

	Logger *slog.Logger
}

type Log struct {
	mu        sync.Mutex
	client    *kafka.Client
	cfg       Config
	lastReset time.Time
}

func NewLog(cfg Config) *Log {
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10e6
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	l := &Log{cfg: cfg}
	l.client = newClient(cfg)
	return l
}

func newClient(cfg Config) *kafka.Client {
	// kafka-go caches broker metadata; keep the TTL low so a moved leader heals without a restart.
	tr := &kafka.Transport{
		ClientID:    cfg.ClientID,
		MetadataTTL: 10 * time.Second,
	}
	return &kafka.Client{
		Addr:      kafka.TCP(cfg.Brokers...),
		Transport: tr,
	}
}

func (l *Log) current() *kafka.Client {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client
}

func (l *Log) Append(ctx context.Context, topic string, fields map[string]string) (string, error) {
	value, err := json.Marshal(fields)
	if err != nil {
		return "", errs.E(errs.ErrValidation, "kafkax.append", err)
	}

	produce := func() (int64, error) {
		cctx, cancel := context.WithTimeout(ctx, l.cfg.WriteTimeout)
		defer cancel()
		res, err := l.current().Produce(cctx, &kafka.ProduceRequest{
			Topic:        topic,
			Partition:    l.cfg.Partition,
			RequiredAcks: kafka.RequireAll,
			Records:      kafka.NewRecordReader(kafka.Record{Time: time.Now(), Value: kafka.NewBytes(value)}),
		})
		if err != nil {
			return 0, err
		}
		if res.Error != nil {
			return 0, res.Error
		}
		return res.BaseOffset, nil
	}

	offset, err := produce()
	if err != nil && shouldReset(err) {
		l.resetOnce()
		offset, err = produce()
	}
	if err != nil {
		return "", errs.E(errs.ErrTransport, "kafkax.append", err)
	}
	return idFromOffset(offset), nil
}

func (l *Log) Read(ctx context.Context, topic, afterID string, block time.Duration, count int64) ([]stream.Entry, error) {
	offset, err := offsetAfter(afterID)
	if err != nil {
		return nil, err
	}
	if block <= 0 {
		block = time.Millisecond
	}

	res, err := l.fetch(ctx, topic, offset, block)
	if err != nil {
		return nil, err
	}
	if errors.Is(res.Error, kafka.OffsetOutOfRange) {
		// The cursor points below the log start once broker retention removed older records.
		first, err := l.firstOffset(ctx, topic)
		if err != nil {
			return nil, err
		}
		start, behind := resumeOffset(offset, first)
		if !behind {
			return nil, nil
		}
		l.cfg.Logger.Warn("kafka_cursor_behind_log_start",
			slog.String("topic", topic),
			slog.Int64("cursor_offset", offset),
			slog.Int64("first_offset", first),
			slog.Int64("skipped", first-offset),
		)
		offset = start
		if res, err = l.fetch(ctx, topic, offset, block); err != nil {
			return nil, err
		}
	}
	if res.Error != nil {
		if errors.Is(res.Error, kafka.OffsetOutOfRange) {
			return nil, nil
		}
		return nil, errs.E(errs.ErrTransport, "kafkax.read", res.Error)
	}
	if res.Records == nil {
		return nil, nil
	}
	return l.entries(topic, res.Records, offset, count)
}

func (l *Log) fetch(ctx context.Context, topic string, offset int64, block time.Duration) (*kafka.FetchResponse, error) {
	res, err := l.current().Fetch(ctx, &kafka.FetchRequest{
		Topic:     topic,
		Partition: l.cfg.Partition,
		Offset:    offset,
		MinBytes:  1,
		MaxBytes:  int64(l.cfg.MaxBytes),
		MaxWait:   block,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.E(errs.ErrTransport, "kafkax.read", err)
	}
	return res, nil
}

// entries decodes fetched records at or after offset. A record whose value is not a JSON
// object is still returned, with no fields, so the consumer answers it and moves past it.
func (l *Log) entries(topic string, records kafka.RecordReader, offset, count int64) ([]stream.Entry, error) {
	var out []stream.Entry
	for {
		rec, err := records.ReadRecord()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(out) > 0 {
				return out, nil
			}
			return nil, errs.E(errs.ErrTransport, "kafkax.read", err)
		}
		// Fetch answers with whole batches; skip what precedes the cursor.
		if rec.Offset < offset {
			continue
		}
		fields, err := decodeFields(rec.Value)
		if err != nil {
			l.cfg.Logger.Warn("kafka_record_undecodable",
				slog.String("topic", topic),
				slog.Int64("offset", rec.Offset),
				slog.String("err", err.Error()),
			)
			fields = map[string]string{}
		}
		out = append(out, stream.Entry{ID: idFromOffset(rec.Offset), Fields: fields})
		if count > 0 && int64(len(out)) >= count {
			break
		}
	}
	return out, nil
}

func (l *Log) firstOffset(ctx context.Context, topic string) (int64, error) {
	res, err := l.current().ListOffsets(ctx, &kafka.ListOffsetsRequest{
		Topics: map[string][]kafka.OffsetRequest{topic: {kafka.FirstOffsetOf(l.cfg.Partition)}},
	})
	if err != nil {
		return 0, errs.E(errs.ErrTransport, "kafkax.first_offset", err)
	}
	for _, p := range res.Topics[topic] {
		if p.Partition != l.cfg.Partition {
			continue
		}
		if p.Error != nil {
			return 0, errs.E(errs.ErrTransport, "kafkax.first_offset", p.Error)
		}
		return p.FirstOffset, nil
	}
	return 0, errs.E(errs.ErrTransport, "kafkax.first_offset", errors.New("partition not reported"))
}

func (l *Log) Delete(ctx context.Context, topic, id string) (bool, error) {
	return false, nil
}

func (l *Log) Tail(ctx context.Context, topic string) (string, error) {
	res, err := l.current().ListOffsets(ctx, &kafka.ListOffsetsRequest{
		Topics: map[string][]kafka.OffsetRequest{topic: {kafka.LastOffsetOf(l.cfg.Partition)}},
	})
	if err != nil {
		return "", errs.E(errs.ErrTransport, "kafkax.tail", err)
	}
	for _, p := range res.Topics[topic] {
		if p.Partition != l.cfg.Partition {
			continue
		}
		if p.Error != nil {
			return "", errs.E(errs.ErrTransport, "kafkax.tail", p.Error)
		}
		if p.LastOffset <= 0 {
			return stream.Origin, nil
		}
		// LastOffset is the next offset to be written; its predecessor has id LastOffset.
		return strconv.FormatInt(p.LastOffset, 10), nil
	}
	return stream.Origin, nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tr, ok := l.client.Transport.(*kafka.Transport); ok {
		tr.CloseIdleConnections()
	}
	return nil
}

// resumeOffset moves a cursor that fell below the log start up to the first retained offset.
func resumeOffset(cursor, first int64) (int64, bool) {
	if cursor < first {
		return first, true
	}
	return cursor, false
}

func idFromOffset(offset int64) string {
	return strconv.FormatInt(offset+1, 10)
}

func offsetAfter(id string) (int64, error) {
	if id == "" || id == stream.Origin || id == "0" {
		return 0, nil
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n < 0 {
		return 0, errs.E(errs.ErrValidation, "kafkax.cursor", errs.ValidationError("invalid entry id "+strconv.Quote(id)))
	}
	return n, nil
}

func decodeFields(b kafka.Bytes) (map[string]string, error) {
	if b == nil {
		return map[string]string{}, nil
	}
	defer func() { _ = b.Close() }()
	raw, err := io.ReadAll(b)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if len(raw) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func shouldReset(err error) bool {
	// Heuristic: reset on typical network/metadata problems.
	s := strings.ToLower(err.Error())
	suspects := []string{
		"dial tcp",
		"connection refused",
		"i/o timeout",
		"eof",
		"broken pipe",
		"not leader",
		"unknown broker",
		"failed to dial",
	}
	for _, sub := range suspects {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func (l *Log) resetOnce() {
	l.mu.Lock()
	defer l.mu.Unlock()
	// Rate-limit resets to avoid tight loops.
	if time.Since(l.lastReset) < 2*time.Second {
		return
	}
	if tr, ok := l.client.Transport.(*kafka.Transport); ok {
		tr.CloseIdleConnections()
	}
	l.client = newClient(l.cfg)
	l.lastReset = time.Now()
}
