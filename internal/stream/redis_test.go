package stream_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/k1networth/orderflow/internal/shared/errs"
	"github.com/k1networth/orderflow/internal/stream"
)

func newTransport(t *testing.T) (*stream.RedisTransport, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	tr := stream.NewRedisTransport(stream.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = tr.Close() })
	return tr, mr
}

func TestAppendThenReadAfterCursor(t *testing.T) {
	tr, _ := newTransport(t)
	ctx := context.Background()

	var ids []string
	for _, v := range []string{"a", "b", "c"} {
		id, err := tr.Append(ctx, "stream_app1_app3", map[string]string{"data": v})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		ids = append(ids, id)
	}

	all, err := tr.Read(ctx, "stream_app1_app3", stream.Origin, 0, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Fields["data"] != "a" || all[2].Fields["data"] != "c" {
		t.Fatalf("entries out of append order: %+v", all)
	}

	rest, err := tr.Read(ctx, "stream_app1_app3", ids[1], 0, 10)
	if err != nil {
		t.Fatalf("read after cursor: %v", err)
	}
	if len(rest) != 1 || rest[0].ID != ids[2] {
		t.Fatalf("expected only %s after cursor, got %+v", ids[2], rest)
	}
}

func TestReadEmptyTopicReturnsNothingAfterBlock(t *testing.T) {
	tr, _ := newTransport(t)

	start := time.Now()
	got, err := tr.Read(context.Background(), "stream_app5_app1", stream.Origin, 50*time.Millisecond, 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no entries, got %d", len(got))
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("read blocked far beyond its timeout")
	}
}

func TestReadWakesUpOnAppend(t *testing.T) {
	tr, _ := newTransport(t)
	ctx := context.Background()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = tr.Append(ctx, "stream_app2_app1", map[string]string{"status": "true"})
	}()

	got, err := tr.Read(ctx, "stream_app2_app1", stream.Origin, 2*time.Second, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || got[0].Fields["status"] != "true" {
		t.Fatalf("expected appended entry, got %+v", got)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	tr, _ := newTransport(t)
	ctx := context.Background()

	id, err := tr.Append(ctx, "stream_app6_app1", map[string]string{"status": "false"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	ok, err := tr.Delete(ctx, "stream_app6_app1", id)
	if err != nil || !ok {
		t.Fatalf("expected first delete to remove entry, got ok=%t err=%v", ok, err)
	}

	ok, err = tr.Delete(ctx, "stream_app6_app1", id)
	if err != nil {
		t.Fatalf("expected second delete to be a no-op, got %v", err)
	}
	if ok {
		t.Fatalf("expected second delete to report nothing removed")
	}
}

func TestTail(t *testing.T) {
	tr, _ := newTransport(t)
	ctx := context.Background()

	tail, err := tr.Tail(ctx, "stream_app4_app1")
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if tail != stream.Origin {
		t.Fatalf("expected origin for empty topic, got %q", tail)
	}

	_, _ = tr.Append(ctx, "stream_app4_app1", map[string]string{"n": "1"})
	last, _ := tr.Append(ctx, "stream_app4_app1", map[string]string{"n": "2"})

	tail, err = tr.Tail(ctx, "stream_app4_app1")
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if tail != last {
		t.Fatalf("expected tail %q, got %q", last, tail)
	}
}

func TestAppendUnreachableIsTransportError(t *testing.T) {
	mr := miniredis.RunT(t)
	tr := stream.NewRedisTransport(stream.RedisConfig{Addr: mr.Addr(), DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = tr.Close() })
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := tr.Append(ctx, "stream_app1_app2", map[string]string{"data": "{}"})
	if err == nil {
		t.Fatalf("expected error with broker down")
	}
	if !errors.Is(err, errs.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
