package correlation_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/k1networth/orderflow/internal/correlation"
	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/k1networth/orderflow/internal/shared/errs"
	"github.com/k1networth/orderflow/internal/stream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

type fixture struct {
	tr      *stream.RedisTransport
	mr      *miniredis.Miniredis
	client  *correlation.Client
	metrics *correlation.Metrics
}

func newFixture(t *testing.T, cfg correlation.Config) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	tr := stream.NewRedisTransport(stream.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = tr.Close() })
	m := correlation.NewMetrics(prometheus.NewRegistry())
	return fixture{tr: tr, mr: mr, metrics: m, client: correlation.NewClient(tr, testLogger(), cfg, m)}
}

// answer runs a fake worker for one domain until the test ends. reply builds the response
// for each work item; returning false skips the item.
func answer(t *testing.T, tr stream.Transport, domain protocol.Domain, reply func(protocol.WorkItem) (protocol.Response, bool)) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.Cleanup(func() {
		cancel()
		<-done
	})

	go func() {
		defer close(done)
		cursor := stream.Origin
		for ctx.Err() == nil {
			entries, err := tr.Read(ctx, domain.RequestTopic(), cursor, 50*time.Millisecond, 10)
			if err != nil {
				continue
			}
			for _, e := range entries {
				cursor = e.ID
				item, err := protocol.DecodeWorkItem(e.Fields)
				if err != nil {
					continue
				}
				resp, ok := reply(item)
				if !ok {
					continue
				}
				_, _ = tr.Append(ctx, domain.ResponseTopic(), resp.Fields())
			}
		}
	}()
}

func TestRequestReturnsMatchedResponseAndDeletesIt(t *testing.T) {
	f := newFixture(t, correlation.Config{PollInterval: 100 * time.Millisecond, Timeout: 5 * time.Second})
	ctx := context.Background()

	answer(t, f.tr, protocol.Purchase, func(item protocol.WorkItem) (protocol.Response, bool) {
		// A response for somebody else lands first and must survive.
		_, _ = f.tr.Append(ctx, protocol.Purchase.ResponseTopic(), protocol.Success("someone-else", protocol.Result{protocol.FieldSaleID: "1"}).Fields())
		return protocol.Success(item.CorrelationID, protocol.Result{protocol.FieldSaleID: "42"}), true
	})

	resp, err := f.client.Request(ctx, protocol.Purchase, map[string]string{"tipo_compra": "produto_fisico"})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.Result[protocol.FieldSaleID] != "42" {
		t.Fatalf("expected venda_id 42, got %+v", resp)
	}

	left, err := f.tr.Read(ctx, protocol.Purchase.ResponseTopic(), stream.Origin, 0, 10)
	if err != nil {
		t.Fatalf("read responses: %v", err)
	}
	if len(left) != 1 || left[0].Fields[protocol.FieldCorrelationID] != "someone-else" {
		t.Fatalf("expected only the foreign response to remain, got %+v", left)
	}

	if got := testutil.ToFloat64(f.metricsCounter("purchase", "success")); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
}

func (f fixture) metricsCounter(domain, outcome string) prometheus.Collector {
	return correlation.RequestsCounter(f.metrics, domain, outcome)
}

func TestRequestRemoteFailure(t *testing.T) {
	f := newFixture(t, correlation.Config{PollInterval: 100 * time.Millisecond, Timeout: 5 * time.Second})

	answer(t, f.tr, protocol.Shipment, func(item protocol.WorkItem) (protocol.Response, bool) {
		return protocol.Failure(item.CorrelationID, errs.E(errs.ErrNotFound, "shipment.find", nil)), true
	})

	resp, err := f.client.Request(context.Background(), protocol.Shipment, map[string]int{"codigo_venda": 99})
	if !errors.Is(err, errs.ErrRemoteProcessing) {
		t.Fatalf("expected remote processing error, got %v", err)
	}
	if resp.Status || resp.ErrorCode != "not_found" {
		t.Fatalf("expected failed response with not_found marker, got %+v", resp)
	}
	if resp.Result != nil {
		t.Fatalf("failed response must not carry a result")
	}
}

func TestRequestTimesOutWithinDeadline(t *testing.T) {
	timeout := 300 * time.Millisecond
	f := newFixture(t, correlation.Config{PollInterval: time.Second, Timeout: timeout})
	ctx := context.Background()

	start := time.Now()
	_, err := f.client.Request(ctx, protocol.Commission, map[string]int{"vendedor_id": 1, "mes": 7, "ano": 2024})
	elapsed := time.Since(start)

	if !errors.Is(err, errs.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	// one poll interval is the allowed slack
	if elapsed > timeout+time.Second {
		t.Fatalf("expected to return within %v, took %v", timeout+time.Second, elapsed)
	}

	published, err := f.tr.Read(ctx, protocol.Commission.RequestTopic(), stream.Origin, 0, 10)
	if err != nil {
		t.Fatalf("read requests: %v", err)
	}
	if len(published) != 1 {
		t.Fatalf("expected exactly one published work item, got %d", len(published))
	}
}

func TestRequestHonoursCallerDeadline(t *testing.T) {
	f := newFixture(t, correlation.Config{PollInterval: time.Second, Timeout: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.client.Request(ctx, protocol.Streaming, map[string]string{"cliente_id": "1"})
	if !errors.Is(err, errs.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("caller deadline ignored")
	}
}

func TestRequestLeavesLateForeignResponsesAlone(t *testing.T) {
	f := newFixture(t, correlation.Config{PollInterval: 50 * time.Millisecond, Timeout: 300 * time.Millisecond})
	ctx := context.Background()

	answer(t, f.tr, protocol.Association, func(item protocol.WorkItem) (protocol.Response, bool) {
		return protocol.Success("not-"+item.CorrelationID, nil), true
	})

	_, err := f.client.Request(ctx, protocol.Association, map[string]string{"tipo_assinatura": "nova_associacao"})
	if !errors.Is(err, errs.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}

	left, err := f.tr.Read(ctx, protocol.Association.ResponseTopic(), stream.Origin, 0, 10)
	if err != nil {
		t.Fatalf("read responses: %v", err)
	}
	if len(left) != 1 {
		t.Fatalf("expected unmatched response to stay on the topic, got %d entries", len(left))
	}
}

func TestConcurrentRequestsGetTheirOwnResponses(t *testing.T) {
	f := newFixture(t, correlation.Config{PollInterval: 50 * time.Millisecond, Timeout: 5 * time.Second})

	answer(t, f.tr, protocol.Purchase, func(item protocol.WorkItem) (protocol.Response, bool) {
		// echo the payload back so each caller can check it got its own answer
		return protocol.Success(item.CorrelationID, protocol.Result{protocol.FieldSaleID: string(item.Payload)}), true
	})

	const callers = 5
	var wg sync.WaitGroup
	errCh := make(chan error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload := map[string]int{"n": i}
			resp, err := f.client.Request(context.Background(), protocol.Purchase, payload)
			if err != nil {
				errCh <- err
				return
			}
			want, _ := protocol.NewWorkItem("", "", payload)
			if resp.Result[protocol.FieldSaleID] != string(want.Payload) {
				errCh <- errors.New("got response for " + resp.Result[protocol.FieldSaleID] + ", want " + string(want.Payload))
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent request: %v", err)
	}
}

func TestRequestTransportError(t *testing.T) {
	f := newFixture(t, correlation.Config{PollInterval: 50 * time.Millisecond, Timeout: 10 * time.Second})
	f.mr.Close()

	_, err := f.client.Request(context.Background(), protocol.Purchase, map[string]string{})
	if !errors.Is(err, errs.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
