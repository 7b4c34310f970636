package httpx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/k1networth/orderflow/internal/shared/httpx"
	"github.com/k1networth/orderflow/internal/shared/requestid"
	"github.com/prometheus/client_golang/prometheus"
)

func testLogger() *slog.Logger {
	h := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(h).With(
		slog.String("app", "test"),
		slog.String("env", "test"),
	)
}

// echoAPI answers with the request id it sees, under a templated route label.
var echoAPI = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	httpx.SetRoute(r.Context(), "/echo/:id")
	_, _ = w.Write([]byte(requestid.Get(r.Context())))
})

func newRouterForTest(ready httpx.ReadyFunc) (http.Handler, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return httpx.NewRouter(testLogger(), httpx.RouterConfig{Registry: reg, API: echoAPI, Ready: ready}), reg
}

func TestHealthzReturns200AndBodyOK(t *testing.T) {
	h, _ := newRouterForTest(nil)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func TestReadyzReflectsCheck(t *testing.T) {
	h, _ := newRouterForTest(func(context.Context) error { return errors.New("redis down") })
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected %d, got %d", http.StatusServiceUnavailable, resp.StatusCode)
	}
}

func TestRequestIDGeneratedIfMissing(t *testing.T) {
	h, _ := newRouterForTest(nil)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/echo/1")
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	got := resp.Header.Get("X-Request-Id")
	re := regexp.MustCompile(`^[0-9a-f]{32}$`)
	if !re.MatchString(got) {
		t.Fatalf("expected 32-char hex request id, got %q", got)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != got {
		t.Fatalf("expected handler to see request id %q, got %q", got, body)
	}
}

func TestRequestIDPreservedIfProvided(t *testing.T) {
	h, _ := newRouterForTest(nil)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Request-Id", "test123")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := resp.Header.Get("X-Request-Id"); got != "test123" {
		t.Fatalf("expected X-Request-Id %q, got %q", "test123", got)
	}
}

func TestMetricsUseRouteLabel(t *testing.T) {
	h, _ := newRouterForTest(nil)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	for _, id := range []string{"1", "2"} {
		resp, err := http.Get(srv.URL + "/echo/" + id)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		_ = resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	want := `http_requests_total{method="GET",route="/echo/:id",status="200"} 2`
	if !strings.Contains(string(body), want) {
		t.Fatalf("expected %q in metrics output", want)
	}
}
