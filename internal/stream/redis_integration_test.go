package stream_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/k1networth/orderflow/internal/stream"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisContainerTrim(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("docker/container runtime unavailable: %v", r)
		}
	}()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("docker/container runtime unavailable: %v", err)
	}
	defer func() { _ = ctr.Terminate(ctx) }()

	host, _ := ctr.Host(ctx)
	port, _ := ctr.MappedPort(ctx, "6379")

	tr := stream.NewRedisTransport(stream.RedisConfig{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	defer func() { _ = tr.Close() }()

	if _, err := tr.Append(ctx, "stream_app3_app1", map[string]string{"status": "true"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	n, err := tr.Trim(ctx, "stream_app3_app1", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 trimmed entry, got %d", n)
	}

	left, err := tr.Read(ctx, "stream_app3_app1", stream.Origin, 0, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected empty topic after trim, got %d entries", len(left))
	}
}
