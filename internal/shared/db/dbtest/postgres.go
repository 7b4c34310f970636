// Package dbtest starts a throwaway Postgres for integration tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/k1networth/orderflow/internal/shared/db"
	"github.com/k1networth/orderflow/migrations"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Postgres returns a migrated database, or skips the test when no container runtime is
// available or -short is set.
func Postgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	var ctr testcontainers.Container
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Skipf("docker/container runtime unavailable: %v", r)
			}
		}()
		var err error
		ctr, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "postgres:16-alpine",
				ExposedPorts: []string{"5432/tcp"},
				Env: map[string]string{
					"POSTGRES_USER":     "orderflow",
					"POSTGRES_PASSWORD": "orderflow",
					"POSTGRES_DB":       "orderflow",
				},
				WaitingFor: wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60 * time.Second),
			},
			Started: true,
		})
		if err != nil {
			t.Skipf("docker/container runtime unavailable: %v", err)
		}
	}()
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, _ := ctr.Host(ctx)
	port, _ := ctr.MappedPort(ctx, "5432")
	url := fmt.Sprintf("postgres://orderflow:orderflow@%s:%s/orderflow?sslmode=disable", host, port.Port())

	pg, err := db.OpenPostgres(ctx, db.PostgresConfig{DatabaseURL: url, PingTimeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = pg.Close() })

	if err := db.Migrate(ctx, pg, migrations.FS); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pg
}
