package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/k1networth/orderflow/internal/cursor"
	"github.com/k1networth/orderflow/internal/inbox"
	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/k1networth/orderflow/internal/shared/config"
	"github.com/k1networth/orderflow/internal/shared/db"
	"github.com/k1networth/orderflow/internal/shared/httpx"
	"github.com/k1networth/orderflow/internal/shared/logger"
	"github.com/k1networth/orderflow/internal/stream"
	"github.com/k1networth/orderflow/internal/stream/backend"
	"github.com/k1networth/orderflow/internal/worker"
	"github.com/k1networth/orderflow/migrations"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const appName = "worker"

func main() {
	migrate := flag.Bool("migrate", false, "apply schema migrations before consuming")
	flag.Parse()

	loader := config.NewLoader(config.DefaultFile)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	domain, err := protocol.ParseDomain(cfg.WorkerDomain)
	if err != nil {
		fmt.Fprintln(os.Stderr, "WORKER_DOMAIN:", err)
		os.Exit(2)
	}

	var level slog.LevelVar
	level.Set(logger.ParseLevel(cfg.LogLevel))
	log := logger.New(appName+"-"+string(domain), cfg.AppEnv, &level)
	loader.Watch(func(c config.Config) {
		level.Set(logger.ParseLevel(c.LogLevel))
		log.Info("config_reloaded", slog.String("log_level", level.Level().String()))
	}, func(err error) {
		log.Warn("config_reload_failed", slog.String("err", err.Error()))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, domain, *migrate, log); err != nil {
		log.Error("worker_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, domain protocol.Domain, migrate bool, log *slog.Logger) error {
	var pg *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		pg, err = db.OpenPostgres(ctx, db.PostgresConfig{DatabaseURL: cfg.DatabaseURL})
		if err != nil {
			return err
		}
		defer func() { _ = pg.Close() }()

		if migrate {
			if err := db.Migrate(ctx, pg, migrations.FS); err != nil {
				return err
			}
			log.Info("migrations_applied")
		}
	} else {
		log.Warn("database_disabled", slog.String("reason", "DATABASE_URL is empty, using in-memory stores"))
	}

	tr, err := backend.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = tr.Close() }()

	cursors, closeCursors, err := openCursors(cfg, tr)
	if err != nil {
		return err
	}
	defer closeCursors()

	handler, err := newHandler(domain, cfg, pg, log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	loop := &worker.Loop{
		Domain:        domain,
		Consumer:      cfg.WorkerConsumer,
		Transport:     tr,
		Cursors:       cursors,
		Handler:       handler,
		Log:           log,
		Metrics:       worker.NewMetrics(reg),
		PollInterval:  cfg.PollInterval,
		BatchSize:     int64(cfg.BatchSize),
		HandleTimeout: cfg.HandleTimeout,
	}
	if cfg.WorkerIdempotency {
		loop.Inbox = inbox.NewStore(pg)
	}

	probes := httpx.NewRouter(log, httpx.RouterConfig{
		Registry: reg,
		Ready: func(context.Context) error {
			if loop.State() == worker.StateIdle {
				return errors.New("loop is not running")
			}
			return nil
		},
	})
	srv := httpx.NewServer(cfg.MetricsAddr, probes)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error { return httpx.Serve(gctx, log, srv, 5*time.Second) })
	return g.Wait()
}

func openCursors(cfg config.Config, tr stream.Transport) (cursor.Store, func(), error) {
	switch cfg.CursorStore {
	case "redis":
		rt, ok := tr.(*stream.RedisTransport)
		if !ok {
			return nil, nil, errors.New("CURSOR_STORE=redis needs the redis stream backend")
		}
		return cursor.NewRedisStore(rt.Client()), func() {}, nil
	case "sqlite":
		s, err := cursor.OpenSQLiteStore(cfg.CursorPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return cursor.NewMemoryStore(), func() {}, nil
	}
}
