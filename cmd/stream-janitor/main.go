package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/k1networth/orderflow/internal/janitor"
	"github.com/k1networth/orderflow/internal/shared/config"
	"github.com/k1networth/orderflow/internal/shared/httpx"
	"github.com/k1networth/orderflow/internal/shared/logger"
	"github.com/k1networth/orderflow/internal/stream"
	"github.com/k1networth/orderflow/internal/stream/backend"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const appName = "stream-janitor"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	var level slog.LevelVar
	level.Set(logger.ParseLevel(cfg.LogLevel))
	log := logger.New(appName, cfg.AppEnv, &level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr, err := backend.Open(cfg, log)
	if err != nil {
		log.Error("stream_open_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = tr.Close() }()

	trimmer, ok := tr.(stream.Trimmer)
	if !ok {
		// Kafka retention is configured on the broker.
		log.Info("janitor_not_needed", slog.String("stream_backend", cfg.StreamBackend))
		return
	}

	reg := prometheus.NewRegistry()
	j := &janitor.Janitor{
		Trimmer:   trimmer,
		Log:       log,
		Metrics:   janitor.NewMetrics(reg),
		Interval:  cfg.JanitorInterval,
		Retention: cfg.JanitorRetention,
	}
	srv := httpx.NewServer(cfg.MetricsAddr, httpx.NewRouter(log, httpx.RouterConfig{Registry: reg}))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return j.Run(gctx) })
	g.Go(func() error { return httpx.Serve(gctx, log, srv, 5*time.Second) })

	if err := g.Wait(); err != nil {
		log.Error("janitor_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
