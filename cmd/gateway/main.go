package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/k1networth/orderflow/internal/correlation"
	"github.com/k1networth/orderflow/internal/gateway"
	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/k1networth/orderflow/internal/shared/config"
	"github.com/k1networth/orderflow/internal/shared/httpx"
	"github.com/k1networth/orderflow/internal/shared/logger"
	"github.com/k1networth/orderflow/internal/stream/backend"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const appName = "gateway"

func main() {
	loader := config.NewLoader(config.DefaultFile)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var level slog.LevelVar
	level.Set(logger.ParseLevel(cfg.LogLevel))
	log := logger.New(appName, cfg.AppEnv, &level)
	loader.Watch(func(c config.Config) {
		level.Set(logger.ParseLevel(c.LogLevel))
		log.Info("config_reloaded", slog.String("log_level", level.Level().String()))
	}, func(err error) {
		log.Warn("config_reload_failed", slog.String("err", err.Error()))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr, err := backend.Open(cfg, log)
	if err != nil {
		log.Error("stream_open_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := tr.Close(); err != nil {
			log.Error("stream_close_failed", slog.String("err", err.Error()))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := correlation.NewClient(tr, log, correlation.Config{
		PollInterval: cfg.PollInterval,
		Timeout:      cfg.RequestTimeout,
		BatchSize:    int64(cfg.BatchSize),
	}, correlation.NewMetrics(reg))

	gin.SetMode(gin.ReleaseMode)
	api := gateway.NewEngine(&gateway.Handler{Log: log, Client: client})

	handler := httpx.NewRouter(log, httpx.RouterConfig{
		Registry: reg,
		API:      api,
		Ready: func(ctx context.Context) error {
			_, err := tr.Tail(ctx, protocol.Purchase.ResponseTopic())
			return err
		},
	})
	srv := httpx.NewServer(cfg.HTTPAddr, handler)

	log.Info("gateway_start",
		slog.String("stream_backend", cfg.StreamBackend),
		slog.String("request_timeout", cfg.RequestTimeout.String()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpx.Serve(gctx, log, srv, 10*time.Second) })

	if err := g.Wait(); err != nil {
		log.Error("gateway_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
