package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/k1networth/orderflow/internal/association"
	"github.com/k1networth/orderflow/internal/commission"
	"github.com/k1networth/orderflow/internal/notify"
	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/k1networth/orderflow/internal/purchase"
	"github.com/k1networth/orderflow/internal/shared/config"
	"github.com/k1networth/orderflow/internal/shipment"
	"github.com/k1networth/orderflow/internal/streaming"
	"github.com/k1networth/orderflow/internal/worker"
)

// newHandler wires the domain's handler to Postgres, or to in-memory stores when pg is nil.
func newHandler(domain protocol.Domain, cfg config.Config, pg *sql.DB, log *slog.Logger) (worker.Handler, error) {
	switch domain {
	case protocol.Purchase:
		var store purchase.Store = purchase.NewInMemoryStore()
		if pg != nil {
			store = purchase.NewPostgresStore(pg)
		}
		return &purchase.Handler{Log: log, Store: store}, nil

	case protocol.Association:
		n, err := newNotifier(cfg, log)
		if err != nil {
			return nil, err
		}
		var store association.Store = association.NewInMemoryStore()
		if pg != nil {
			store = association.NewPostgresStore(pg)
		}
		return &association.Handler{Log: log, Store: store, Notifier: n}, nil

	case protocol.Streaming:
		n, err := newNotifier(cfg, log)
		if err != nil {
			return nil, err
		}
		var store streaming.Store = streaming.NewInMemoryStore()
		if pg != nil {
			store = streaming.NewPostgresStore(pg)
		}
		return &streaming.Handler{Log: log, Store: store, Notifier: n}, nil

	case protocol.Commission:
		var store commission.Store = commission.NewInMemoryStore()
		if pg != nil {
			store = commission.NewPostgresStore(pg)
		}
		return &commission.Handler{Log: log, Store: store}, nil

	case protocol.Shipment:
		var store shipment.Store = shipment.NewInMemoryStore()
		if pg != nil {
			store = shipment.NewPostgresStore(pg)
		}
		return &shipment.Handler{Log: log, Store: store, Company: shipment.Company(cfg.Company)}, nil
	}
	return nil, fmt.Errorf("no handler for domain %q", domain)
}

func newNotifier(cfg config.Config, log *slog.Logger) (*notify.Notifier, error) {
	catalog, err := notify.LoadCatalog()
	if err != nil {
		return nil, err
	}
	sender := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		TLS:      cfg.SMTPTLS,
		Timeout:  cfg.SMTPTimeout,
	})
	return &notify.Notifier{Sender: sender, Catalog: catalog, Log: log}, nil
}
