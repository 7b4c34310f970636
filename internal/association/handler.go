// Package association creates, upgrades and activates client associations.
//
// The confirmation email is sent inside the store transaction, before commit. A failed send
// rolls the write back. A commit that fails after a successful send leaves the client told
// about a change that was not kept.
package association

import (
	"context"
	"errors"
	"log/slog"

	"github.com/k1networth/orderflow/internal/notify"
	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/k1networth/orderflow/internal/shared/errs"
)

// Notifier is satisfied by *notify.Notifier.
type Notifier interface {
	Notify(ctx context.Context, template, toName, toAddr string, data any) error
}

// Handler creates, upgrades or activates a client's association and emails a confirmation.
// The write and the email share one transaction: a failed email leaves nothing written.
type Handler struct {
	Log      *slog.Logger
	Store    Store
	Notifier Notifier
}

func (h *Handler) Handle(ctx context.Context, item protocol.WorkItem) (protocol.Result, error) {
	var req Request
	if err := protocol.Decode(item, &req); err != nil {
		return nil, err
	}
	if !IsKind(req.TipoAssinatura) {
		return nil, errs.ValidationError("tipo_assinatura " + req.TipoAssinatura + " is not supported")
	}

	cpf := req.cpf()
	err := h.Store.WithinTx(ctx, func(tx Tx) error {
		var err error
		switch req.TipoAssinatura {
		case KindNew:
			err = h.create(ctx, tx, req)
		case KindUpgrade:
			err = h.upgrade(ctx, tx, cpf, req.Detalhes.NomePlano)
		case KindActivate:
			err = h.activate(ctx, tx, cpf)
		}
		if err != nil {
			return err
		}

		m, err := tx.Find(ctx, cpf)
		if err != nil {
			return err
		}
		if m.Email == "" {
			return errs.E(errs.ErrNotFound, "association.contact", errors.New("client "+cpf+" has no email"))
		}
		return h.Notifier.Notify(ctx, notify.TemplateAssociation, m.Nome, m.Email, map[string]string{
			"Nome":    m.Nome,
			"Servico": service(req.TipoAssinatura),
		})
	})
	if err != nil {
		return nil, err
	}

	h.Log.Info("association_updated",
		slog.String("kind", req.TipoAssinatura),
		slog.String("correlation_id", item.CorrelationID),
	)
	return protocol.Result{}, nil
}

func (h *Handler) create(ctx context.Context, tx Tx, req Request) error {
	date, err := protocol.ParseDate("data", req.Data)
	if err != nil {
		return err
	}
	ativo := true
	if req.Detalhes.Ativo != nil {
		ativo = bool(*req.Detalhes.Ativo)
	}
	return tx.Insert(ctx, NewMembership{
		ClienteID:   req.cpf(),
		VendedorID:  req.VendedorID,
		DataGeracao: date,
		Plano:       req.Detalhes.NomePlano,
		Ativo:       ativo,
	})
}

// upgrade changes the plan of an active association.
func (h *Handler) upgrade(ctx context.Context, tx Tx, cpf, plano string) error {
	m, err := tx.Find(ctx, cpf)
	if err != nil {
		return err
	}
	if !m.Ativo {
		return errs.E(errs.ErrRejected, "association.upgrade", errors.New("association of "+cpf+" is inactive"))
	}
	return tx.UpdatePlan(ctx, cpf, plano)
}

// activate reactivates an inactive association.
func (h *Handler) activate(ctx context.Context, tx Tx, cpf string) error {
	m, err := tx.Find(ctx, cpf)
	if err != nil {
		return err
	}
	if m.Ativo {
		return errs.E(errs.ErrRejected, "association.activate", errors.New("association of "+cpf+" is already active"))
	}
	return tx.Activate(ctx, cpf)
}
