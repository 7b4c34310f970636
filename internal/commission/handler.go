package commission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/k1networth/orderflow/internal/shared/errs"
)

// Handler reports a seller's monthly sales and commission totals.
type Handler struct {
	Log   *slog.Logger
	Store Store
}

func (h *Handler) Handle(ctx context.Context, item protocol.WorkItem) (protocol.Result, error) {
	var req Request
	if err := protocol.Decode(item, &req); err != nil {
		return nil, err
	}

	rows, err := h.Store.Totals(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errs.E(errs.ErrNotFound, "commission.totals",
			fmt.Errorf("no sales for seller %d in %02d/%d", req.VendedorID, req.Mes, req.Ano))
	}

	h.Log.Info("commission_calculated",
		slog.String("correlation_id", item.CorrelationID),
		slog.Int("vendedor_id", req.VendedorID),
		slog.Int("rows", len(rows)),
	)
	return protocol.JSONResult(protocol.FieldSellers, rows)
}
