package shipment

import (
	"context"
	"log/slog"

	"github.com/k1networth/orderflow/internal/protocol"
)

// Handler builds the shipment guide of a stored sale.
type Handler struct {
	Log     *slog.Logger
	Store   Store
	Company Company
}

func (h *Handler) Handle(ctx context.Context, item protocol.WorkItem) (protocol.Result, error) {
	var req Request
	if err := protocol.Decode(item, &req); err != nil {
		return nil, err
	}

	rec, err := h.Store.FindSale(ctx, req.CodigoVenda)
	if err != nil {
		return nil, err
	}
	doc := BuildDocument(rec, h.Company)
	raw, err := doc.Encode()
	if err != nil {
		return nil, err
	}

	h.Log.Info("shipment_guide_generated",
		slog.String("correlation_id", item.CorrelationID),
		slog.String("numero_guia", doc.NumeroGuia),
		slog.String("royalty", doc.DepartamentoRoyalty),
	)
	return protocol.Result{protocol.FieldShipmentDoc: raw}, nil
}
