package purchase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/k1networth/orderflow/internal/protocol"
)

// Handler records a physical-product sale with its commission and either a royalty guide
// (books) or a shipment guide, all in one transaction.
type Handler struct {
	Log   *slog.Logger
	Store Store
	Now   func() time.Time
}

func (h *Handler) Handle(ctx context.Context, item protocol.WorkItem) (protocol.Result, error) {
	var req Request
	if err := protocol.Decode(item, &req); err != nil {
		return nil, err
	}
	sale, err := req.sale()
	if err != nil {
		return nil, err
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	var saleID int64
	err = h.Store.WithinTx(ctx, func(tx Tx) error {
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}

		err = tx.InsertCommission(ctx, Commission{
			VendaID:       id,
			VendedorID:    sale.VendedorID,
			DataPagamento: sale.Data,
			Valor:         sale.Preco,
			Status:        statusClosed,
		})
		if err != nil {
			return err
		}

		if req.IsBook() {
			err = tx.InsertRoyaltyGuide(ctx, RoyaltyGuide{
				VendaID:     id,
				DataGeracao: sale.Data,
				Status:      statusClosed,
				Valor:       float64(req.Detalhes.ValorRoyalty),
			})
		} else {
			err = tx.InsertShipmentGuide(ctx, ShipmentGuide{
				VendaID:             id,
				ClienteID:           sale.ClienteID,
				DataGeracao:         sale.Data,
				Status:              statusClosed,
				DataPrevistaEntrega: now().UTC().Add(deliveryLeadTime),
			})
		}
		if err != nil {
			return err
		}

		saleID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.Log.Info("sale_recorded",
		slog.Int64("venda_id", saleID),
		slog.String("correlation_id", item.CorrelationID),
		slog.Bool("royalty", req.IsBook()),
	)
	return protocol.Result{protocol.FieldSaleID: strconv.FormatInt(saleID, 10)}, nil
}
