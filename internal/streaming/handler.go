package streaming

import (
	"context"
	"log/slog"

	"github.com/k1networth/orderflow/internal/notify"
	"github.com/k1networth/orderflow/internal/protocol"
)

type Notifier interface {
	Notify(ctx context.Context, template, toName, toAddr string, data any) error
}

// Handler emails a client the links of a requested video and answers with the delivered list.
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

	videos, err := h.Store.FindVideos(ctx, string(req.Detalhes.IDStreaming))
	if err != nil {
		return nil, err
	}
	client, err := h.Store.FindClient(ctx, req.cpf())
	if err != nil {
		return nil, err
	}

	err = h.Notifier.Notify(ctx, notify.TemplateStreaming, client.Nome, client.Email, map[string]any{
		"Nome":   client.Nome,
		"Videos": videos,
	})
	if err != nil {
		return nil, err
	}

	h.Log.Info("videos_delivered",
		slog.String("correlation_id", item.CorrelationID),
		slog.Int("videos", len(videos)),
	)
	return protocol.JSONResult(protocol.FieldVideo, Delivery{CPF: client.CPF, Videos: videos})
}
