package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/k1networth/orderflow/internal/association"
	"github.com/k1networth/orderflow/internal/commission"
	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/k1networth/orderflow/internal/purchase"
	"github.com/k1networth/orderflow/internal/shipment"
	"github.com/k1networth/orderflow/internal/streaming"
)

const maxBodyBytes = 1 << 20

// Requester is satisfied by *correlation.Client.
type Requester interface {
	Request(ctx context.Context, domain protocol.Domain, payload any) (protocol.Response, error)
}

type Handler struct {
	Log    *slog.Logger
	Client Requester
}

type reply struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func (h *Handler) ProcessPurchase(c *gin.Context) {
	var req purchase.Request
	if !h.bindJSON(c, &req) {
		return
	}
	if req.TipoCompra != purchase.TypePhysical {
		WriteError(c, http.StatusBadRequest, "validation_error", "Tipo de compra não suportado")
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	resp, ok := h.send(c, protocol.Purchase, req, "Erro ao processar compra.")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, reply{
		Message: "Recebido e processado por " + purchase.TypePhysical,
		Data:    map[string]any{protocol.FieldSaleID: resp.Result[protocol.FieldSaleID]},
	})
}

func (h *Handler) ProcessAssociation(c *gin.Context) {
	var req association.Request
	if !h.bindJSON(c, &req) {
		return
	}
	if !association.IsKind(req.TipoAssinatura) {
		WriteError(c, http.StatusBadRequest, "validation_error", "Tipo de assinatura não suportado")
		return
	}

	if _, ok := h.send(c, protocol.Association, req, "Erro ao processar associação."); !ok {
		return
	}
	c.JSON(http.StatusOK, reply{Message: "Recebido e processado por " + req.TipoAssinatura})
}

func (h *Handler) RequestStreaming(c *gin.Context) {
	var req streaming.Request
	if !h.bindJSON(c, &req) {
		return
	}

	resp, ok := h.send(c, protocol.Streaming, req, "Erro ao enviar vídeos.")
	if !ok {
		return
	}
	video, ok := h.decodeField(c, resp, protocol.FieldVideo)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, reply{
		Message: "Recebido e processado por streaming",
		Data:    map[string]any{protocol.FieldVideo: video},
	})
}

func (h *Handler) CalculateCommission(c *gin.Context) {
	var req commission.Request
	if !h.bindQueryOrJSON(c, &req) {
		return
	}

	resp, ok := h.send(c, protocol.Commission, req, "Erro ao calcular comissão do vendedor.")
	if !ok {
		return
	}
	rows, ok := h.decodeField(c, resp, protocol.FieldSellers)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, reply{
		Message: "Recebido e processado por Comissão",
		Data:    map[string]any{"comissao": rows},
	})
}

func (h *Handler) GenerateShipment(c *gin.Context) {
	var req shipment.Request
	if !h.bindQueryOrJSON(c, &req) {
		return
	}

	resp, ok := h.send(c, protocol.Shipment, req, "Erro ao gerar a guia de remessa")
	if !ok {
		return
	}
	doc, ok := h.decodeField(c, resp, protocol.FieldShipmentDoc)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, reply{
		Message: "Recebido e processado por Remessa",
		Data:    map[string]any{protocol.FieldShipmentDoc: doc},
	})
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(req); err != nil {
		WriteError(c, http.StatusBadRequest, "validation_error", bindMessage(err))
		return false
	}
	return true
}

// bindQueryOrJSON reads GET parameters from a JSON body when one is sent, else from the
// query string.
func (h *Handler) bindQueryOrJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength > 0 || c.ContentType() == binding.MIMEJSON {
		return h.bindJSON(c, req)
	}
	if err := c.ShouldBindWith(req, binding.Query); err != nil {
		WriteError(c, http.StatusBadRequest, "validation_error", bindMessage(err))
		return false
	}
	return true
}

// send runs one correlated request and writes the error reply itself when it fails.
func (h *Handler) send(c *gin.Context, domain protocol.Domain, req any, failure string) (protocol.Response, bool) {
	resp, err := h.Client.Request(c.Request.Context(), domain, req)
	if err == nil {
		return resp, true
	}

	status, code := statusFor(err, resp.ErrorCode)
	h.Log.Error("gateway_request_failed",
		slog.String("domain", string(domain)),
		slog.Int("status", status),
		slog.String("code", code),
		slog.String("err", err.Error()),
	)
	msg := failure
	if status != http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	WriteError(c, status, code, msg)
	return protocol.Response{}, false
}

func (h *Handler) decodeField(c *gin.Context, resp protocol.Response, field string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(resp.Result[field]), &v); err != nil {
		h.Log.Error("gateway_bad_result",
			slog.String("field", field),
			slog.String("correlation_id", resp.CorrelationID),
			slog.String("err", err.Error()),
		)
		WriteError(c, http.StatusInternalServerError, "processing_error", "invalid worker response")
		return nil, false
	}
	return v, true
}
