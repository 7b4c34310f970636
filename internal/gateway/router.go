package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/k1networth/orderflow/internal/shared/httpx"
)

// NewEngine registers the order routes. Request id, access log and metrics come from the
// httpx chain the engine is mounted behind.
func NewEngine(h *Handler) *gin.Engine {
	e := gin.New()
	e.Use(gin.Recovery(), routeLabel)
	e.HandleMethodNotAllowed = true
	e.NoRoute(func(c *gin.Context) { WriteError(c, http.StatusNotFound, "not_found", "not found") })
	e.NoMethod(func(c *gin.Context) {
		WriteError(c, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	e.POST("/processar_compra", h.ProcessPurchase)
	e.POST("/processar_associacao", h.ProcessAssociation)
	e.POST("/streaming", h.RequestStreaming)
	e.GET("/calcular_comissao", h.CalculateCommission)
	e.GET("/gera_remessa", h.GenerateShipment)
	return e
}

func routeLabel(c *gin.Context) {
	if p := c.FullPath(); p != "" {
		httpx.SetRoute(c.Request.Context(), p)
	}
	c.Next()
}

func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
		}
		return "invalid fields: " + strings.Join(fields, ", ")
	}
	return "invalid json"
}
