package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"biocatalyst/internal/repository"
)

type OrdersHandler struct {
	Store  repository.Repository
	Logger *zap.Logger
}

func (h *OrdersHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1")
	group.GET("/orders", h.listOrders)
}

func (h *OrdersHandler) listOrders(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable", nil)
		return
	}
	items, err := h.Store.ListStraddleOrders(c.Request.Context(), repository.ListStraddleOrdersParams{
		Limit:  intQuery(c, "limit", 100),
		Offset: intQuery(c, "offset", 0),
		Ticker: stringQueryPtr(c, "ticker"),
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list straddle orders failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}
