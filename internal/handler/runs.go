package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"biocatalyst/internal/engine"
)

type RunsHandler struct {
	Engine *engine.Engine
}

func (h *RunsHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1")
	group.GET("/runs/last", h.lastRun)
}

func (h *RunsHandler) lastRun(c *gin.Context) {
	report := h.Engine.LastRun()
	if report == nil {
		Error(c, http.StatusNotFound, "no trading run recorded yet", nil)
		return
	}
	Ok(c, report, nil)
}
