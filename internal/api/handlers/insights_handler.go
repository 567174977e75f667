package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/convopulse/convopulse/internal/models"
	"github.com/convopulse/convopulse/internal/services"
)

type InsightsHandler struct {
	svc services.InsightsService
}

func NewInsightsHandler(svc services.InsightsService) *InsightsHandler {
	return &InsightsHandler{svc: svc}
}

func (h *InsightsHandler) Patterns(c *gin.Context) {
	rows, err := h.svc.Patterns(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if rows == nil {
		rows = []models.UsagePattern{}
	}
	c.JSON(http.StatusOK, rows)
}

func (h *InsightsHandler) Summary(c *gin.Context) {
	out, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
