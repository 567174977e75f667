package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/convopulse/convopulse/internal/models"
	"github.com/convopulse/convopulse/internal/services"
)

type ConversationHandler struct {
	svc services.ConversationService
}

func NewConversationHandler(svc services.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type conversationListItem struct {
	ID          string `json:"id"`
	ExternalID  string `json:"external_id"`
	HealthScore *int   `json:"health_score"`
	Status      string `json:"status"`
	UpdatedAt   string `json:"updated_at"`
}

func (h *ConversationHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)

	rows, total, err := h.svc.List(c.Request.Context(), (page-1)*pageSize, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]conversationListItem, 0, len(rows))
	for _, conv := range rows {
		items = append(items, conversationListItem{
			ID:          conv.ID,
			ExternalID:  conv.ExternalID,
			HealthScore: conv.HealthScore,
			Status:      conv.Status,
			UpdatedAt:   conv.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, pageResponse{Items: items, Page: page, PageSize: pageSize, Total: total})
}

func (h *ConversationHandler) Messages(c *gin.Context) {
	rows, err := h.svc.Messages(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if rows == nil {
		rows = []models.Message{}
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ConversationHandler) Health(c *gin.Context) {
	report, err := h.svc.Health(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ConversationHandler) Failures(c *gin.Context) {
	rows, err := h.svc.Failures(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if rows == nil {
		rows = []models.Failure{}
	}
	c.JSON(http.StatusOK, rows)
}
