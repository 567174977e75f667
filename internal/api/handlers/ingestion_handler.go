package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/convopulse/convopulse/internal/queue"
	"github.com/convopulse/convopulse/internal/services"
	"github.com/convopulse/convopulse/internal/utils"
)

type IngestionHandler struct {
	svc    services.IngestionService
	runner queue.Runner
}

func NewIngestionHandler(svc services.IngestionService, runner queue.Runner) *IngestionHandler {
	return &IngestionHandler{svc: svc, runner: runner}
}

// Track accepts a conversation batch, rejects invalid input synchronously,
// and enqueues the ingest job. With an inline runner the whole
// ingest→process chain runs before the response is written.
func (h *IngestionHandler) Track(c *gin.Context) {
	var req services.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "IngestionHandler.Track", "invalid request body", err))
		return
	}

	if err := h.svc.Validate(req); err != nil {
		writeError(c, err)
		return
	}

	payload, err := json.Marshal(req)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "IngestionHandler.Track", "failed to encode job payload", err))
		return
	}

	if err := h.runner.Enqueue(c.Request.Context(), queue.KindIngest, payload); err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, "IngestionHandler.Track", "failed to queue conversation", err))
		return
	}

	// The id echoed back is the producer's own: the internal id may not exist
	// yet in broker mode, so the response never promises one.
	c.JSON(http.StatusAccepted, gin.H{
		"status":      "queued",
		"external_id": req.ConversationID,
	})
}
