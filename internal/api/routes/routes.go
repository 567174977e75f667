package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/convopulse/convopulse/internal/api/handlers"
	"github.com/convopulse/convopulse/internal/api/middleware"
)

type Deps struct {
	Ingestion    *handlers.IngestionHandler
	Conversation *handlers.ConversationHandler
	Insights     *handlers.InsightsHandler

	IngestAPIKey string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	v1 := r.Group("/api/v1")

	// Ingestion (shared-secret API key)
	track := v1.Group("/")
	track.Use(middleware.APIKeyAuth(d.IngestAPIKey))
	track.POST("/conversations/track", d.Ingestion.Track)

	// Read-back surface over the processed data
	v1.GET("/conversations", d.Conversation.List)
	v1.GET("/conversations/:id/messages", d.Conversation.Messages)
	v1.GET("/conversations/:id/health", d.Conversation.Health)
	v1.GET("/conversations/:id/failures", d.Conversation.Failures)

	v1.GET("/patterns", d.Insights.Patterns)
	v1.GET("/analytics/summary", d.Insights.Summary)
}
