package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/convopulse/convopulse/config"
	"github.com/convopulse/convopulse/internal/api/handlers"
	"github.com/convopulse/convopulse/internal/api/middleware"
	"github.com/convopulse/convopulse/internal/api/routes"
	"github.com/convopulse/convopulse/internal/cache"
	applogger "github.com/convopulse/convopulse/internal/logger"
	"github.com/convopulse/convopulse/internal/notifier"
	"github.com/convopulse/convopulse/internal/queue"
	pgrepo "github.com/convopulse/convopulse/internal/repositories/postgres"
	"github.com/convopulse/convopulse/internal/services"
)

func main() {
	_ = godotenv.Load()

	logg := applogger.New()

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := config.MigratePostgres(); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}
	logg.Info("PostgreSQL connected")

	// Init Redis when configured; without it the queue runs inline
	var summaryCache cache.Cache
	if config.RedisConfigured() {
		if err := config.InitRedis(); err != nil {
			log.Fatalf("Redis init error: %v", err)
		}
		logg.Info("Redis connected")
		summaryCache = cache.NewRedisCache(config.RedisClient)
	}

	db := config.PostgresDB
	convRepo := pgrepo.NewConversationRepo(db)
	msgRepo := pgrepo.NewMessageRepo(db)
	failRepo := pgrepo.NewFailureRepo(db)
	patRepo := pgrepo.NewPatternRepo(db)
	embRepo := pgrepo.NewEmbeddingRepo(db)
	setRepo := pgrepo.NewSettingsRepo(db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}

	provider := notifier.NewWebhookProvider(setRepo, os.Getenv("SLACK_WEBHOOK_URL"), notifier.DefaultWebhookTTL, nil)
	alerts := notifier.NewSlack(notifier.Config{Provider: provider, BaseURL: baseURL, Logger: logg})

	ingestSvc := services.NewIngestionService(convRepo, logg)
	processSvc := services.NewProcessingService(convRepo, msgRepo, failRepo, patRepo, embRepo, alerts, logg)
	convSvc := services.NewConversationService(convRepo, msgRepo, failRepo)
	insightsSvc := services.NewInsightsService(convRepo, failRepo, patRepo, summaryCache, logg)

	var runner queue.Runner
	jobHandlers := services.PipelineHandlers(ingestSvc, processSvc, func(ctx context.Context, kind queue.Kind, payload []byte) error {
		return runner.Enqueue(ctx, kind, payload)
	})

	if config.RedisConfigured() {
		rr := queue.NewRedisRunner(queue.RedisRunnerConfig{
			Redis:    config.RedisClient,
			Handlers: jobHandlers,
			Logger:   logg,
		})
		rr.Start(context.Background())
		runner = rr
		logg.Info("job queue running in broker mode")
	} else {
		runner = queue.NewInlineRunner(jobHandlers, logg)
		logg.Info("job queue running in inline mode")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logg))

	routes.RegisterRoutes(r, routes.Deps{
		Ingestion:    handlers.NewIngestionHandler(ingestSvc, runner),
		Conversation: handlers.NewConversationHandler(convSvc),
		Insights:     handlers.NewInsightsHandler(insightsSvc),
		IngestAPIKey: os.Getenv("INGEST_API_KEY"),
	})

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
