package services

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/convopulse/convopulse/internal/cache"
	"github.com/convopulse/convopulse/internal/models"
	pgrepo "github.com/convopulse/convopulse/internal/repositories/postgres"
	"github.com/convopulse/convopulse/internal/utils"
)

const (
	summaryCacheKey = "analytics:summary"
	summaryCacheTTL = 30 * time.Second
)

// Summary is the dashboard headline view over the processed data.
type Summary struct {
	HealthScoreAvg      int   `json:"health_score_avg"`
	ActiveConversations int64 `json:"active_conversations"`
	FailuresToday       int64 `json:"failures_today"`
}

type InsightsService interface {
	Patterns(ctx context.Context) ([]models.UsagePattern, error)
	Summary(ctx context.Context) (*Summary, error)
}

type insightsService struct {
	convos   pgrepo.ConversationRepo
	failures pgrepo.FailureRepo
	patterns pgrepo.PatternRepo
	cache    cache.Cache // nil when Redis is not configured
	log      *logrus.Logger
}

func NewInsightsService(convos pgrepo.ConversationRepo, failures pgrepo.FailureRepo, patterns pgrepo.PatternRepo, c cache.Cache, log *logrus.Logger) InsightsService {
	if log == nil {
		log = logrus.New()
	}
	return &insightsService{convos: convos, failures: failures, patterns: patterns, cache: c, log: log}
}

func (s *insightsService) Patterns(ctx context.Context) ([]models.UsagePattern, error) {
	const op = "InsightsService.Patterns"

	rows, err := s.patterns.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list patterns", err)
	}
	return rows, nil
}

func (s *insightsService) Summary(ctx context.Context) (*Summary, error) {
	const op = "InsightsService.Summary"

	if s.cache != nil {
		var cached Summary
		if hit, err := s.cache.GetJSON(ctx, summaryCacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	avg, err := s.convos.AverageHealth(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to compute average health", err)
	}
	active, err := s.convos.CountByStatus(ctx, models.StatusActive)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count active conversations", err)
	}

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	failuresToday, err := s.failures.CountDetectedSince(ctx, midnight)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count failures", err)
	}

	out := &Summary{
		HealthScoreAvg:      int(math.Round(avg)),
		ActiveConversations: active,
		FailuresToday:       failuresToday,
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, summaryCacheKey, out, summaryCacheTTL); err != nil {
			s.log.WithError(err).Warn("failed to cache analytics summary")
		}
	}
	return out, nil
}
