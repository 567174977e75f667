package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/convopulse/convopulse/internal/analysis"
	"github.com/convopulse/convopulse/internal/models"
	"github.com/convopulse/convopulse/internal/notifier"
	pgrepo "github.com/convopulse/convopulse/internal/repositories/postgres"
	"github.com/convopulse/convopulse/internal/utils"
)

// ProcessingService runs the per-conversation analysis pipeline: score,
// low-health alert, failure rows and alerts, embedding, patterns. Everything
// after the health-score write is best-effort; a failed later stage is logged
// and never rolls back what earlier stages committed.
type ProcessingService interface {
	Process(ctx context.Context, conversationID string) error
}

type processingService struct {
	convos     pgrepo.ConversationRepo
	messages   pgrepo.MessageRepo
	failures   pgrepo.FailureRepo
	patterns   pgrepo.PatternRepo
	embeddings pgrepo.EmbeddingRepo
	notify     notifier.Notifier
	log        *logrus.Logger
}

func NewProcessingService(
	convos pgrepo.ConversationRepo,
	messages pgrepo.MessageRepo,
	failures pgrepo.FailureRepo,
	patterns pgrepo.PatternRepo,
	embeddings pgrepo.EmbeddingRepo,
	notify notifier.Notifier,
	log *logrus.Logger,
) ProcessingService {
	if log == nil {
		log = logrus.New()
	}
	return &processingService{
		convos:     convos,
		messages:   messages,
		failures:   failures,
		patterns:   patterns,
		embeddings: embeddings,
		notify:     notify,
		log:        log,
	}
}

func toAnalysisMessages(rows []models.Message) []analysis.Message {
	out := make([]analysis.Message, 0, len(rows))
	for _, m := range rows {
		out = append(out, analysis.Message{
			Role:      m.Role,
			Content:   m.Content,
			Sentiment: m.SentimentScore,
		})
	}
	return out
}

func (s *processingService) Process(ctx context.Context, conversationID string) error {
	const op = "ProcessingService.Process"
	log := s.log.WithField("conversation_id", conversationID)

	rows, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to load messages", err)
	}
	msgs := toAnalysisMessages(rows)

	score := analysis.ScoreSimple(msgs)
	if err := s.convos.SetHealthScore(ctx, conversationID, score); err != nil {
		// later stages all depend on a scored conversation; let the broker retry
		return utils.E(utils.CodeInternal, op, "failed to persist health score", err)
	}
	log.WithField("score", score).Info("health score persisted")

	s.notify.AlertLowHealth(ctx, conversationID, score)

	if types := analysis.DetectFailures(msgs); len(types) > 0 {
		s.recordFailures(ctx, log, conversationID, types)
	}

	s.embedConversation(ctx, log, conversationID, msgs)
	s.analyzePatterns(ctx, log, conversationID, msgs)

	return nil
}

func (s *processingService) recordFailures(ctx context.Context, log *logrus.Entry, conversationID string, types []string) {
	ids, err := s.failures.InsertBatch(ctx, conversationID, types, time.Now().UTC())
	if err != nil {
		log.WithError(err).WithField("stage", "failures").Error("failed to persist failures")
		return
	}

	alerted := make([]string, 0, len(ids))
	for i, id := range ids {
		if s.notify.AlertFailure(ctx, conversationID, types[i]) {
			alerted = append(alerted, id)
		}
	}
	if len(alerted) > 0 {
		if err := s.failures.MarkAlerted(ctx, alerted); err != nil {
			log.WithError(err).WithField("stage", "failures").Error("failed to mark failures alerted")
		}
	}
	log.WithFields(logrus.Fields{"failures": len(ids), "alerted": len(alerted)}).Info("failures recorded")
}

func (s *processingService) embedConversation(ctx context.Context, log *logrus.Entry, conversationID string, msgs []analysis.Message) {
	vec := analysis.GenerateEmbedding(analysis.ConversationText(msgs))
	if err := s.embeddings.Upsert(ctx, conversationID, vec, analysis.EmbeddingModel); err != nil {
		log.WithError(err).WithField("stage", "embedding").Error("failed to store embedding")
		return
	}
	log.WithField("dimensions", analysis.EmbeddingDim).Info("embedding stored")
}

func (s *processingService) analyzePatterns(ctx context.Context, log *logrus.Entry, conversationID string, msgs []analysis.Message) {
	if len(msgs) == 0 {
		return
	}

	names := analysis.DetectPatterns(msgs)
	now := time.Now().UTC()
	stored := 0
	for _, name := range names {
		p, err := s.patterns.UpsertByName(ctx, name, now)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{"stage": "patterns", "pattern": name}).Error("failed to upsert pattern")
			continue
		}
		if err := s.patterns.LinkConversation(ctx, p.ID, conversationID); err != nil {
			log.WithError(err).WithFields(logrus.Fields{"stage": "patterns", "pattern": name}).Error("failed to link pattern")
			continue
		}
		stored++
	}
	log.WithField("patterns", stored).Info("patterns analyzed")
}
