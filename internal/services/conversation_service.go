package services

import (
	"context"
	"errors"

	"github.com/convopulse/convopulse/internal/analysis"
	"github.com/convopulse/convopulse/internal/models"
	pgrepo "github.com/convopulse/convopulse/internal/repositories/postgres"
	"github.com/convopulse/convopulse/internal/utils"
)

// HealthReport is the read-side health view: the persisted-style score plus
// the itemized breakdown variant of the scorer.
type HealthReport struct {
	Score     int                `json:"score"`
	Breakdown analysis.Breakdown `json:"breakdown"`
}

type ConversationService interface {
	List(ctx context.Context, offset, limit int) ([]models.Conversation, int64, error)
	Messages(ctx context.Context, id string) ([]models.Message, error)
	Health(ctx context.Context, id string) (*HealthReport, error)
	Failures(ctx context.Context, id string) ([]models.Failure, error)
}

type conversationService struct {
	convos   pgrepo.ConversationRepo
	messages pgrepo.MessageRepo
	failures pgrepo.FailureRepo
}

func NewConversationService(convos pgrepo.ConversationRepo, messages pgrepo.MessageRepo, failures pgrepo.FailureRepo) ConversationService {
	return &conversationService{convos: convos, messages: messages, failures: failures}
}

func (s *conversationService) List(ctx context.Context, offset, limit int) ([]models.Conversation, int64, error) {
	const op = "ConversationService.List"

	rows, total, err := s.convos.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, utils.E(utils.CodeInternal, op, "failed to list conversations", err)
	}
	return rows, total, nil
}

func (s *conversationService) get(ctx context.Context, op, id string) (*models.Conversation, error) {
	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "conversation id is required", nil)
	}
	conv, err := s.convos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "conversation not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load conversation", err)
	}
	return conv, nil
}

func (s *conversationService) Messages(ctx context.Context, id string) ([]models.Message, error) {
	const op = "ConversationService.Messages"

	if _, err := s.get(ctx, op, id); err != nil {
		return nil, err
	}
	rows, err := s.messages.ListByConversation(ctx, id)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list messages", err)
	}
	return rows, nil
}

func (s *conversationService) Health(ctx context.Context, id string) (*HealthReport, error) {
	const op = "ConversationService.Health"

	conv, err := s.get(ctx, op, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.messages.ListByConversation(ctx, id)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list messages", err)
	}

	score, breakdown := analysis.ScoreWithBreakdown(toAnalysisMessages(rows), conv.EndedAt != nil)
	return &HealthReport{Score: score, Breakdown: breakdown}, nil
}

func (s *conversationService) Failures(ctx context.Context, id string) ([]models.Failure, error) {
	const op = "ConversationService.Failures"

	if _, err := s.get(ctx, op, id); err != nil {
		return nil, err
	}
	rows, err := s.failures.ListByConversation(ctx, id)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list failures", err)
	}
	return rows, nil
}
