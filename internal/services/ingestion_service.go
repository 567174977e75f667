package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/convopulse/convopulse/internal/models"
	pgrepo "github.com/convopulse/convopulse/internal/repositories/postgres"
	"github.com/convopulse/convopulse/internal/utils"
)

// IncomingMessage is one message as supplied by the producing client.
type IncomingMessage struct {
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Timestamp string          `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// TrackRequest is the ingestion payload: an external conversation id, its
// messages, and optional metadata. It doubles as the ingest job payload.
type TrackRequest struct {
	ConversationID string            `json:"conversationId"`
	Messages       []IncomingMessage `json:"messages"`
	Metadata       json.RawMessage   `json:"metadata,omitempty"`
}

// ProcessRequest is the process job payload.
type ProcessRequest struct {
	ConversationID string `json:"conversation_id"`
}

type IngestionService interface {
	// Validate rejects a malformed request synchronously; nothing may be
	// enqueued when it errors.
	Validate(req TrackRequest) error
	// Ingest upserts the conversation by external id and appends its
	// messages atomically, returning the internal conversation id.
	Ingest(ctx context.Context, req TrackRequest) (string, error)
}

type ingestionService struct {
	convos pgrepo.ConversationRepo
	log    *logrus.Logger
}

func NewIngestionService(convos pgrepo.ConversationRepo, log *logrus.Logger) IngestionService {
	if log == nil {
		log = logrus.New()
	}
	return &ingestionService{convos: convos, log: log}
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func (s *ingestionService) Validate(req TrackRequest) error {
	const op = "IngestionService.Validate"

	if req.ConversationID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "conversationId is required", nil)
	}
	if len(req.Messages) == 0 {
		return utils.E(utils.CodeInvalidArgument, op, "messages must be a non-empty list", nil)
	}
	for i, m := range req.Messages {
		if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
			return utils.E(utils.CodeInvalidArgument, op,
				fmt.Sprintf("message %d: role must be \"user\" or \"assistant\", got %q", i, m.Role), nil)
		}
		if m.Content == "" {
			return utils.E(utils.CodeInvalidArgument, op,
				fmt.Sprintf("message %d: content must not be empty", i), nil)
		}
		if _, err := parseTimestamp(m.Timestamp); err != nil {
			return utils.E(utils.CodeInvalidArgument, op,
				fmt.Sprintf("message %d: timestamp %q is not a valid RFC 3339 time", i, m.Timestamp), err)
		}
	}
	return nil
}

func (s *ingestionService) Ingest(ctx context.Context, req TrackRequest) (string, error) {
	const op = "IngestionService.Ingest"

	// Job payloads can arrive via the broker, so the request is validated
	// again on this side of the queue.
	if err := s.Validate(req); err != nil {
		return "", err
	}

	msgs := make([]models.Message, 0, len(req.Messages))
	var startedAt, endedAt time.Time
	for i, m := range req.Messages {
		ts, err := parseTimestamp(m.Timestamp)
		if err != nil {
			return "", utils.E(utils.CodeInvalidArgument, op, "unparseable message timestamp", err)
		}
		ts = ts.UTC()
		if i == 0 || ts.Before(startedAt) {
			startedAt = ts
		}
		if i == 0 || ts.After(endedAt) {
			endedAt = ts
		}
		msgs = append(msgs, models.Message{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: ts,
			Metadata:  datatypes.JSON(m.Metadata),
		})
	}

	s.log.WithFields(logrus.Fields{
		"external_id": req.ConversationID,
		"messages":    len(msgs),
	}).Info("ingesting conversation")

	id, err := s.convos.UpsertWithMessages(ctx, req.ConversationID, startedAt, endedAt, models.StatusCompleted, req.Metadata, msgs)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to store conversation", err)
	}

	s.log.WithFields(logrus.Fields{
		"external_id":     req.ConversationID,
		"conversation_id": id,
	}).Info("conversation ingested")

	return id, nil
}
