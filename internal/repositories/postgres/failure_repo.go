package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/convopulse/convopulse/internal/models"
)

type FailureRepo interface {
	// InsertBatch creates open failure rows for one conversation and returns
	// their ids in input order.
	InsertBatch(ctx context.Context, conversationID string, types []string, detectedAt time.Time) ([]string, error)
	MarkAlerted(ctx context.Context, ids []string) error
	ListByConversation(ctx context.Context, conversationID string) ([]models.Failure, error)
	CountDetectedSince(ctx context.Context, since time.Time) (int64, error)
}

type failureRepo struct {
	db *gorm.DB
}

func NewFailureRepo(db *gorm.DB) FailureRepo {
	return &failureRepo{db: db}
}

func (r *failureRepo) InsertBatch(ctx context.Context, conversationID string, types []string, detectedAt time.Time) ([]string, error) {
	if len(types) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	rows := make([]models.Failure, 0, len(types))
	ids := make([]string, 0, len(types))
	for _, t := range types {
		id := uuid.NewString()
		ids = append(ids, id)
		rows = append(rows, models.Failure{
			ID:             id,
			ConversationID: conversationID,
			Type:           t,
			DetectedAt:     detectedAt,
			Status:         models.FailureStatusOpen,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *failureRepo) MarkAlerted(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Failure{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"alerted": true, "updated_at": time.Now().UTC()}).Error
}

func (r *failureRepo) ListByConversation(ctx context.Context, conversationID string) ([]models.Failure, error) {
	var rows []models.Failure
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("detected_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *failureRepo) CountDetectedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Failure{}).
		Where("detected_at >= ?", since).
		Count(&n).Error
	return n, err
}
