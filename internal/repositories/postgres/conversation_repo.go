package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/convopulse/convopulse/internal/models"
	"github.com/convopulse/convopulse/internal/utils"
)

type ConversationRepo interface {
	// UpsertWithMessages inserts or updates the conversation keyed by its
	// external id and appends the given messages in the same transaction.
	// Messages are never deduplicated against earlier ingests; on update the
	// stored time window grows to the union of the old bounds and the batch's.
	UpsertWithMessages(ctx context.Context, externalID string, startedAt, endedAt time.Time, status string, metadata []byte, msgs []models.Message) (string, error)
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	List(ctx context.Context, offset, limit int) ([]models.Conversation, int64, error)
	SetHealthScore(ctx context.Context, id string, score int) error
	AverageHealth(ctx context.Context) (float64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) UpsertWithMessages(ctx context.Context, externalID string, startedAt, endedAt time.Time, status string, metadata []byte, msgs []models.Message) (string, error) {
	var convID string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// external_id carries no unique constraint, so the upsert is a
		// find-then-write inside the transaction.
		var existing models.Conversation
		err := tx.Where("external_id = ?", externalID).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			now := time.Now().UTC()
			row := models.Conversation{
				ID:         uuid.NewString(),
				ExternalID: externalID,
				StartedAt:  startedAt,
				EndedAt:    &endedAt,
				Status:     status,
				Metadata:   datatypes.JSON(metadata),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			convID = row.ID
		case err != nil:
			return err
		default:
			convID = existing.ID
			start, end := unionBounds(&existing, startedAt, endedAt)
			updates := map[string]any{
				"started_at": start,
				"ended_at":   end,
				"status":     status,
				"updated_at": time.Now().UTC(),
			}
			if len(metadata) > 0 {
				updates["metadata"] = datatypes.JSON(metadata)
			}
			if err := tx.Model(&models.Conversation{}).Where("id = ?", convID).Updates(updates).Error; err != nil {
				return err
			}
		}

		for i := range msgs {
			msgs[i].ID = uuid.NewString()
			msgs[i].ConversationID = convID
		}
		if len(msgs) > 0 {
			if err := tx.Create(&msgs).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return convID, nil
}

// unionBounds widens the stored conversation window to cover a new batch.
// Messages are appended without dedup, so the bounds only ever grow; a batch
// inside the existing window leaves them untouched.
func unionBounds(existing *models.Conversation, startedAt, endedAt time.Time) (time.Time, time.Time) {
	start, end := startedAt, endedAt
	if !existing.StartedAt.IsZero() && existing.StartedAt.Before(start) {
		start = existing.StartedAt
	}
	if existing.EndedAt != nil && existing.EndedAt.After(end) {
		end = *existing.EndedAt
	}
	return start, end
}

func (r *conversationRepo) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var row models.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *conversationRepo) List(ctx context.Context, offset, limit int) ([]models.Conversation, int64, error) {
	if limit <= 0 {
		limit = 20
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Conversation{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Conversation
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *conversationRepo) SetHealthScore(ctx context.Context, id string, score int) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{"health_score": score, "updated_at": time.Now().UTC()}).Error
}

func (r *conversationRepo) AverageHealth(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Select("COALESCE(AVG(health_score), 0)").
		Where("health_score IS NOT NULL").
		Scan(&avg).Error
	return avg, err
}

func (r *conversationRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("status = ?", status).
		Count(&n).Error
	return n, err
}
