package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/convopulse/convopulse/internal/models"
	"github.com/convopulse/convopulse/internal/utils"
)

type EmbeddingRepo interface {
	// Upsert stores the one embedding per conversation, overwriting any
	// earlier vector and model tag on reprocessing.
	Upsert(ctx context.Context, conversationID string, vector []float32, model string) error
	Get(ctx context.Context, conversationID string) (*models.ConversationEmbedding, error)
}

type embeddingRepo struct {
	db *gorm.DB
}

func NewEmbeddingRepo(db *gorm.DB) EmbeddingRepo {
	return &embeddingRepo{db: db}
}

func (r *embeddingRepo) Upsert(ctx context.Context, conversationID string, vector []float32, model string) error {
	row := models.ConversationEmbedding{
		ConversationID: conversationID,
		Embedding:      pgvector.NewVector(vector),
		Model:          model,
		CreatedAt:      time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conversation_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"embedding", "model", "created_at"}),
		}).
		Create(&row).Error
}

func (r *embeddingRepo) Get(ctx context.Context, conversationID string) (*models.ConversationEmbedding, error) {
	var row models.ConversationEmbedding
	err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
