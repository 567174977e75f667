package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/convopulse/convopulse/internal/models"
)

type MessageRepo interface {
	// ListByConversation returns all messages for one conversation in
	// chronological order.
	ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error)
}

type messageRepo struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepo{db: db}
}

func (r *messageRepo) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	var rows []models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp ASC").
		Find(&rows).Error
	return rows, err
}
