package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// ConversationEmbedding holds the single vector per conversation, overwritten
// whenever the conversation is reprocessed.
type ConversationEmbedding struct {
	ConversationID string          `gorm:"column:conversation_id;type:uuid;primaryKey" json:"conversation_id"`
	Embedding      pgvector.Vector `gorm:"column:embedding;type:vector(50)" json:"embedding"`
	Model          string          `gorm:"column:model;type:varchar(100)" json:"model"`
	CreatedAt      time.Time       `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (ConversationEmbedding) TableName() string { return "conversation_embeddings" }
