package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID             string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ConversationID string         `gorm:"column:conversation_id;type:uuid;index" json:"conversation_id"`
	Role           string         `gorm:"column:role;type:varchar(50)" json:"role"` // "user" | "assistant"
	Content        string         `gorm:"column:content;type:text" json:"content"`
	Timestamp      time.Time      `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
	SentimentScore *float64       `gorm:"column:sentiment_score" json:"sentiment_score,omitempty"`
	Metadata       datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
}

func (Message) TableName() string { return "messages" }
