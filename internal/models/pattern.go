package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// UsagePattern is a globally deduplicated named pattern: at most one row per
// name, with the occurrence count bumped on every re-detection.
type UsagePattern struct {
	ID              string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"column:pattern_name;type:varchar(255);uniqueIndex" json:"pattern_name"`
	OccurrenceCount int       `gorm:"column:occurrence_count" json:"occurrence_count"`
	FirstSeen       time.Time `gorm:"column:first_seen;type:timestamptz" json:"first_seen"`
	LastSeen        time.Time `gorm:"column:last_seen;type:timestamptz" json:"last_seen"`

	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(50)" json:"embedding,omitempty"`
}

func (UsagePattern) TableName() string { return "usage_patterns" }

// PatternConversation links a pattern to a conversation at most once.
type PatternConversation struct {
	PatternID      string `gorm:"column:pattern_id;type:uuid;primaryKey" json:"pattern_id"`
	ConversationID string `gorm:"column:conversation_id;type:uuid;primaryKey" json:"conversation_id"`
}

func (PatternConversation) TableName() string { return "pattern_conversations" }
