package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusAbandoned = "abandoned"
)

type Conversation struct {
	ID         string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ExternalID string  `gorm:"column:external_id;type:varchar(255);index" json:"external_id"`
	StartedAt  time.Time  `gorm:"column:started_at;type:timestamptz" json:"started_at"`
	EndedAt    *time.Time `gorm:"column:ended_at;type:timestamptz" json:"ended_at,omitempty"`

	// nil until the processing pipeline has scored the conversation
	HealthScore *int   `gorm:"column:health_score" json:"health_score,omitempty"`
	Status      string `gorm:"column:status;type:varchar(50)" json:"status"` // "active" | "completed" | "abandoned"

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversations" }
