package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	FailureStatusOpen     = "open"
	FailureStatusAck      = "ack"
	FailureStatusResolved = "resolved"
)

// Failure is a detected negative pattern in one conversation. The pipeline
// only ever creates rows and flips the alerted flag; status transitions are
// driven by the failure board, which lives outside this service.
type Failure struct {
	ID             string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ConversationID string         `gorm:"column:conversation_id;type:uuid;index" json:"conversation_id"`
	Type           string         `gorm:"column:type;type:varchar(100)" json:"type"` // "loop" | "frustration" | "nonsense" | "abrupt_end"
	DetectedAt     time.Time      `gorm:"column:detected_at;type:timestamptz" json:"detected_at"`
	Details        datatypes.JSON `gorm:"column:details;type:jsonb" json:"details,omitempty"`
	Alerted        bool           `gorm:"column:alerted;default:false" json:"alerted"`
	Status         string         `gorm:"column:status;type:varchar(20);default:open" json:"status"` // "open" | "ack" | "resolved"
	ResolvedAt     *time.Time     `gorm:"column:resolved_at;type:timestamptz" json:"resolved_at,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Failure) TableName() string { return "failures" }
