package models

import (
	"time"

	"gorm.io/datatypes"
)

// AppSetting is the single-row (id=1) settings table. Writes go through the
// dashboard; this service only reads the webhook target.
type AppSetting struct {
	ID              int16          `gorm:"column:id;primaryKey;default:1" json:"id"`
	SlackWebhookURL string         `gorm:"column:slack_webhook_url;type:text" json:"slack_webhook_url"`
	AlertThresholds datatypes.JSON `gorm:"column:alert_thresholds;type:jsonb" json:"alert_thresholds,omitempty"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (AppSetting) TableName() string { return "app_settings" }
