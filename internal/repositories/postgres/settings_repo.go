package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/convopulse/convopulse/internal/models"
)

type SettingsRepo interface {
	// GetWebhookURL reads the stored alert webhook target. A missing settings
	// row means "not configured", not an error.
	GetWebhookURL(ctx context.Context) (string, error)
}

type settingsRepo struct {
	db *gorm.DB
}

func NewSettingsRepo(db *gorm.DB) SettingsRepo {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) GetWebhookURL(ctx context.Context) (string, error) {
	var row models.AppSetting
	err := r.db.WithContext(ctx).Where("id = ?", 1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.SlackWebhookURL, nil
}
