package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/convopulse/convopulse/internal/models"
)

type PatternRepo interface {
	// UpsertByName creates the pattern with count 1 on first sight, otherwise
	// increments its occurrence count and refreshes last_seen. At most one
	// row ever exists per name.
	UpsertByName(ctx context.Context, name string, seenAt time.Time) (*models.UsagePattern, error)
	// LinkConversation links the pattern to a conversation; re-linking an
	// existing pair is a no-op, not an error.
	LinkConversation(ctx context.Context, patternID, conversationID string) error
	List(ctx context.Context) ([]models.UsagePattern, error)
}

type patternRepo struct {
	db *gorm.DB
}

func NewPatternRepo(db *gorm.DB) PatternRepo {
	return &patternRepo{db: db}
}

func (r *patternRepo) UpsertByName(ctx context.Context, name string, seenAt time.Time) (*models.UsagePattern, error) {
	var out models.UsagePattern

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.UsagePattern
		err := tx.Where("pattern_name = ?", name).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = models.UsagePattern{
				ID:              uuid.NewString(),
				Name:            name,
				OccurrenceCount: 1,
				FirstSeen:       seenAt,
				LastSeen:        seenAt,
			}
			return tx.Create(&out).Error
		case err != nil:
			return err
		default:
			if err := tx.Model(&models.UsagePattern{}).
				Where("id = ?", existing.ID).
				Updates(map[string]any{
					"occurrence_count": gorm.Expr("occurrence_count + 1"),
					"last_seen":        seenAt,
				}).Error; err != nil {
				return err
			}
			out = existing
			out.OccurrenceCount++
			out.LastSeen = seenAt
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *patternRepo) LinkConversation(ctx context.Context, patternID, conversationID string) error {
	link := models.PatternConversation{PatternID: patternID, ConversationID: conversationID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
}

func (r *patternRepo) List(ctx context.Context) ([]models.UsagePattern, error) {
	var rows []models.UsagePattern
	err := r.db.WithContext(ctx).
		Order("occurrence_count DESC").
		Find(&rows).Error
	return rows, err
}
