package config

import (
	"errors"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/convopulse/convopulse/internal/models"
)

var PostgresDB *gorm.DB

func InitPostgres() error {
	uri := os.Getenv("POSTGRES_URI")
	if uri == "" {
		return errors.New("POSTGRES_URI environment variable is not set")
	}
	db, err := gorm.Open(postgres.Open(uri), &gorm.Config{})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	// Connection Pooling settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	PostgresDB = db
	return nil
}

// MigratePostgres creates the schema. The vector extension must exist before
// the embedding columns can.
func MigratePostgres() error {
	if PostgresDB == nil {
		return errors.New("postgres is not initialized")
	}
	if err := PostgresDB.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}
	return PostgresDB.AutoMigrate(
		&models.Conversation{},
		&models.Message{},
		&models.Failure{},
		&models.UsagePattern{},
		&models.PatternConversation{},
		&models.ConversationEmbedding{},
		&models.AppSetting{},
	)
}
