package database

import (
	"fmt"

	"github.com/aalbusoiu/workshop-platform/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Invitation{},
		&models.Session{},
		&models.Participant{},
		&models.SessionToken{},
		&models.SessionProfile{},
		&models.Round{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
