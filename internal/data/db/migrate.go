package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/cesizen/cesizen-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureInteractionIndexes(db)
}

// EnsureInteractionIndexes adds the stats index that AutoMigrate cannot express
// on both dialects.
func EnsureInteractionIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_interaction_target_kind
		ON interaction(target_type, target_id, kind);
	`).Error; err != nil {
		return fmt.Errorf("create idx_interaction_target_kind: %w", err)
	}
	return nil
}
