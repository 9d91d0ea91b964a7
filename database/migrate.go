// database/migrate.go - Database Migration Runner
package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// RunMigrations creates or updates every table the stores use.
func RunMigrations(db *gorm.DB, log *slog.Logger) error {
	log.Info("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&UserRow{},
		&TaskRow{},
		&AchievementRow{},
		&RewardRow{},
		&CollectionRow{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return err
	}

	log.Info("✅ All migrations completed successfully")
	return nil
}

// createIndexes adds the ordering indexes collection reads rely on.
func createIndexes(db *gorm.DB) error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_tasks_user_position ON tasks(user_id, position)",
		"CREATE INDEX IF NOT EXISTS idx_achievements_user_position ON achievements(user_id, position)",
		"CREATE INDEX IF NOT EXISTS idx_rewards_user_position ON rewards(user_id, position)",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
