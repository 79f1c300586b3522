package migrations

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/vladimiradmaev/glucolog/internal/logger"
)

// appliedMigration records one executed migration file.
type appliedMigration struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt int64  `gorm:"autoCreateTime"`
}

func (appliedMigration) TableName() string { return "schema_migrations" }

// Apply executes every .sql file in dir that has not run yet, in file name
// order, and records each one in schema_migrations. There is no undo path:
// the migrations here only add indexes and similar additive schema work.
func Apply(db *gorm.DB, dir string) error {
	if err := db.AutoMigrate(&appliedMigration{}); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var pending []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			pending = append(pending, file.Name())
		}
	}
	sort.Strings(pending)

	var applied []appliedMigration
	if err := db.Find(&applied).Error; err != nil {
		return fmt.Errorf("failed to list applied migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, m := range applied {
		done[m.ID] = true
	}

	for _, name := range pending {
		id := strings.TrimSuffix(name, ".sql")
		if done[id] {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		logger.Info("Running migration", "id", id)
		if err := db.Exec(string(content)).Error; err != nil {
			return fmt.Errorf("failed to run migration %s: %w", id, err)
		}
		if err := db.Create(&appliedMigration{ID: id}).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", id, err)
		}
	}
	return nil
}
