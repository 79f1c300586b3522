package database

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vladimiradmaev/glucolog/internal/config"
	"github.com/vladimiradmaev/glucolog/internal/database/migrations"
	"github.com/vladimiradmaev/glucolog/internal/logger"
)

// EventRecord is the header row shared by every event variant. Exactly one
// detail row accompanies it, matching the variant named in EventType.
type EventRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:64;not null;index:idx_events_user_time,priority:1"`
	EventType string    `gorm:"size:16;not null"`
	EventTime time.Time `gorm:"not null;index:idx_events_user_time,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
	Source    string    `gorm:"size:16;not null"`
	Note      string

	Food     *FoodDetail     `gorm:"foreignKey:EventID"`
	Insulin  *InsulinDetail  `gorm:"foreignKey:EventID"`
	Exercise *ExerciseDetail `gorm:"foreignKey:EventID"`
	NoteBody *NoteDetail     `gorm:"foreignKey:EventID"`
}

func (EventRecord) TableName() string { return "events" }

type FoodDetail struct {
	EventID        string `gorm:"primaryKey;size:36"`
	CarbGrams      int    `gorm:"not null"`
	MealTagID      int64  `gorm:"not null"`
	AbsorptionHint string `gorm:"size:16;not null"`
}

func (FoodDetail) TableName() string { return "food_details" }

// InsulinDetail stores the dose in half units so the exact half-unit steps
// survive the round trip without floating point.
type InsulinDetail struct {
	EventID       string `gorm:"primaryKey;size:36"`
	InsulinType   string `gorm:"size:16;not null"`
	DoseHalfUnits int64  `gorm:"not null"`
	Preparation   string
	Delivery      string
	Timing        string
}

func (InsulinDetail) TableName() string { return "insulin_details" }

type ExerciseDetail struct {
	EventID         string `gorm:"primaryKey;size:36"`
	ExerciseTypeID  int64  `gorm:"not null"`
	DurationMinutes int    `gorm:"not null"`
	Intensity       string `gorm:"size:16;not null"`
}

func (ExerciseDetail) TableName() string { return "exercise_details" }

type NoteDetail struct {
	EventID string `gorm:"primaryKey;size:36"`
	Text    string `gorm:"not null"`
}

func (NoteDetail) TableName() string { return "note_details" }

// AuditEntry is the audit outbox row. PublishedAt stays NULL until the
// publisher has pushed the record downstream.
type AuditEntry struct {
	ID            string    `gorm:"primaryKey;size:36"`
	Action        string    `gorm:"size:64;not null"`
	EventID       string    `gorm:"size:36;not null;index"`
	UserID        string    `gorm:"size:64;not null"`
	OccurredAt    time.Time `gorm:"not null"`
	CorrelationID string    `gorm:"size:64"`
	CausationID   string    `gorm:"size:64"`
	Payload       []byte    `gorm:"type:jsonb;not null"`
	PublishedAt   *time.Time
}

func (AuditEntry) TableName() string { return "audit_records" }

func NewPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Tables first, then the SQL migrations that index them.
	if err := db.AutoMigrate(&EventRecord{}, &FoodDetail{}, &InsulinDetail{}, &ExerciseDetail{}, &NoteDetail{}, &AuditEntry{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// Get the directory of the current file
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("failed to get current file path")
	}
	migrationsDir := filepath.Join(filepath.Dir(filename), "migrations")

	if err := migrations.Apply(db, migrationsDir); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database connection established and migrations completed", "database", cfg.DBName)
	return db, nil
}
