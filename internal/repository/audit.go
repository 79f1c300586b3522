package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vladimiradmaev/glucolog/internal/database"
	apperrors "github.com/vladimiradmaev/glucolog/internal/errors"
)

// AuditRepository reads and updates the audit outbox.
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Unpublished returns up to limit audit entries that have not been pushed
// downstream yet, oldest first.
func (r *AuditRepository) Unpublished(ctx context.Context, limit int) ([]database.AuditEntry, error) {
	var entries []database.AuditEntry
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("occurred_at ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return entries, nil
}

// MarkPublished stamps the entry as delivered so it is never re-sent.
func (r *AuditRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&database.AuditEntry{}).
		Where("id = ?", id).
		Update("published_at", at).Error
	if err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}
