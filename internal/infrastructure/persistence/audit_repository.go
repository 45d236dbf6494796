package persistence

import (
	"context"

	"github.com/corebank/backend/internal/domain/shared"
	"github.com/corebank/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditRepository persists audit trail entries using GORM
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GORM-based audit repository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Insert stores one audit entry
func (r *GormAuditRepository) Insert(ctx context.Context, entry shared.AuditEntry) error {
	model := models.AuditTrailModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// ListRecent returns the newest audit entries, newest first
func (r *GormAuditRepository) ListRecent(ctx context.Context, limit int) ([]shared.AuditEntry, error) {
	var rows []*models.AuditTrailModel
	err := r.db.WithContext(ctx).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]shared.AuditEntry, len(rows))
	for i, m := range rows {
		entries[i] = m.ToDomain()
	}
	return entries, nil
}
