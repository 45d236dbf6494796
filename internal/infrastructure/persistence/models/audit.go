package models

import (
	"time"

	"github.com/corebank/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditTrailModel is the persistence model for audit trail entries
type AuditTrailModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Actor         string    `gorm:"type:varchar(128);not null"`
	Action        string    `gorm:"type:varchar(128);not null;index:idx_audit_action"`
	Summary       string    `gorm:"type:text"`
	Level         string    `gorm:"type:varchar(16);not null"`
	Status        string    `gorm:"type:varchar(16);not null"`
	CorrelationID string    `gorm:"type:varchar(128);index:idx_audit_correlation"`
	OccurredAt    time.Time `gorm:"not null;index:idx_audit_occurred"`
	CreatedAt     time.Time `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (AuditTrailModel) TableName() string {
	return "audit_trails"
}

// ToDomain converts the persistence model to a domain AuditEntry
func (m *AuditTrailModel) ToDomain() shared.AuditEntry {
	return shared.AuditEntry{
		Actor:         m.Actor,
		Action:        m.Action,
		Summary:       m.Summary,
		Level:         shared.AuditLevel(m.Level),
		Status:        shared.AuditStatus(m.Status),
		CorrelationID: m.CorrelationID,
		OccurredAt:    m.OccurredAt,
	}
}

// AuditTrailModelFromDomain creates a new persistence model from a domain AuditEntry
func AuditTrailModelFromDomain(e shared.AuditEntry) *AuditTrailModel {
	return &AuditTrailModel{
		ID:            uuid.New(),
		Actor:         e.Actor,
		Action:        e.Action,
		Summary:       e.Summary,
		Level:         string(e.Level),
		Status:        string(e.Status),
		CorrelationID: e.CorrelationID,
		OccurredAt:    e.OccurredAt,
		CreatedAt:     time.Now(),
	}
}
