package models

import (
	"time"

	"github.com/corebank/backend/internal/domain/reconciliation"
	"github.com/google/uuid"
)

// EnvelopeModel is the persistence model for reconciliation envelopes.
// One row exists per posted transaction; the replay scheduler drives rows
// from unreconciled to passed or to manual review.
type EnvelopeModel struct {
	ID                     uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TransactionReferenceID string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_envelope_tx_ref"`
	CommandTag             string     `gorm:"type:varchar(64);not null;index:idx_envelope_command_tag"`
	CommandPayload         []byte     `gorm:"type:jsonb;not null"`
	NumberOfRetry          int        `gorm:"not null;default:0"`
	HasPassed              bool       `gorm:"not null;default:false;index:idx_envelope_replay,priority:1"`
	RequiresManualReview   bool       `gorm:"not null;default:false;index:idx_envelope_replay,priority:2"`
	LastError              string     `gorm:"type:text"`
	DatePassed             *time.Time
	ClaimedUntil           *time.Time `gorm:"index:idx_envelope_claimed"`
	BranchID               uuid.UUID  `gorm:"type:uuid;not null;index:idx_envelope_branch"`
	TellerID               uuid.UUID  `gorm:"type:uuid;not null"`
	AccountingDate         time.Time  `gorm:"type:date;not null;index:idx_envelope_accounting_date"`
	CreatedAt              time.Time  `gorm:"not null;default:now()"`
	UpdatedAt              time.Time  `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (EnvelopeModel) TableName() string {
	return "reconciliation_envelopes"
}

// ToDomain converts the persistence model to a domain Envelope
func (m *EnvelopeModel) ToDomain() *reconciliation.Envelope {
	return &reconciliation.Envelope{
		ID:                     m.ID,
		TransactionReferenceID: m.TransactionReferenceID,
		CommandTag:             m.CommandTag,
		CommandPayload:         m.CommandPayload,
		NumberOfRetry:          m.NumberOfRetry,
		HasPassed:              m.HasPassed,
		RequiresManualReview:   m.RequiresManualReview,
		LastError:              m.LastError,
		DatePassed:             m.DatePassed,
		ClaimedUntil:           m.ClaimedUntil,
		BranchID:               m.BranchID,
		TellerID:               m.TellerID,
		AccountingDate:         m.AccountingDate,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Envelope
func (m *EnvelopeModel) FromDomain(e *reconciliation.Envelope) {
	m.ID = e.ID
	m.TransactionReferenceID = e.TransactionReferenceID
	m.CommandTag = e.CommandTag
	m.CommandPayload = e.CommandPayload
	m.NumberOfRetry = e.NumberOfRetry
	m.HasPassed = e.HasPassed
	m.RequiresManualReview = e.RequiresManualReview
	m.LastError = e.LastError
	m.DatePassed = e.DatePassed
	m.ClaimedUntil = e.ClaimedUntil
	m.BranchID = e.BranchID
	m.TellerID = e.TellerID
	m.AccountingDate = e.AccountingDate
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// EnvelopeModelFromDomain creates a new persistence model from a domain Envelope
func EnvelopeModelFromDomain(e *reconciliation.Envelope) *EnvelopeModel {
	m := &EnvelopeModel{}
	m.FromDomain(e)
	return m
}
