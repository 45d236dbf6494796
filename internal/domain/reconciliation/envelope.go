package reconciliation

import (
	"time"

	"github.com/corebank/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Envelope pairs a serialized accounting command with its replay metadata.
// One envelope exists per transaction reference; it is created when a
// transaction is posted and its accounting effect is dispatched
// fire-and-forget, and replayed by the scheduler until it either passes or
// is parked for manual review.
type Envelope struct {
	ID                     uuid.UUID
	TransactionReferenceID string
	CommandTag             string
	CommandPayload         []byte
	NumberOfRetry          int
	HasPassed              bool
	RequiresManualReview   bool
	LastError              string
	DatePassed             *time.Time
	ClaimedUntil           *time.Time
	BranchID               uuid.UUID
	TellerID               uuid.UUID
	AccountingDate         time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// NewEnvelope creates an unreconciled envelope for a posted transaction
func NewEnvelope(txRef, commandTag string, payload []byte, branchID, tellerID uuid.UUID, accountingDate time.Time) *Envelope {
	now := time.Now()
	return &Envelope{
		ID:                     uuid.New(),
		TransactionReferenceID: txRef,
		CommandTag:             commandTag,
		CommandPayload:         payload,
		NumberOfRetry:          0,
		HasPassed:              false,
		BranchID:               branchID,
		TellerID:               tellerID,
		AccountingDate:         accountingDate,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// IsTerminal returns true when the envelope no longer participates in replay
func (e *Envelope) IsTerminal() bool {
	return e.HasPassed || e.RequiresManualReview
}

// MarkPassed records a successful replay. A passed envelope is terminal;
// marking it again is a state error.
func (e *Envelope) MarkPassed(now time.Time) error {
	if e.HasPassed {
		return shared.ErrInvalidState
	}
	e.HasPassed = true
	e.RequiresManualReview = false
	e.NumberOfRetry++
	e.LastError = ""
	e.DatePassed = &now
	e.UpdatedAt = now
	return nil
}

// MarkRetried records a transient replay failure. The envelope stays
// eligible for the next scheduler tick.
func (e *Envelope) MarkRetried(errMsg string, now time.Time) error {
	if e.HasPassed {
		return shared.ErrInvalidState
	}
	e.NumberOfRetry++
	e.LastError = errMsg
	e.UpdatedAt = now
	return nil
}

// MarkPermanentlyFailed parks the envelope for manual operator remediation.
// Used for payloads that can never replay: unknown or malformed commands.
func (e *Envelope) MarkPermanentlyFailed(errMsg string, now time.Time) error {
	if e.HasPassed {
		return shared.ErrInvalidState
	}
	e.NumberOfRetry++
	e.RequiresManualReview = true
	e.LastError = errMsg
	e.UpdatedAt = now
	return nil
}

// ResetForReplay clears the manual-review flag so the scheduler picks the
// envelope up again, typically after an operator has repaired the payload.
func (e *Envelope) ResetForReplay() error {
	if e.HasPassed {
		return shared.ErrInvalidState
	}
	if !e.RequiresManualReview {
		return shared.ErrInvalidState
	}
	e.RequiresManualReview = false
	e.LastError = ""
	e.UpdatedAt = time.Now()
	return nil
}
