package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReplayFilter narrows the unreconciled fetch. Zero values mean "no
// constraint". When UseAccountingDate is set the date range applies to the
// envelope's accounting date instead of its creation time.
type ReplayFilter struct {
	DateFrom          time.Time
	DateTo            time.Time
	BranchID          uuid.UUID
	TellerID          uuid.UUID
	UseAccountingDate bool
}

// EnvelopeStats summarizes envelope counts by replay state
type EnvelopeStats struct {
	Unreconciled int64 `json:"unreconciled"`
	Passed       int64 `json:"passed"`
	ManualReview int64 `json:"manualReview"`
}

// EnvelopeRepository is the persistence port for reconciliation envelopes.
// ClaimUnreconciled must lease the returned envelopes so that concurrent
// scheduler instances never replay the same envelope twice.
type EnvelopeRepository interface {
	// Save persists a new envelope
	Save(ctx context.Context, envelope *Envelope) error
	// FindByID retrieves a single envelope
	FindByID(ctx context.Context, id uuid.UUID) (*Envelope, error)
	// FindByTransactionReference retrieves the envelope for a correlation key
	FindByTransactionReference(ctx context.Context, txRef string) (*Envelope, error)
	// ClaimUnreconciled atomically claims up to limit unreconciled envelopes
	// matching the filter, skipping envelopes held by another claimant
	ClaimUnreconciled(ctx context.Context, filter ReplayFilter, limit int) ([]*Envelope, error)
	// FindManualReview lists envelopes parked for operator remediation
	FindManualReview(ctx context.Context, page, pageSize int) ([]*Envelope, int64, error)
	// RecordOutcome persists the result of a replay attempt
	RecordOutcome(ctx context.Context, envelope *Envelope) error
	// Requeue clears the manual-review flag of a parked envelope
	Requeue(ctx context.Context, id uuid.UUID) error
	// Stats returns envelope counts by replay state
	Stats(ctx context.Context) (EnvelopeStats, error)
}

// AccountingLookup reports whether the accounting effect for a transaction
// reference already exists in the downstream ledger
type AccountingLookup interface {
	EffectExists(ctx context.Context, txRef string) (bool, error)
}

// CommandHandler executes a decoded accounting command against the
// downstream ledger. Implementations live outside this module.
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) error
}

// CommandHandlerFunc adapts a function to the CommandHandler interface
type CommandHandlerFunc func(ctx context.Context, cmd Command) error

// Handle implements CommandHandler
func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}
