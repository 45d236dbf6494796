package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AggregateRepository is the persistence port for branch-day aggregates.
// ApplyOperation must serialize concurrent mutations of the same
// (branch, day) row; implementations use a row lock inside a transaction so
// that no update is lost under concurrent posting.
type AggregateRepository interface {
	// ApplyOperation locks or creates the (branch, day) row for the event
	// and folds the event into it atomically
	ApplyOperation(ctx context.Context, ev CashOperationEvent) (*DailyBranchAggregate, error)
	// GetByBranchDate retrieves the aggregate for a branch and calendar day
	GetByBranchDate(ctx context.Context, branchID uuid.UUID, date time.Time) (*DailyBranchAggregate, error)
	// ListRange retrieves aggregates across branches for a date range.
	// A non-nil branchID narrows the result to one branch.
	ListRange(ctx context.Context, from, to time.Time, branchID *uuid.UUID) ([]*DailyBranchAggregate, error)
}
