package reconciliation

import (
	"context"
	"errors"
	"time"

	"github.com/corebank/backend/internal/domain/reconciliation"
	"github.com/corebank/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service exposes envelope registration and the operator remediation
// surface. The replay loop itself lives in ReplayScheduler.
type Service struct {
	repo   reconciliation.EnvelopeRepository
	logger *zap.Logger
}

// NewService creates a new reconciliation service
func NewService(repo reconciliation.EnvelopeRepository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// RegisterPosting persists an envelope for a transaction whose accounting
// effect was dispatched fire-and-forget. Registering the same transaction
// reference twice is a conflict; the first envelope wins.
func (s *Service) RegisterPosting(ctx context.Context, txRef, commandTag string, payload []byte, branchID, tellerID uuid.UUID, accountingDate time.Time) (*reconciliation.Envelope, error) {
	if existing, err := s.repo.FindByTransactionReference(ctx, txRef); err == nil && existing != nil {
		return existing, shared.ErrConflict
	}

	envelope := reconciliation.NewEnvelope(txRef, commandTag, payload, branchID, tellerID, accountingDate)
	if err := s.repo.Save(ctx, envelope); err != nil {
		// Two registrations can race past the lookup above; the unique
		// index decides, and the loser reports the winner's envelope.
		if errors.Is(err, shared.ErrAlreadyExists) {
			if existing, findErr := s.repo.FindByTransactionReference(ctx, txRef); findErr == nil && existing != nil {
				return existing, shared.ErrConflict
			}
		}
		return nil, err
	}

	s.logger.Debug("envelope registered",
		zap.String("transaction_reference", txRef),
		zap.String("command_tag", commandTag),
	)
	return envelope, nil
}

// ListManualReview lists envelopes parked for operator remediation
func (s *Service) ListManualReview(ctx context.Context, page, pageSize int) ([]*reconciliation.Envelope, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.repo.FindManualReview(ctx, page, pageSize)
}

// Requeue clears the manual-review flag so the scheduler replays the
// envelope on its next tick
func (s *Service) Requeue(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Requeue(ctx, id); err != nil {
		return err
	}
	s.logger.Info("envelope requeued for replay", zap.String("envelope_id", id.String()))
	return nil
}

// Stats returns envelope counts by replay state
func (s *Service) Stats(ctx context.Context) (reconciliation.EnvelopeStats, error) {
	return s.repo.Stats(ctx)
}
