package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/corebank/backend/internal/domain/reconciliation"
	"github.com/corebank/backend/internal/domain/shared"
	"github.com/corebank/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// claimLease is how long a claimed envelope stays invisible to other
// scheduler instances before it becomes claimable again.
const claimLease = 2 * time.Minute

// GormEnvelopeRepository implements reconciliation.EnvelopeRepository using GORM
type GormEnvelopeRepository struct {
	db    *gorm.DB
	lease time.Duration
}

// NewGormEnvelopeRepository creates a new GORM-based envelope repository
func NewGormEnvelopeRepository(db *gorm.DB) *GormEnvelopeRepository {
	return &GormEnvelopeRepository{db: db, lease: claimLease}
}

// WithTx returns a new repository instance bound to the given transaction
func (r *GormEnvelopeRepository) WithTx(tx *gorm.DB) *GormEnvelopeRepository {
	return &GormEnvelopeRepository{db: tx, lease: r.lease}
}

// Save persists a new envelope. A second envelope for the same
// transaction reference loses against the unique index and reports
// shared.ErrAlreadyExists so callers can fetch the first one.
func (r *GormEnvelopeRepository) Save(ctx context.Context, envelope *reconciliation.Envelope) error {
	model := models.EnvelopeModelFromDomain(envelope)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID retrieves a single envelope
func (r *GormEnvelopeRepository) FindByID(ctx context.Context, id uuid.UUID) (*reconciliation.Envelope, error) {
	var model models.EnvelopeModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTransactionReference retrieves the envelope for a correlation key
func (r *GormEnvelopeRepository) FindByTransactionReference(ctx context.Context, txRef string) (*reconciliation.Envelope, error) {
	var model models.EnvelopeModel
	err := r.db.WithContext(ctx).Where("transaction_reference_id = ?", txRef).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ClaimUnreconciled atomically claims up to limit unreconciled envelopes.
// Rows locked by a concurrent claimant are skipped, and claimed rows carry
// a lease so a crashed claimant cannot strand them forever.
func (r *GormEnvelopeRepository) ClaimUnreconciled(ctx context.Context, filter reconciliation.ReplayFilter, limit int) ([]*reconciliation.Envelope, error) {
	if limit <= 0 {
		return nil, nil
	}

	var claimed []*models.EnvelopeModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		query := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Options:  "SKIP LOCKED",
			}).
			Where("has_passed = ? AND requires_manual_review = ?", false, false).
			Where("claimed_until IS NULL OR claimed_until < ?", now)

		dateColumn := "created_at"
		if filter.UseAccountingDate {
			dateColumn = "accounting_date"
		}
		if !filter.DateFrom.IsZero() {
			query = query.Where(dateColumn+" >= ?", filter.DateFrom)
		}
		if !filter.DateTo.IsZero() {
			query = query.Where(dateColumn+" <= ?", filter.DateTo)
		}
		if filter.BranchID != uuid.Nil {
			query = query.Where("branch_id = ?", filter.BranchID)
		}
		if filter.TellerID != uuid.Nil {
			query = query.Where("teller_id = ?", filter.TellerID)
		}

		if err := query.
			Order("created_at ASC").
			Limit(limit).
			Find(&claimed).Error; err != nil {
			return err
		}

		if len(claimed) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(claimed))
		for i, m := range claimed {
			ids[i] = m.ID
		}

		leaseUntil := now.Add(r.lease)
		if err := tx.Model(&models.EnvelopeModel{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"claimed_until": leaseUntil,
				"updated_at":    now,
			}).Error; err != nil {
			return err
		}

		for _, m := range claimed {
			m.ClaimedUntil = &leaseUntil
			m.UpdatedAt = now
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	envelopes := make([]*reconciliation.Envelope, len(claimed))
	for i, m := range claimed {
		envelopes[i] = m.ToDomain()
	}
	return envelopes, nil
}

// FindManualReview lists envelopes parked for operator remediation
func (r *GormEnvelopeRepository) FindManualReview(ctx context.Context, page, pageSize int) ([]*reconciliation.Envelope, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).
		Model(&models.EnvelopeModel{}).
		Where("requires_manual_review = ? AND has_passed = ?", true, false)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var parked []*models.EnvelopeModel
	err := base.
		Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&parked).Error
	if err != nil {
		return nil, 0, err
	}

	envelopes := make([]*reconciliation.Envelope, len(parked))
	for i, m := range parked {
		envelopes[i] = m.ToDomain()
	}
	return envelopes, total, nil
}

// RecordOutcome persists the result of a replay attempt and releases the claim
func (r *GormEnvelopeRepository) RecordOutcome(ctx context.Context, envelope *reconciliation.Envelope) error {
	result := r.db.WithContext(ctx).
		Model(&models.EnvelopeModel{}).
		Where("id = ?", envelope.ID).
		Updates(map[string]interface{}{
			"has_passed":             envelope.HasPassed,
			"requires_manual_review": envelope.RequiresManualReview,
			"number_of_retry":        envelope.NumberOfRetry,
			"last_error":             envelope.LastError,
			"date_passed":            envelope.DatePassed,
			"claimed_until":          nil,
			"updated_at":             envelope.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Requeue clears the manual-review flag so the scheduler picks the envelope
// up again on its next tick
func (r *GormEnvelopeRepository) Requeue(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.EnvelopeModel
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		envelope := model.ToDomain()
		if err := envelope.ResetForReplay(); err != nil {
			return err
		}

		return tx.Model(&models.EnvelopeModel{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"requires_manual_review": false,
				"last_error":             "",
				"claimed_until":          nil,
				"updated_at":             envelope.UpdatedAt,
			}).Error
	})
}

// Stats returns envelope counts by replay state
func (r *GormEnvelopeRepository) Stats(ctx context.Context) (reconciliation.EnvelopeStats, error) {
	var stats reconciliation.EnvelopeStats
	err := r.db.WithContext(ctx).
		Model(&models.EnvelopeModel{}).
		Select(
			"count(*) FILTER (WHERE has_passed) AS passed, " +
				"count(*) FILTER (WHERE NOT has_passed AND requires_manual_review) AS manual_review, " +
				"count(*) FILTER (WHERE NOT has_passed AND NOT requires_manual_review) AS unreconciled").
		Scan(&stats).Error
	return stats, err
}
