package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/corebank/backend/internal/domain/dashboard"
	"github.com/corebank/backend/internal/domain/shared"
	"github.com/corebank/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAggregateRepository implements dashboard.AggregateRepository using GORM
type GormAggregateRepository struct {
	db *gorm.DB
}

// NewGormAggregateRepository creates a new GORM-based aggregate repository
func NewGormAggregateRepository(db *gorm.DB) *GormAggregateRepository {
	return &GormAggregateRepository{db: db}
}

// WithTx returns a new repository instance bound to the given transaction
func (r *GormAggregateRepository) WithTx(tx *gorm.DB) *GormAggregateRepository {
	return &GormAggregateRepository{db: tx}
}

// ApplyOperation folds one cash operation into its (branch, day) row.
// The row is locked for the duration of the transaction so concurrent
// tellers posting into the same branch and day serialize instead of
// overwriting each other.
func (r *GormAggregateRepository) ApplyOperation(ctx context.Context, ev dashboard.CashOperationEvent) (*dashboard.DailyBranchAggregate, error) {
	day := dashboard.DayOf(ev.OccurredAt)

	var aggregate *dashboard.DailyBranchAggregate

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.DailyBranchAggregateModel
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("branch_id = ? AND date = ?", ev.BranchID, day).
			First(&model).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			fresh := dashboard.NewDailyBranchAggregate(ev.BranchID, ev.BranchCode, ev.BranchName, day)
			freshModel := models.DailyBranchAggregateModelFromDomain(fresh)
			// ON CONFLICT DO NOTHING: a plain INSERT losing the race
			// against a concurrent first event would raise a unique
			// violation and abort the whole transaction on postgres.
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "branch_id"}, {Name: "date"}},
				DoNothing: true,
			}).Create(freshModel)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Lost the insert race; lock the winner's row and fold
				// into that instead.
				err = tx.
					Clauses(clause.Locking{Strength: "UPDATE"}).
					Where("branch_id = ? AND date = ?", ev.BranchID, day).
					First(&model).Error
				if err != nil {
					return err
				}
			} else {
				model = *freshModel
			}
		} else if err != nil {
			return err
		}

		aggregate = model.ToDomain()
		if err := aggregate.Apply(ev); err != nil {
			return err
		}
		aggregate.UpdatedAt = time.Now()

		model.FromDomain(aggregate)
		return tx.Save(&model).Error
	})
	if err != nil {
		return nil, err
	}

	return aggregate, nil
}

// GetByBranchDate retrieves the aggregate for a branch and calendar day
func (r *GormAggregateRepository) GetByBranchDate(ctx context.Context, branchID uuid.UUID, date time.Time) (*dashboard.DailyBranchAggregate, error) {
	var model models.DailyBranchAggregateModel
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND date = ?", branchID, dashboard.DayOf(date)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListRange retrieves aggregates across branches for a date range
func (r *GormAggregateRepository) ListRange(ctx context.Context, from, to time.Time, branchID *uuid.UUID) ([]*dashboard.DailyBranchAggregate, error) {
	query := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", dashboard.DayOf(from), dashboard.DayOf(to))
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}

	var rows []*models.DailyBranchAggregateModel
	err := query.
		Order("date ASC, branch_code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	aggregates := make([]*dashboard.DailyBranchAggregate, len(rows))
	for i, m := range rows {
		aggregates[i] = m.ToDomain()
	}
	return aggregates, nil
}
