package dashboard

import (
	"context"
	"time"

	"github.com/corebank/backend/internal/domain/dashboard"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueryService is the read-only accessor over branch-day aggregates.
// Both lookups are pure; nothing here mutates state.
type QueryService struct {
	repo   dashboard.AggregateRepository
	cache  AggregateCache
	logger *zap.Logger
}

// NewQueryService creates a new dashboard query service
func NewQueryService(repo dashboard.AggregateRepository, cache AggregateCache, logger *zap.Logger) *QueryService {
	if cache == nil {
		cache = NopAggregateCache{}
	}
	return &QueryService{repo: repo, cache: cache, logger: logger}
}

// GetBranchDay returns the aggregate for one branch and calendar day.
// Point reads go through the cache; a miss falls back to postgres and
// primes the cache.
func (s *QueryService) GetBranchDay(ctx context.Context, branchID uuid.UUID, date time.Time) (*dashboard.DailyBranchAggregate, error) {
	day := dashboard.DayOf(date)

	if agg, ok := s.cache.Get(ctx, branchID.String(), day); ok {
		return agg, nil
	}

	agg, err := s.repo.GetByBranchDate(ctx, branchID, day)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, agg)
	return agg, nil
}

// ListRange returns aggregates across branches for a date range, ordered
// by date. A non-nil branchID narrows the result to one branch.
func (s *QueryService) ListRange(ctx context.Context, from, to time.Time, branchID *uuid.UUID) ([]*dashboard.DailyBranchAggregate, error) {
	return s.repo.ListRange(ctx, dashboard.DayOf(from), dashboard.DayOf(to), branchID)
}
