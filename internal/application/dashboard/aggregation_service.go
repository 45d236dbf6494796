package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/corebank/backend/internal/domain/dashboard"
	"github.com/corebank/backend/internal/domain/shared"
	"github.com/corebank/backend/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// AggregateCache is a best-effort cache over branch-day point lookups.
// Failures are logged and ignored; postgres remains authoritative.
type AggregateCache interface {
	Get(ctx context.Context, branchID string, date time.Time) (*dashboard.DailyBranchAggregate, bool)
	Set(ctx context.Context, agg *dashboard.DailyBranchAggregate)
	Invalidate(ctx context.Context, branchID string, date time.Time)
}

// NopAggregateCache disables caching
type NopAggregateCache struct{}

func (NopAggregateCache) Get(ctx context.Context, branchID string, date time.Time) (*dashboard.DailyBranchAggregate, bool) {
	return nil, false
}
func (NopAggregateCache) Set(ctx context.Context, agg *dashboard.DailyBranchAggregate)           {}
func (NopAggregateCache) Invalidate(ctx context.Context, branchID string, date time.Time)        {}

// AggregationService folds cash operation events into branch-day
// aggregates. It is invoked inline by the posting pipeline after the
// ledger write commits; the ledger is authoritative and the dashboard is
// best-effort, so persistence failures are reported but must never block
// the originating operation.
type AggregationService struct {
	repo    dashboard.AggregateRepository
	cache   AggregateCache
	audit   shared.AuditRecorder
	metrics *metrics.DashboardMetrics
	logger  *zap.Logger
}

// NewAggregationService creates a new aggregation service
func NewAggregationService(
	repo dashboard.AggregateRepository,
	cache AggregateCache,
	audit shared.AuditRecorder,
	m *metrics.DashboardMetrics,
	logger *zap.Logger,
) *AggregationService {
	if cache == nil {
		cache = NopAggregateCache{}
	}
	return &AggregationService{
		repo:    repo,
		cache:   cache,
		audit:   audit,
		metrics: m,
		logger:  logger,
	}
}

// Record applies one cash operation to the (branch, day) aggregate. The
// repository serializes concurrent mutations of the same row. Every
// attempt, success or failure, emits an audit record. An operation type
// outside the closed enumeration is a contract violation and propagates to
// the caller.
func (s *AggregationService) Record(ctx context.Context, ev dashboard.CashOperationEvent) (*dashboard.DailyBranchAggregate, error) {
	now := time.Now()

	if !ev.OperationType.IsValid() {
		err := fmt.Errorf("%w: %s", dashboard.ErrUnknownOperationType, ev.OperationType)
		s.recordAttempt(ctx, ev, shared.AuditLevelError, shared.AuditStatusFailed, err.Error(), now)
		s.metrics.IncFailed()
		s.logger.Error("rejected cash operation with unmapped type",
			zap.String("operation_type", string(ev.OperationType)),
			zap.String("reference", ev.Reference),
		)
		return nil, err
	}

	agg, err := s.repo.ApplyOperation(ctx, ev)
	if err != nil {
		s.recordAttempt(ctx, ev, shared.AuditLevelWarn, shared.AuditStatusFailed, err.Error(), now)
		s.metrics.IncFailed()
		s.logger.Error("failed to apply cash operation",
			zap.String("operation_type", string(ev.OperationType)),
			zap.String("branch_code", ev.BranchCode),
			zap.String("reference", ev.Reference),
			zap.Error(err),
		)
		if errors.Is(err, dashboard.ErrUnknownOperationType) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: apply operation: %v", shared.ErrTransientDownstream, err)
	}

	s.cache.Invalidate(ctx, ev.BranchID.String(), dashboard.DayOf(ev.OccurredAt))
	s.recordAttempt(ctx, ev, shared.AuditLevelInfo, shared.AuditStatusSuccess, "operation applied", now)
	s.metrics.IncApplied()

	return agg, nil
}

func (s *AggregationService) recordAttempt(ctx context.Context, ev dashboard.CashOperationEvent, level shared.AuditLevel, status shared.AuditStatus, summary string, now time.Time) {
	s.audit.Record(ctx, shared.AuditEntry{
		Actor:         ev.TellerID.String(),
		Action:        "aggregate:" + string(ev.OperationType),
		Summary:       summary,
		Level:         level,
		Status:        status,
		CorrelationID: ev.Reference,
		OccurredAt:    now,
	})
}
