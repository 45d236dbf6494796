package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/corebank/backend/internal/domain/reconciliation"
	"github.com/corebank/backend/internal/domain/shared"
	"github.com/corebank/backend/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// SchedulerConfig holds configuration for the replay scheduler
type SchedulerConfig struct {
	BatchSize       int
	PollInterval    time.Duration
	DispatchTimeout time.Duration
	Filter          reconciliation.ReplayFilter
}

// DefaultSchedulerConfig returns default configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		BatchSize:       100,
		PollInterval:    5 * time.Minute,
		DispatchTimeout: 30 * time.Second,
	}
}

// ReplayScheduler periodically replays unreconciled envelopes against the
// accounting ledger. One cooperative loop runs per process; iterations
// never overlap because the loop processes each batch to completion before
// waiting for the next tick. Envelope claims are leased at the repository,
// so running a second instance does not double-process.
type ReplayScheduler struct {
	repo     reconciliation.EnvelopeRepository
	lookup   reconciliation.AccountingLookup
	registry *reconciliation.CommandRegistry
	handler  reconciliation.CommandHandler
	audit    shared.AuditRecorder
	metrics  *metrics.ReconciliationMetrics
	config   SchedulerConfig
	logger   *zap.Logger

	// now is injected for deterministic tests
	now func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReplayScheduler creates a new replay scheduler
func NewReplayScheduler(
	repo reconciliation.EnvelopeRepository,
	lookup reconciliation.AccountingLookup,
	registry *reconciliation.CommandRegistry,
	handler reconciliation.CommandHandler,
	audit shared.AuditRecorder,
	m *metrics.ReconciliationMetrics,
	config SchedulerConfig,
	logger *zap.Logger,
) *ReplayScheduler {
	return &ReplayScheduler{
		repo:     repo,
		lookup:   lookup,
		registry: registry,
		handler:  handler,
		audit:    audit,
		metrics:  m,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the scheduler's clock, for tests
func (s *ReplayScheduler) WithClock(now func() time.Time) *ReplayScheduler {
	s.now = now
	return s
}

// Start starts the background replay loop
func (s *ReplayScheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.replayLoop(ctx)

	s.logger.Info("replay scheduler started",
		zap.Int("batch_size", s.config.BatchSize),
		zap.Duration("poll_interval", s.config.PollInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler. An in-flight batch completes; each
// envelope outcome is persisted individually, so nothing is lost mid-batch.
func (s *ReplayScheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("replay scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ReplayScheduler) replayLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch claims one batch of unreconciled envelopes and replays each
// in turn. Failures are recorded per envelope and never abort the batch.
func (s *ReplayScheduler) ProcessBatch(ctx context.Context) {
	start := s.now()

	envelopes, err := s.repo.ClaimUnreconciled(ctx, s.config.Filter, s.config.BatchSize)
	if err != nil {
		s.logger.Error("failed to claim unreconciled envelopes", zap.Error(err))
		return
	}
	if len(envelopes) == 0 {
		return
	}

	s.logger.Debug("replaying envelope batch", zap.Int("count", len(envelopes)))

	for _, envelope := range envelopes {
		s.replayEnvelope(ctx, envelope)
	}

	s.metrics.ObserveBatch(s.now().Sub(start))
}

// replayEnvelope repairs a single envelope: if the accounting effect
// already exists it is marked passed without redispatch; otherwise the
// payload is decoded and dispatched to the accounting handler.
func (s *ReplayScheduler) replayEnvelope(ctx context.Context, envelope *reconciliation.Envelope) {
	now := s.now()

	// The effect may have landed after the envelope was created; posting it
	// again would double-count, so check before dispatching.
	exists, err := s.lookup.EffectExists(ctx, envelope.TransactionReferenceID)
	if err != nil {
		s.recordRetry(ctx, envelope, fmt.Errorf("accounting lookup: %w", err), now)
		return
	}
	if exists {
		s.recordPassed(ctx, envelope, now, "accounting effect already present")
		return
	}

	cmd, err := s.registry.Decode(envelope.CommandTag, envelope.CommandPayload)
	if err != nil {
		if errors.Is(err, reconciliation.ErrUnknownCommandTag) || errors.Is(err, reconciliation.ErrMalformedPayload) {
			s.recordPermanentFailure(ctx, envelope, err, now)
			return
		}
		s.recordRetry(ctx, envelope, err, now)
		return
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, s.config.DispatchTimeout)
	err = s.handler.Handle(dispatchCtx, cmd)
	cancel()
	if err != nil {
		// A ledger rejection of the payload itself will never succeed on
		// a later tick; only infrastructure failures are worth retrying.
		if errors.Is(err, shared.ErrPermanentPayload) {
			s.recordPermanentFailure(ctx, envelope, fmt.Errorf("dispatch %s: %w", envelope.CommandTag, err), now)
			return
		}
		s.recordRetry(ctx, envelope, fmt.Errorf("dispatch %s: %w", envelope.CommandTag, err), now)
		return
	}

	s.recordPassed(ctx, envelope, now, "command replayed")
}

func (s *ReplayScheduler) recordPassed(ctx context.Context, envelope *reconciliation.Envelope, now time.Time, summary string) {
	if err := envelope.MarkPassed(now); err != nil {
		s.logger.Warn("envelope already terminal",
			zap.String("transaction_reference", envelope.TransactionReferenceID),
			zap.Error(err),
		)
		return
	}
	if err := s.repo.RecordOutcome(ctx, envelope); err != nil {
		s.logger.Error("failed to record reconciliation outcome",
			zap.String("transaction_reference", envelope.TransactionReferenceID),
			zap.Error(err),
		)
		return
	}

	s.metrics.IncPassed()
	s.audit.Record(ctx, shared.AuditEntry{
		Actor:         "replay-scheduler",
		Action:        "reconcile",
		Summary:       summary,
		Level:         shared.AuditLevelInfo,
		Status:        shared.AuditStatusSuccess,
		CorrelationID: envelope.TransactionReferenceID,
		OccurredAt:    now,
	})
	s.logger.Info("envelope reconciled",
		zap.String("transaction_reference", envelope.TransactionReferenceID),
		zap.String("command_tag", envelope.CommandTag),
		zap.Int("number_of_retry", envelope.NumberOfRetry),
	)
}

func (s *ReplayScheduler) recordRetry(ctx context.Context, envelope *reconciliation.Envelope, cause error, now time.Time) {
	if err := envelope.MarkRetried(cause.Error(), now); err != nil {
		s.logger.Warn("envelope already terminal",
			zap.String("transaction_reference", envelope.TransactionReferenceID),
			zap.Error(err),
		)
		return
	}
	if err := s.repo.RecordOutcome(ctx, envelope); err != nil {
		s.logger.Error("failed to record reconciliation outcome",
			zap.String("transaction_reference", envelope.TransactionReferenceID),
			zap.Error(err),
		)
		return
	}

	s.metrics.IncRetried()
	s.audit.Record(ctx, shared.AuditEntry{
		Actor:         "replay-scheduler",
		Action:        "reconcile",
		Summary:       cause.Error(),
		Level:         shared.AuditLevelWarn,
		Status:        shared.AuditStatusFailed,
		CorrelationID: envelope.TransactionReferenceID,
		OccurredAt:    now,
	})
	s.logger.Warn("envelope replay failed, will retry next tick",
		zap.String("transaction_reference", envelope.TransactionReferenceID),
		zap.String("command_tag", envelope.CommandTag),
		zap.Int("number_of_retry", envelope.NumberOfRetry),
		zap.Error(cause),
	)
}

func (s *ReplayScheduler) recordPermanentFailure(ctx context.Context, envelope *reconciliation.Envelope, cause error, now time.Time) {
	if err := envelope.MarkPermanentlyFailed(cause.Error(), now); err != nil {
		s.logger.Warn("envelope already terminal",
			zap.String("transaction_reference", envelope.TransactionReferenceID),
			zap.Error(err),
		)
		return
	}
	if err := s.repo.RecordOutcome(ctx, envelope); err != nil {
		s.logger.Error("failed to record reconciliation outcome",
			zap.String("transaction_reference", envelope.TransactionReferenceID),
			zap.Error(err),
		)
		return
	}

	s.metrics.IncParked()
	s.audit.Record(ctx, shared.AuditEntry{
		Actor:         "replay-scheduler",
		Action:        "reconcile",
		Summary:       cause.Error(),
		Level:         shared.AuditLevelError,
		Status:        shared.AuditStatusFailed,
		CorrelationID: envelope.TransactionReferenceID,
		OccurredAt:    now,
	})
	s.logger.Error("envelope parked for manual review",
		zap.String("transaction_reference", envelope.TransactionReferenceID),
		zap.String("command_tag", envelope.CommandTag),
		zap.Int("number_of_retry", envelope.NumberOfRetry),
		zap.Error(cause),
	)
}
