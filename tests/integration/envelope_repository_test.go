package integration

import (
	"context"
	"testing"
	"time"

	"github.com/corebank/backend/internal/domain/reconciliation"
	"github.com/corebank/backend/internal/domain/shared"
	"github.com/corebank/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnvelope(txRef string) *reconciliation.Envelope {
	return reconciliation.NewEnvelope(
		txRef,
		reconciliation.TagTransferEvent,
		[]byte(`{"transactionReference":"`+txRef+`","debitAccount":"1001","creditAccount":"2001","amount":"1000"}`),
		uuid.New(),
		uuid.New(),
		time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	)
}

func TestEnvelopeRepository_ClaimIsExclusive(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	repo := persistence.NewGormEnvelopeRepository(tdb.DB)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, newEnvelope("TXN-CLAIM-"+uuid.NewString()[:8])))
	}

	first, err := repo.ClaimUnreconciled(ctx, reconciliation.ReplayFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, first, 5)
	for _, e := range first {
		assert.NotNil(t, e.ClaimedUntil)
	}

	// A second claimant inside the lease window sees nothing.
	second, err := repo.ClaimUnreconciled(ctx, reconciliation.ReplayFilter{}, 10)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestEnvelopeRepository_OutcomeReleasesClaim(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	repo := persistence.NewGormEnvelopeRepository(tdb.DB)
	ctx := context.Background()

	env := newEnvelope("TXN-OUTCOME-1")
	require.NoError(t, repo.Save(ctx, env))

	claimed, err := repo.ClaimUnreconciled(ctx, reconciliation.ReplayFilter{}, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	// Retry outcome: still unreconciled, claim released, eligible again.
	require.NoError(t, claimed[0].MarkRetried("dispatch timed out", time.Now()))
	require.NoError(t, repo.RecordOutcome(ctx, claimed[0]))

	again, err := repo.ClaimUnreconciled(ctx, reconciliation.ReplayFilter{}, 1)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, 1, again[0].NumberOfRetry)

	// Passed outcome: terminal, never claimed again.
	require.NoError(t, again[0].MarkPassed(time.Now()))
	require.NoError(t, repo.RecordOutcome(ctx, again[0]))

	done, err := repo.ClaimUnreconciled(ctx, reconciliation.ReplayFilter{}, 1)
	require.NoError(t, err)
	assert.Empty(t, done)

	stored, err := repo.FindByTransactionReference(ctx, "TXN-OUTCOME-1")
	require.NoError(t, err)
	assert.True(t, stored.HasPassed)
	assert.NotNil(t, stored.DatePassed)
}

func TestEnvelopeRepository_ManualReviewRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	repo := persistence.NewGormEnvelopeRepository(tdb.DB)
	ctx := context.Background()

	env := newEnvelope("TXN-REVIEW-1")
	require.NoError(t, repo.Save(ctx, env))

	claimed, err := repo.ClaimUnreconciled(ctx, reconciliation.ReplayFilter{}, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, claimed[0].MarkPermanentlyFailed("no handler registered", time.Now()))
	require.NoError(t, repo.RecordOutcome(ctx, claimed[0]))

	// Parked envelopes are excluded from replay but visible for review.
	parked, total, err := repo.FindManualReview(ctx, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, parked, 1)
	assert.Equal(t, "no handler registered", parked[0].LastError)

	eligible, err := repo.ClaimUnreconciled(ctx, reconciliation.ReplayFilter{}, 1)
	require.NoError(t, err)
	assert.Empty(t, eligible)

	// Requeue puts it back into the replay queue.
	require.NoError(t, repo.Requeue(ctx, parked[0].ID))

	eligible, err = repo.ClaimUnreconciled(ctx, reconciliation.ReplayFilter{}, 1)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.False(t, eligible[0].RequiresManualReview)
}

func TestEnvelopeRepository_DuplicateTransactionReferenceRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	repo := persistence.NewGormEnvelopeRepository(tdb.DB)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newEnvelope("TXN-DUP-1")))

	dup := newEnvelope("TXN-DUP-1")
	err := repo.Save(ctx, dup)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists,
		"unique index on transaction reference must reject the duplicate")
}

func TestEnvelopeRepository_StatsCountsByState(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	repo := persistence.NewGormEnvelopeRepository(tdb.DB)
	ctx := context.Background()

	passed := newEnvelope("TXN-STATS-PASSED")
	require.NoError(t, repo.Save(ctx, passed))
	require.NoError(t, passed.MarkPassed(time.Now()))
	require.NoError(t, repo.RecordOutcome(ctx, passed))

	parked := newEnvelope("TXN-STATS-PARKED")
	require.NoError(t, repo.Save(ctx, parked))
	require.NoError(t, parked.MarkPermanentlyFailed("malformed", time.Now()))
	require.NoError(t, repo.RecordOutcome(ctx, parked))

	require.NoError(t, repo.Save(ctx, newEnvelope("TXN-STATS-OPEN")))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Passed)
	assert.Equal(t, int64(1), stats.ManualReview)
	assert.Equal(t, int64(1), stats.Unreconciled)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
