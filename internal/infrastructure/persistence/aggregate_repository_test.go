package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/corebank/backend/internal/domain/dashboard"
	"github.com/corebank/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockAggregateRepository creates a GormAggregateRepository with a mocked SQL connection
func newMockAggregateRepository(t *testing.T) (*GormAggregateRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormAggregateRepository(gormDB), mock, mockDB
}

func aggregateColumns() []string {
	return []string{
		"id", "branch_id", "branch_code", "branch_name", "date",
		"number_of_cash_in", "total_cash_in_amount",
		"number_of_cash_out", "total_cash_out_amount",
		"service_fees_collected",
		"created_at", "updated_at",
	}
}

func cashInEvent(branchID uuid.UUID, at time.Time) dashboard.CashOperationEvent {
	return dashboard.CashOperationEvent{
		OperationType: dashboard.OperationCashIn,
		Amount:        decimal.NewFromInt(1000),
		Fee:           decimal.NewFromInt(10),
		BranchID:      branchID,
		BranchCode:    "BR-001",
		BranchName:    "Main Branch",
		TellerID:      uuid.New(),
		Reference:     "TRX-001",
		OccurredAt:    at,
	}
}

func TestGormAggregateRepository_ApplyOperation(t *testing.T) {
	t.Run("folds event into existing branch day row", func(t *testing.T) {
		repo, mock, mockDB := newMockAggregateRepository(t)
		defer mockDB.Close()

		branchID := uuid.New()
		rowID := uuid.New()
		at := time.Date(2026, 8, 14, 10, 30, 0, 0, time.UTC)
		day := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows(aggregateColumns()).
			AddRow(rowID, branchID, "BR-001", "Main Branch", day,
				3, decimal.NewFromInt(5000),
				1, decimal.NewFromInt(200),
				decimal.NewFromInt(30),
				at, at)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "daily_branch_aggregates" WHERE branch_id = \$1 AND date = \$2 ORDER BY .* LIMIT .* FOR UPDATE`).
			WillReturnRows(rows)
		mock.ExpectExec(`UPDATE "daily_branch_aggregates" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		aggregate, err := repo.ApplyOperation(context.Background(), cashInEvent(branchID, at))

		require.NoError(t, err)
		require.NotNil(t, aggregate)
		assert.Equal(t, rowID, aggregate.ID)
		assert.Equal(t, int64(4), aggregate.NumberOfCashIn)
		assert.True(t, aggregate.TotalCashInAmount.Equal(decimal.NewFromInt(6000)))
		assert.True(t, aggregate.ServiceFeesCollected.Equal(decimal.NewFromInt(40)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("creates the branch day row on first event", func(t *testing.T) {
		repo, mock, mockDB := newMockAggregateRepository(t)
		defer mockDB.Close()

		branchID := uuid.New()
		at := time.Date(2026, 8, 14, 8, 0, 0, 0, time.UTC)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "daily_branch_aggregates" WHERE branch_id = \$1 AND date = \$2 ORDER BY .* LIMIT .* FOR UPDATE`).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectQuery(`INSERT INTO "daily_branch_aggregates"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
		mock.ExpectExec(`UPDATE "daily_branch_aggregates" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		aggregate, err := repo.ApplyOperation(context.Background(), cashInEvent(branchID, at))

		require.NoError(t, err)
		require.NotNil(t, aggregate)
		assert.Equal(t, branchID, aggregate.BranchID)
		assert.Equal(t, "BR-001", aggregate.BranchCode)
		assert.Equal(t, int64(1), aggregate.NumberOfCashIn)
		assert.True(t, aggregate.TotalCashInAmount.Equal(decimal.NewFromInt(1000)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("locks the winner's row after losing the insert race", func(t *testing.T) {
		repo, mock, mockDB := newMockAggregateRepository(t)
		defer mockDB.Close()

		branchID := uuid.New()
		winnerID := uuid.New()
		at := time.Date(2026, 8, 14, 8, 0, 0, 0, time.UTC)
		day := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "daily_branch_aggregates" WHERE branch_id = \$1 AND date = \$2 ORDER BY .* LIMIT .* FOR UPDATE`).
			WillReturnError(gorm.ErrRecordNotFound)
		// The conflicting insert must be DO NOTHING, not an error: a
		// unique violation would abort the postgres transaction and the
		// recovery select below could never run.
		mock.ExpectQuery(`INSERT INTO "daily_branch_aggregates" .* ON CONFLICT \("branch_id","date"\) DO NOTHING`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		winnerRows := sqlmock.NewRows(aggregateColumns()).
			AddRow(winnerID, branchID, "BR-001", "Main Branch", day,
				1, decimal.NewFromInt(500),
				0, decimal.Zero,
				decimal.NewFromInt(5),
				at, at)
		mock.ExpectQuery(`SELECT \* FROM "daily_branch_aggregates" WHERE branch_id = \$1 AND date = \$2 ORDER BY .* LIMIT .* FOR UPDATE`).
			WillReturnRows(winnerRows)
		mock.ExpectExec(`UPDATE "daily_branch_aggregates" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		aggregate, err := repo.ApplyOperation(context.Background(), cashInEvent(branchID, at))

		require.NoError(t, err)
		require.NotNil(t, aggregate)
		assert.Equal(t, winnerID, aggregate.ID)
		assert.Equal(t, int64(2), aggregate.NumberOfCashIn)
		assert.True(t, aggregate.TotalCashInAmount.Equal(decimal.NewFromInt(1500)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on unknown operation type", func(t *testing.T) {
		repo, mock, mockDB := newMockAggregateRepository(t)
		defer mockDB.Close()

		branchID := uuid.New()
		at := time.Date(2026, 8, 14, 8, 0, 0, 0, time.UTC)
		day := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows(aggregateColumns()).
			AddRow(uuid.New(), branchID, "BR-001", "Main Branch", day,
				0, decimal.Zero, 0, decimal.Zero, decimal.Zero, at, at)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "daily_branch_aggregates" WHERE branch_id = \$1 AND date = \$2 ORDER BY .* LIMIT .* FOR UPDATE`).
			WillReturnRows(rows)
		mock.ExpectRollback()

		ev := cashInEvent(branchID, at)
		ev.OperationType = dashboard.OperationType("SOMETHING_NEW")

		aggregate, err := repo.ApplyOperation(context.Background(), ev)

		assert.Nil(t, aggregate)
		assert.ErrorIs(t, err, dashboard.ErrUnknownOperationType)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAggregateRepository_GetByBranchDate(t *testing.T) {
	t.Run("finds existing aggregate", func(t *testing.T) {
		repo, mock, mockDB := newMockAggregateRepository(t)
		defer mockDB.Close()

		branchID := uuid.New()
		day := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows(aggregateColumns()).
			AddRow(uuid.New(), branchID, "BR-001", "Main Branch", day,
				7, decimal.NewFromInt(9000), 2, decimal.NewFromInt(700),
				decimal.NewFromInt(95), day, day)

		mock.ExpectQuery(`SELECT \* FROM "daily_branch_aggregates" WHERE branch_id = \$1 AND date = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(branchID, day, 1).
			WillReturnRows(rows)

		aggregate, err := repo.GetByBranchDate(context.Background(), branchID, day.Add(15*time.Hour))

		require.NoError(t, err)
		assert.Equal(t, int64(7), aggregate.NumberOfCashIn)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when no activity was recorded", func(t *testing.T) {
		repo, mock, mockDB := newMockAggregateRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "daily_branch_aggregates" WHERE branch_id = \$1 AND date = \$2 ORDER BY .* LIMIT .*`).
			WillReturnError(gorm.ErrRecordNotFound)

		aggregate, err := repo.GetByBranchDate(context.Background(), uuid.New(), time.Now())

		assert.Nil(t, aggregate)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAggregateRepository_ListRange(t *testing.T) {
	t.Run("lists aggregates across branches for a range", func(t *testing.T) {
		repo, mock, mockDB := newMockAggregateRepository(t)
		defer mockDB.Close()

		from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows(aggregateColumns()).
			AddRow(uuid.New(), uuid.New(), "BR-001", "Main Branch", from,
				3, decimal.NewFromInt(5000), 1, decimal.NewFromInt(200),
				decimal.NewFromInt(30), from, from).
			AddRow(uuid.New(), uuid.New(), "BR-002", "North Branch", from,
				1, decimal.NewFromInt(800), 0, decimal.Zero,
				decimal.NewFromInt(8), from, from)

		mock.ExpectQuery(`SELECT \* FROM "daily_branch_aggregates" WHERE date >= \$1 AND date <= \$2 ORDER BY date ASC, branch_code ASC`).
			WithArgs(from, to).
			WillReturnRows(rows)

		aggregates, err := repo.ListRange(context.Background(), from, to, nil)

		require.NoError(t, err)
		require.Len(t, aggregates, 2)
		assert.Equal(t, "BR-001", aggregates[0].BranchCode)
		assert.Equal(t, "BR-002", aggregates[1].BranchCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("narrows to one branch when requested", func(t *testing.T) {
		repo, mock, mockDB := newMockAggregateRepository(t)
		defer mockDB.Close()

		branchID := uuid.New()
		from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT \* FROM "daily_branch_aggregates" WHERE date >= \$1 AND date <= \$2 AND branch_id = \$3 ORDER BY date ASC, branch_code ASC`).
			WithArgs(from, to, branchID).
			WillReturnRows(sqlmock.NewRows(aggregateColumns()))

		aggregates, err := repo.ListRange(context.Background(), from, to, &branchID)

		assert.NoError(t, err)
		assert.Empty(t, aggregates)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
