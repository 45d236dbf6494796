package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/corebank/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockAuditRepository(t *testing.T) (*GormAuditRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormAuditRepository(gormDB), mock, mockDB
}

func TestGormAuditRepository_Insert(t *testing.T) {
	t.Run("stores one audit entry", func(t *testing.T) {
		repo, mock, mockDB := newMockAuditRepository(t)
		defer mockDB.Close()

		entry := shared.AuditEntry{
			Actor:         "replay-scheduler",
			Action:        "reconciliation.replay",
			Summary:       "envelope passed",
			Level:         shared.AuditLevelInfo,
			Status:        shared.AuditStatusSuccess,
			CorrelationID: "TRX-001",
			OccurredAt:    time.Now(),
		}

		mock.ExpectQuery(`INSERT INTO "audit_trails"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))

		err := repo.Insert(context.Background(), entry)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAuditRepository_ListRecent(t *testing.T) {
	t.Run("returns newest entries first", func(t *testing.T) {
		repo, mock, mockDB := newMockAuditRepository(t)
		defer mockDB.Close()

		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "actor", "action", "summary", "level", "status", "correlation_id", "occurred_at", "created_at"}).
			AddRow(uuid.New(), "replay-scheduler", "reconciliation.replay", "envelope parked",
				"ERROR", "FAILED", "TRX-002", now, now).
			AddRow(uuid.New(), "dashboard", "dashboard.record", "operation applied",
				"INFO", "SUCCESS", "TRX-001", now.Add(-time.Minute), now)

		mock.ExpectQuery(`SELECT \* FROM "audit_trails" ORDER BY occurred_at DESC LIMIT .*`).
			WillReturnRows(rows)

		entries, err := repo.ListRecent(context.Background(), 50)

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "reconciliation.replay", entries[0].Action)
		assert.Equal(t, shared.AuditStatusFailed, entries[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
