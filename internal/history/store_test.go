package history

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vdt/internal/domain"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func sampleReport() *domain.RunReport {
	return &domain.RunReport{
		Meta: domain.RunMeta{
			RunID: "run-1", Project: "android", Status: domain.StatusSucceeded,
			Shards: 2, Cases: 3, DurationSeconds: 12.5,
			StartedAt: "2026-10-19T10:00:00Z", FinishedAt: "2026-10-19T10:00:12Z",
		},
		Instances: []domain.InstanceReport{
			{InstanceID: "i1", ShardIndex: 0, CaseCount: 2, Output: []string{
				"INSTRUMENTATION_STATUS_CODE: 0", "INSTRUMENTATION_STATUS_CODE: -2", "INSTRUMENTATION_CODE: -1",
			}},
			{InstanceID: "i2", ShardIndex: 1, CaseCount: 1, Output: []string{
				"INSTRUMENTATION_STATUS_CODE: 0", "INSTRUMENTATION_CODE: -1",
			}},
		},
	}
}

func TestStore_RecordRun(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO runs")).
		WithArgs("run-1", "android", domain.StatusSucceeded, "", 2, 3, 2, 1, 12.5, "2026-10-19T10:00:00Z", "2026-10-19T10:00:12Z").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO run_instances")).
		WithArgs("run-1", "i1", 0, 2, "", 1, 1, false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO run_instances")).
		WithArgs("run-1", "i2", 1, 1, "", 1, 0, false).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, store.RecordRun(context.Background(), sampleReport()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordRunRollsBack(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO runs")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO run_instances")).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := store.RecordRun(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert instance i1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecentRuns(t *testing.T) {
	store, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"run_id", "project", "status", "error", "shards", "cases", "passed", "failed", "duration_seconds", "started_at"}).
		AddRow("run-2", "android", domain.StatusFailed, "install failed", 2, 4, 0, 0, 3.2, "2026-10-19T11:00:00Z").
		AddRow("run-1", "android", domain.StatusSucceeded, "", 2, 3, 2, 1, 12.5, "2026-10-19T10:00:00Z")
	mock.ExpectQuery(regexp.QuoteMeta("FROM runs ORDER BY started_at DESC LIMIT ?")).
		WithArgs(5).
		WillReturnRows(rows)

	runs, err := store.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, "install failed", runs[0].Error)
	assert.Equal(t, 2, runs[1].Passed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Migrate(t *testing.T) {
	t.Run("fresh database", func(t *testing.T) {
		store, mock := newMock(t)

		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0)")).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(0))
		for _, m := range migrations {
			mock.ExpectBegin()
			for range m.statements {
				mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
			}
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations")).
				WithArgs(m.version).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()
		}

		applied, err := store.Migrate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, len(migrations), applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("up to date", func(t *testing.T) {
		store, mock := newMock(t)

		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0)")).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(len(migrations)))

		applied, err := store.Migrate(context.Background())
		require.NoError(t, err)
		assert.Zero(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "postgres", "dsn")
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, "sqlite3", filepath.Join(t.TempDir(), "history.db"))
	if err != nil && strings.Contains(err.Error(), "CGO_ENABLED=0") {
		t.Skip("sqlite3 needs cgo")
	}
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Migrate(ctx)
	require.NoError(t, err)
	require.NoError(t, store.RecordRun(ctx, sampleReport()))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunSummary{
		RunID: "run-1", Project: "android", Status: domain.StatusSucceeded,
		Shards: 2, Cases: 3, Passed: 2, Failed: 1, DurationSeconds: 12.5,
		StartedAt: "2026-10-19T10:00:00Z",
	}, runs[0])

	applied, err := store.Migrate(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)
}
