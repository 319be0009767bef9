package sweep

import (
	"context"
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesto-students/backend-repo-titans/internal/clock"
	"github.com/pesto-students/backend-repo-titans/internal/config"
	"github.com/pesto-students/backend-repo-titans/internal/logger"
	"github.com/pesto-students/backend-repo-titans/internal/metrics"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// Monday 10 March 2025, 09:00 UTC.
var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T, opts Options) (*Sweeper, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(sqlx.NewDb(db, "sqlmock"), clock.NewFake(now), opts), mock
}

func idRows(ids ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	return rows
}

func TestRunCompletionSweep_Uniform(t *testing.T) {
	s, mock := setup(t, Options{BatchSize: 2})
	statuses := pq.Array([]string{"scheduled", "pending"})
	before := testutil.ToFloat64(metrics.SweepTransitionsTotal.WithLabelValues(NameCompletion))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM bookings")).
		WithArgs(statuses, "2025-03-10", "09:00").
		WillReturnRows(idRows(1, 2, 3))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ANY($1) AND status = ANY($2)")).
		WithArgs(pq.Array([]int64{1, 2}), statuses).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ANY($1) AND status = ANY($2)")).
		WithArgs(pq.Array([]int64{3}), statuses).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := s.RunCompletionSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Result{Candidates: 3, Transitioned: 3}, res)
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.SweepTransitionsTotal.WithLabelValues(NameCompletion)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunCompletionSweep_LegacyOnlyCompletesPending(t *testing.T) {
	s, mock := setup(t, Options{Rule: config.SweepRuleLegacy})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM bookings")).
		WithArgs(pq.Array([]string{"pending"}), "2025-03-10", "09:00").
		WillReturnRows(idRows())

	res, err := s.RunCompletionSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunCompletionSweep_ChunkFailureFallsBackPerRow(t *testing.T) {
	s, mock := setup(t, Options{})
	statuses := pq.Array([]string{"scheduled", "pending"})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM bookings")).
		WillReturnRows(idRows(1, 2, 3))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ANY($1)")).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = ANY($2)")).
		WithArgs(int64(1), statuses).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = ANY($2)")).
		WithArgs(int64(2), statuses).
		WillReturnError(errors.New("row is broken"))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = ANY($2)")).
		WithArgs(int64(3), statuses).
		WillReturnResult(sqlmock.NewResult(0, 0))

	res, err := s.RunCompletionSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Result{Candidates: 3, Transitioned: 1, Failed: 1}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunCompletionSweep_SelectError(t *testing.T) {
	s, mock := setup(t, Options{})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM bookings")).
		WillReturnError(errors.New("connection refused"))

	_, err := s.RunCompletionSweep(context.Background())

	assert.Error(t, err)
}

func TestRunCompletionSweep_UsesConfiguredZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	s, mock := setup(t, Options{Location: ist})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM bookings")).
		WithArgs(pq.Array([]string{"scheduled", "pending"}), "2025-03-10", "14:30").
		WillReturnRows(idRows())

	_, err := s.RunCompletionSweep(context.Background())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunExtensionExpirySweep(t *testing.T) {
	s, mock := setup(t, Options{})

	mock.ExpectQuery(regexp.QuoteMeta("FROM extensions e")).
		WithArgs("2025-03-10", "08:00").
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id"}).
			AddRow(4, 21).
			AddRow(5, 22).
			AddRow(6, 23))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE extensions SET status = 'cancelled'")).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET has_active_extension = FALSE")).
		WithArgs(21).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Resolved by the owner after selection.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE extensions SET status = 'cancelled'")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE extensions SET status = 'cancelled'")).
		WithArgs(6).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	res, err := s.RunExtensionExpirySweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Result{Candidates: 3, Transitioned: 1, Failed: 1}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	s, _ := setup(t, Options{Schedule: "every hour"})

	err := s.Start(context.Background())

	assert.Error(t, err)
}

func TestStart_StopsWithContext(t *testing.T) {
	s, _ := setup(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	cancel()
	s.Stop()
}
