package db

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })
	return sqlxDB, mock
}

func TestProbe(t *testing.T) {
	db, mock := setupMock(t)

	mock.ExpectPing()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM classes")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	res, err := Probe(context.Background(), db)
	require.NoError(t, err)
	assert.True(t, res.Connected)
	assert.Equal(t, 42, res.ClassCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProbePingFailure(t *testing.T) {
	db, mock := setupMock(t)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	res, err := Probe(context.Background(), db)
	require.Error(t, err)
	assert.False(t, res.Connected)
	assert.NotErrorIs(t, err, ErrProbeTimeout)
}

func TestProbeCancelledContext(t *testing.T) {
	db, mock := setupMock(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock.ExpectPing()
	_, err := Probe(ctx, db)
	require.Error(t, err)
}

func TestExists(t *testing.T) {
	db, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := Exists(context.Background(), db, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}
