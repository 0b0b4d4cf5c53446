package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentscan/talentscan-backend/pkg/logger"
)

const lockQuery = "SELECT pg_advisory_xact_lock(hashtext($1))"

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return Wrap(sqlx.NewDb(raw, "postgres"), logger.Nop()), mock
}

func TestUniqueSorted(t *testing.T) {
	got := uniqueSorted([]string{"phone:9876543210", "", "email:a@b.com", "phone:9876543210"})
	assert.Equal(t, []string{"email:a@b.com", "phone:9876543210"}, got)
}

func TestWithAdvisoryLocks_AcquiresInSortedOrder(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(lockQuery)).WithArgs("email:a@b.com").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(lockQuery)).WithArgs("phone:9876543210").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	called := false
	err := db.WithAdvisoryLocks(context.Background(), []string{"phone:9876543210", "email:a@b.com"}, func(tx *sqlx.Tx) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithAdvisoryLocks_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(lockQuery)).WithArgs("email:a@b.com").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := db.WithAdvisoryLocks(context.Background(), []string{"email:a@b.com"}, func(tx *sqlx.Tx) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithAdvisoryLocks_NoKeysStillRunsInTransaction(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := db.WithAdvisoryLocks(context.Background(), nil, func(tx *sqlx.Tx) error { return nil })

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
