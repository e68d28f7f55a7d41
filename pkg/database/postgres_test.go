package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvisoryXactLockOrdersAndDeduplicates(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	sqlxdb := sqlx.NewDb(db, "sqlmock")

	lock := regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")
	mock.ExpectExec(lock).WithArgs("cell:c1:1:1:09:00").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(lock).WithArgs("faculty:f1:1:09:00").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(lock).WithArgs("room:r1:1:09:00").WillReturnResult(sqlmock.NewResult(0, 0))

	err = AdvisoryXactLock(context.Background(), sqlxdb, "room:r1:1:09:00", "cell:c1:1:1:09:00", "", "faculty:f1:1:09:00", "room:r1:1:09:00")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisoryXactLockPropagatesFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	sqlxdb := sqlx.NewDb(db, "sqlmock")

	mock.ExpectExec("pg_advisory_xact_lock").WillReturnError(errors.New("connection reset"))

	err = AdvisoryXactLock(context.Background(), sqlxdb, "cell:c1:1:1:09:00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cell:c1:1:1:09:00")
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert timetable slot: %w", &pq.Error{Code: "23505"})
	assert.True(t, IsUniqueViolation(wrapped))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "40001"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}
