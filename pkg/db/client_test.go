package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/Bbt3-alx/akera-backend/pkg/errors"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(`CREATE TABLE IF NOT EXISTS items (id INTEGER PRIMARY KEY, name TEXT)`).Error)
	return NewWithConn(conn)
}

func TestWithTxCommits(t *testing.T) {
	client := newTestClient(t)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Exec(`INSERT INTO items (name) VALUES ('a')`).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, client.DB().Raw(`SELECT COUNT(*) FROM items`).Scan(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := newTestClient(t)

	sentinel := errors.New("abort")
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Exec(`INSERT INTO items (name) VALUES ('b')`).Error; err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	var count int64
	require.NoError(t, client.DB().Raw(`SELECT COUNT(*) FROM items WHERE name = 'b'`).Scan(&count).Error)
	assert.Zero(t, count)
}

func TestWithTxRetryDoesNotRetryBusinessErrors(t *testing.T) {
	client := newTestClient(t)

	calls := 0
	business := pkgerrors.New(pkgerrors.CodeInsufficientFunds, "balance too low")
	err := client.WithTxRetry(context.Background(), func(tx *gorm.DB) error {
		calls++
		return business
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientFunds, typed.Code())
}

func TestWithTxRetryRetriesSerializationFailures(t *testing.T) {
	client := newTestClient(t)

	calls := 0
	err := client.WithTxRetry(context.Background(), func(tx *gorm.DB) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithTxRetryExhaustionSurfacesConflict(t *testing.T) {
	client := newTestClient(t)

	err := client.WithTxRetry(context.Background(), func(tx *gorm.DB) error {
		return &pgconn.PgError{Code: "40P01"}
	})

	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsTransient(&pq.Error{Code: "40P01"}))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsTransient(errors.New("boom")))
	assert.False(t, IsTransient(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "partners_pkey"`), ""))
	assert.True(t, IsUniqueViolation(errors.New(`constraint "payments_operation_idx" violated`), "payments_operation_idx"))
	assert.False(t, IsUniqueViolation(nil, ""))
}
