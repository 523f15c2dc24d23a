package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockTransactionManager creates a GormTransactionManager with a mocked SQL connection
func newMockTransactionManager(t *testing.T, opts ...TransactionManagerOption) (*GormTransactionManager, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormTransactionManager(gormDB, nil, opts...), mock, mockDB
}

func TestGormTransactionManager_WithinTransaction(t *testing.T) {
	t.Run("commits when fn succeeds", func(t *testing.T) {
		tm, mock, mockDB := newMockTransactionManager(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		called := 0
		err := tm.WithinTransaction(context.Background(), func(ctx context.Context) error {
			called++
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and propagates fn error", func(t *testing.T) {
		tm, mock, mockDB := newMockTransactionManager(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := tm.WithinTransaction(context.Background(), func(ctx context.Context) error {
			return assert.AnError
		})

		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("binds transaction to the context", func(t *testing.T) {
		tm, mock, mockDB := newMockTransactionManager(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := tm.WithinTransaction(context.Background(), func(ctx context.Context) error {
			tx := dbFromContext(ctx, nil)
			assert.NotNil(t, tx, "repositories must see the transaction via the context")
			return nil
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retries serialization failures", func(t *testing.T) {
		tm, mock, mockDB := newMockTransactionManager(t, WithRetryBaseDelay(time.Millisecond))
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectCommit()

		attempts := 0
		err := tm.WithinTransaction(context.Background(), func(ctx context.Context) error {
			attempts++
			if attempts == 1 {
				return &pq.Error{Code: "40001"}
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 2, attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retries serialization failures from the pgx driver", func(t *testing.T) {
		tm, mock, mockDB := newMockTransactionManager(t, WithRetryBaseDelay(time.Millisecond))
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectCommit()

		attempts := 0
		err := tm.WithinTransaction(context.Background(), func(ctx context.Context) error {
			attempts++
			if attempts == 1 {
				return &pgconn.PgError{Code: "40001"}
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 2, attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not retry deterministic failures", func(t *testing.T) {
		tm, mock, mockDB := newMockTransactionManager(t, WithRetryBaseDelay(time.Millisecond))
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		attempts := 0
		err := tm.WithinTransaction(context.Background(), func(ctx context.Context) error {
			attempts++
			return &pq.Error{Code: "23505"}
		})

		assert.Error(t, err)
		assert.Equal(t, 1, attempts, "constraint violations are not transient")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		tm, mock, mockDB := newMockTransactionManager(t,
			WithMaxRetries(2), WithRetryBaseDelay(time.Millisecond))
		defer mockDB.Close()

		for i := 0; i < 3; i++ {
			mock.ExpectBegin()
			mock.ExpectRollback()
		}

		attempts := 0
		err := tm.WithinTransaction(context.Background(), func(ctx context.Context) error {
			attempts++
			return &pq.Error{Code: "40P01"}
		})

		assert.Error(t, err)
		assert.Equal(t, 3, attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stops retrying when the context is cancelled", func(t *testing.T) {
		tm, mock, mockDB := newMockTransactionManager(t,
			WithRetryBaseDelay(time.Minute))
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		ctx, cancel := context.WithCancel(context.Background())

		err := tm.WithinTransaction(ctx, func(ctx context.Context) error {
			cancel()
			return &pq.Error{Code: "40001"}
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDbFromContext(t *testing.T) {
	t.Run("falls back to the connection outside a transaction", func(t *testing.T) {
		mockDB, _, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		gormDB, err := gorm.Open(postgres.New(postgres.Config{
			Conn:       mockDB,
			DriverName: "postgres",
		}), &gorm.Config{SkipDefaultTransaction: true})
		require.NoError(t, err)

		db := dbFromContext(context.Background(), gormDB)

		assert.Same(t, gormDB, db)
	})
}
