package persistence

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type txContextKey struct{}

// dbFromContext returns the transaction bound to ctx, or the fallback
// connection when the call is not running inside WithinTransaction.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}

// GormTransactionManager implements shared.TransactionManager on top of a
// GORM connection. The transaction handle travels in the context, so every
// repository built on dbFromContext joins the same database transaction.
type GormTransactionManager struct {
	db         *gorm.DB
	logger     *zap.Logger
	maxRetries int
	baseDelay  time.Duration
}

// TransactionManagerOption configures a GormTransactionManager
type TransactionManagerOption func(*GormTransactionManager)

// WithMaxRetries sets the retry budget for transient failures
func WithMaxRetries(n int) TransactionManagerOption {
	return func(tm *GormTransactionManager) {
		tm.maxRetries = n
	}
}

// WithRetryBaseDelay sets the initial backoff delay
func WithRetryBaseDelay(d time.Duration) TransactionManagerOption {
	return func(tm *GormTransactionManager) {
		tm.baseDelay = d
	}
}

// NewGormTransactionManager creates a transaction manager with a bounded
// retry budget for transient storage failures.
func NewGormTransactionManager(db *gorm.DB, logger *zap.Logger, opts ...TransactionManagerOption) *GormTransactionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	tm := &GormTransactionManager{
		db:         db,
		logger:     logger,
		maxRetries: 3,
		baseDelay:  50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// WithinTransaction runs fn inside one database transaction. Serialization
// conflicts and lost connections are retried with exponential backoff up to
// the retry budget; validation failures are returned to the caller
// immediately and are never retried.
func (tm *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, txContextKey{}, tx))
		})

		if err == nil || !isTransient(err) || attempt >= tm.maxRetries {
			return err
		}

		delay := tm.baseDelay << attempt
		tm.logger.Warn("Retrying transaction after transient failure",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
