package persistence

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// sqlState extracts the PostgreSQL SQLSTATE code from err. The runtime
// connection runs on pgx (gorm's postgres driver) and surfaces
// *pgconn.PgError; the migration CLI and the sqlmock tests go through
// lib/pq and surface *pq.Error. Both are handled.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// isUniqueViolation reports whether err is a unique constraint violation
// (SQLSTATE 23505), either as a raw driver error or already translated to
// gorm's sentinel.
func isUniqueViolation(err error) bool {
	if sqlState(err) == "23505" {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// isTransient reports whether an error is worth retrying: serialization
// failures, deadlocks, and lost connections (SQLSTATE class 08).
// Constraint violations and domain errors are deterministic and excluded.
func isTransient(err error) bool {
	switch code := sqlState(err); {
	case code == "40001": // serialization_failure
		return true
	case code == "40P01": // deadlock_detected
		return true
	case strings.HasPrefix(code, "08"): // connection exceptions
		return true
	}
	return errors.Is(err, gorm.ErrInvalidTransaction)
}
