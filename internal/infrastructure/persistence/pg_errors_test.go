package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"pgconn unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped pgconn unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pq unique violation", &pq.Error{Code: "23505"}, true},
		{"gorm translated sentinel", gorm.ErrDuplicatedKey, true},
		{"pgconn foreign key violation", &pgconn.PgError{Code: "23503"}, false},
		{"pgconn serialization failure", &pgconn.PgError{Code: "40001"}, false},
		{"plain error", errors.New("duplicate key value"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isUniqueViolation(tt.err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"pgconn serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"pgconn deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"pgconn connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"wrapped pgconn deadlock", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"pq serialization failure", &pq.Error{Code: "40001"}, true},
		{"pq connection exception", &pq.Error{Code: "08000"}, true},
		{"gorm invalid transaction", gorm.ErrInvalidTransaction, true},
		{"pgconn unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"pq check violation", &pq.Error{Code: "23514"}, false},
		{"plain error", errors.New("connection reset"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isTransient(tt.err))
		})
	}
}
