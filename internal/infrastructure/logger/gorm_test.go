package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func observedGormLogger(t *testing.T, zapLevel zapcore.Level, gormLevel gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapLevel)
	return NewGormLogger(zap.New(core), gormLevel, opts...), recorded
}

func ledgerScan() (string, int64) {
	return "SELECT * FROM ledger_entries WHERE tenant_id = ?", 5
}

func TestNewGormLogger(t *testing.T) {
	gormLog, _ := observedGormLogger(t, zapcore.InfoLevel, gormlogger.Info)

	require.NotNil(t, gormLog)
	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
}

func TestGormLoggerOptions(t *testing.T) {
	gormLog, _ := observedGormLogger(t, zapcore.InfoLevel, gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gormLog.slowThreshold)
	assert.False(t, gormLog.ignoreRecordNotFoundError)
}

func TestGormLogger_LogMode(t *testing.T) {
	gormLog, _ := observedGormLogger(t, zapcore.InfoLevel, gormlogger.Info)

	derived, ok := gormLog.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)

	// LogMode derives, the receiver keeps its level
	assert.Equal(t, gormlogger.Warn, derived.logLevel)
	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
}

func TestGormLogger_Levels(t *testing.T) {
	t.Run("info formats arguments", func(t *testing.T) {
		gormLog, recorded := observedGormLogger(t, zapcore.InfoLevel, gormlogger.Info)
		gormLog.Info(context.Background(), "migrated table %s", "invoices")

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "migrated table invoices")
	})

	t.Run("warn logs at warn", func(t *testing.T) {
		gormLog, recorded := observedGormLogger(t, zapcore.WarnLevel, gormlogger.Warn)
		gormLog.Warn(context.Background(), "pool nearly exhausted, %d in use", 24)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "pool nearly exhausted, 24 in use")
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	})

	t.Run("error logs at error", func(t *testing.T) {
		gormLog, recorded := observedGormLogger(t, zapcore.ErrorLevel, gormlogger.Error)
		gormLog.Error(context.Background(), "connection lost")

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
	})

	t.Run("silent suppresses everything", func(t *testing.T) {
		gormLog, recorded := observedGormLogger(t, zapcore.DebugLevel, gormlogger.Silent)
		gormLog.Info(context.Background(), "never seen")

		assert.Empty(t, recorded.All())
	})
}

func TestGormLogger_Trace(t *testing.T) {
	t.Run("failed query logs SQL Error", func(t *testing.T) {
		gormLog, recorded := observedGormLogger(t, zapcore.ErrorLevel, gormlogger.Error)

		gormLog.Trace(context.Background(), time.Now(), ledgerScan, errors.New("connection reset"))

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SQL Error")
	})

	t.Run("missing rows stay quiet when ignored", func(t *testing.T) {
		gormLog, recorded := observedGormLogger(t, zapcore.ErrorLevel, gormlogger.Error,
			WithIgnoreRecordNotFoundError(true))

		gormLog.Trace(context.Background(), time.Now(), ledgerScan, gormlogger.ErrRecordNotFound)

		assert.Empty(t, recorded.All())
	})

	t.Run("slow query warns", func(t *testing.T) {
		gormLog, recorded := observedGormLogger(t, zapcore.WarnLevel, gormlogger.Warn,
			WithSlowThreshold(1*time.Nanosecond))

		began := time.Now().Add(-1 * time.Second)
		gormLog.Trace(context.Background(), began, ledgerScan, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SLOW SQL")
	})

	t.Run("healthy query logs SQL Query", func(t *testing.T) {
		gormLog, recorded := observedGormLogger(t, zapcore.DebugLevel, gormlogger.Info)

		gormLog.Trace(context.Background(), time.Now(), ledgerScan, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SQL Query")
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		gormLog, recorded := observedGormLogger(t, zapcore.DebugLevel, gormlogger.Silent)

		gormLog.Trace(context.Background(), time.Now(), ledgerScan, nil)

		assert.Empty(t, recorded.All())
	})
}

// Query logs pick up the correlation IDs carried on the context.
func TestGormLogger_Trace_Correlation(t *testing.T) {
	testCases := []struct {
		name     string
		ctxKey   any
		field    string
		value    string
	}{
		{"request ID", RequestIDKey, "request_id", "req-7f3a"},
		{"tenant ID", TenantIDKey, "tenant_id", "tenant-acme"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormLog, recorded := observedGormLogger(t, zapcore.DebugLevel, gormlogger.Info)

			ctx := context.WithValue(context.Background(), tc.ctxKey, tc.value)
			gormLog.Trace(ctx, time.Now(), ledgerScan, nil)

			logs := recorded.All()
			require.Len(t, logs, 1)

			found := false
			for _, field := range logs[0].Context {
				if field.Key == tc.field {
					found = true
					assert.Equal(t, tc.value, field.String)
				}
			}
			assert.True(t, found, "%s should be in log fields", tc.field)
		})
	}
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
