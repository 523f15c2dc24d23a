package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// capturedLogger returns a debug-level JSON logger writing into buf.
func capturedLogger(buf *bytes.Buffer) *zap.Logger {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(buf), zapcore.DebugLevel)
	return zap.New(core)
}

// noopSpanContext starts a span from the no-op tracer; its span context
// is deliberately invalid.
func noopSpanContext() (context.Context, trace.Span) {
	tracer := noop.NewTracerProvider().Tracer("billing")
	return tracer.Start(context.Background(), "posting.invoice_issued")
}

func TestWithContext_RoundTrip(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	ctx := WithContext(context.Background(), logger)
	assert.NotNil(t, FromContext(ctx))
}

func TestFromContext_Fallbacks(t *testing.T) {
	t.Run("empty context yields usable no-op", func(t *testing.T) {
		logger := FromContext(context.Background())
		require.NotNil(t, logger)
		assert.NotPanics(t, func() {
			logger.Info("posting committed")
			logger.With(zap.String("invoice_id", "inv-1")).Warn("quote past expiry")
		})
	})

	t.Run("wrong value type yields usable no-op", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
		logger := FromContext(ctx)
		require.NotNil(t, logger)
		assert.NotPanics(t, func() { logger.Info("cache refreshed") })
	})
}

func TestWithRequestID(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	ctx, enriched := WithRequestID(context.Background(), logger, "req-7f3a")

	assert.NotNil(t, enriched)
	assert.Equal(t, "req-7f3a", GetRequestID(ctx))

	// The context now carries the enriched logger, not the base one
	assert.NotEqual(t, logger, FromContext(ctx))
}

func TestWithRequestID_Overwrites(t *testing.T) {
	logger := zap.NewNop()

	ctx, _ := WithRequestID(context.Background(), logger, "req-first")
	ctx, _ = WithRequestID(ctx, logger, "req-second")

	assert.Equal(t, "req-second", GetRequestID(ctx))
}

func TestWithTenantID(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	ctx, enriched := WithTenantID(context.Background(), logger, "tenant-acme")

	assert.NotNil(t, enriched)
	assert.Equal(t, "tenant-acme", GetTenantID(ctx))
}

func TestContextChaining(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	ctx := context.Background()
	ctx, logger = WithRequestID(ctx, logger, "req-1")
	ctx, logger = WithTenantID(ctx, logger, "tenant-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "tenant-1", GetTenantID(ctx))
	assert.NotNil(t, logger)
}

func TestGetRequestID_Empty(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestGetTenantID_Empty(t *testing.T) {
	assert.Empty(t, GetTenantID(context.Background()))
}

func TestContextKeys_Distinct(t *testing.T) {
	assert.NotEqual(t, LoggerKey, RequestIDKey)
	assert.NotEqual(t, RequestIDKey, TenantIDKey)
	assert.NotEqual(t, LoggerKey, TenantIDKey)
}

func TestTraceHelpers_NoSpan(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))

	base := zap.NewNop()
	assert.Equal(t, base, WithTraceContext(ctx, base))
}

func TestTraceHelpers_InvalidSpanContext(t *testing.T) {
	ctx, span := noopSpanContext()
	defer span.End()

	// The no-op tracer produces an invalid span context
	require.False(t, trace.SpanFromContext(ctx).SpanContext().IsValid())

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))

	base := zap.NewNop()
	assert.Equal(t, base, WithTraceContext(ctx, base))
}

func TestL_FallsBackToNoOp(t *testing.T) {
	cl := L(context.Background())

	require.NotNil(t, cl)
	assert.NotNil(t, cl.ctx)
	assert.NotNil(t, cl.logger)
	assert.NotPanics(t, func() { cl.Info("report totals drifted") })
}

func TestL_UsesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), capturedLogger(&buf))

	L(ctx).Info("invoice issued", zap.String("invoice_number", "INV-2026-0001"))

	assert.Contains(t, buf.String(), `"invoice_number":"INV-2026-0001"`)
}

func TestWithLogger_UsesProvidedLogger(t *testing.T) {
	base := zap.NewNop()
	cl := WithLogger(context.Background(), base)

	require.NotNil(t, cl)
	assert.Equal(t, base, cl.logger)
}

func TestContextLogger_With(t *testing.T) {
	var buf bytes.Buffer
	base := capturedLogger(&buf)

	cl := WithLogger(context.Background(), base)
	child := cl.With(zap.String("source_type", "INVOICE"))

	require.NotNil(t, child)
	assert.Equal(t, cl.ctx, child.ctx)
	assert.NotEqual(t, base, child.logger)

	child.Info("posting committed")
	assert.Contains(t, buf.String(), `"source_type":"INVOICE"`)
}

func TestContextLogger_WithChaining(t *testing.T) {
	cl := WithLogger(context.Background(), zap.NewNop()).
		With(zap.String("invoice_id", "inv-1")).
		With(zap.Int("line_count", 3))

	require.NotNil(t, cl)
	assert.NotPanics(t, func() { cl.Info("invoice issued") })
}

func TestContextLogger_LogLevels(t *testing.T) {
	cl := WithLogger(context.Background(), zap.NewNop())

	assert.NotPanics(t, func() {
		cl.Debug("cache refreshed")
		cl.Info("posting committed")
		cl.Warn("quote past expiry")
		cl.Error("entries do not balance")
	})
}

func TestContextLogger_EnrichesWithContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := capturedLogger(&buf)

	ctx := context.Background()
	ctx, _ = WithRequestID(ctx, base, "req-123")
	ctx, _ = WithTenantID(ctx, base, "tenant-456")
	ctx = WithContext(ctx, base)

	L(ctx).Info("posting committed", zap.String("transaction_group_id", "tg-1"))

	output := buf.String()
	assert.Contains(t, output, `"request_id":"req-123"`)
	assert.Contains(t, output, `"tenant_id":"tenant-456"`)
	assert.Contains(t, output, `"transaction_group_id":"tg-1"`)
	assert.Contains(t, output, `"msg":"posting committed"`)
}

func TestContextLogger_EmptyContextFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer

	WithLogger(context.Background(), capturedLogger(&buf)).Info("posting committed")

	output := buf.String()
	assert.Contains(t, output, `"msg":"posting committed"`)
	assert.NotContains(t, output, `"request_id"`)
	assert.NotContains(t, output, `"tenant_id"`)
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := &ContextLogger{ctx: context.Background()}

	assert.NotPanics(t, func() { cl.Info("posting committed") })
}

func TestContextLogger_Zap(t *testing.T) {
	zapLogger := WithLogger(context.Background(), zap.NewNop()).Zap()

	require.NotNil(t, zapLogger)
	assert.NotPanics(t, func() { zapLogger.Info("posting committed") })
}

func TestContextLogger_Sugar(t *testing.T) {
	sugar := WithLogger(context.Background(), zap.NewNop()).Sugar()

	require.NotNil(t, sugar)
	assert.NotPanics(t, func() { sugar.Infof("posted invoice %s", "INV-2026-0001") })
}
