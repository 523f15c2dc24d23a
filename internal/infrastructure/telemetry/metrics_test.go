package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/billing/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func disabledMetricsConfig() telemetry.MetricsConfig {
	return telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    60 * time.Second,
		ServiceName:       "billing-backend",
	}
}

// disabledMeter returns a meter from a disabled provider. Instruments
// built on it are no-ops, which is all the wrapper tests need.
func disabledMeter(t *testing.T) metric.Meter {
	t.Helper()
	mp, err := telemetry.NewMeterProvider(context.Background(), disabledMetricsConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return mp.Meter("billing")
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, disabledMetricsConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, mp)

	assert.False(t, mp.IsEnabled())

	gotCfg := mp.GetConfig()
	assert.Equal(t, "billing-backend", gotCfg.ServiceName)
	assert.False(t, gotCfg.Enabled)

	// Disabled provider still hands out a usable no-op meter
	assert.NotNil(t, mp.Meter("billing.ledger"))

	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestMeterProvider_ShutdownWithCancelledContext(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), disabledMetricsConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, mp.Shutdown(cancelledCtx))
}

// Enabled-provider tests need a collector listening on the endpoint, so
// they only run outside short mode.

func TestNewMeterProvider_Enabled(t *testing.T) {
	if testing.Short() {
		t.Skip("requires a running OTEL collector")
	}

	ctx := context.Background()
	cfg := disabledMetricsConfig()
	cfg.Enabled = true
	cfg.ExportInterval = 1 * time.Second
	cfg.Insecure = true

	mp, err := telemetry.NewMeterProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, mp)

	assert.True(t, mp.IsEnabled())
	require.NotNil(t, mp.Meter("billing"))

	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewMeterProvider_ZeroExportInterval(t *testing.T) {
	if testing.Short() {
		t.Skip("requires a running OTEL collector")
	}

	ctx := context.Background()
	cfg := disabledMetricsConfig()
	cfg.Enabled = true
	cfg.ExportInterval = 0 // falls back to the 60s default
	cfg.Insecure = true

	mp, err := telemetry.NewMeterProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, mp)
	_ = mp.Shutdown(ctx)
}

func TestNewMeterProvider_InvalidEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("may attempt a connection")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	cfg := telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: "invalid-host:99999",
		ExportInterval:    1 * time.Second,
		ServiceName:       "billing-backend",
	}

	// The exporter connects lazily, so construction may succeed anyway
	mp, err := telemetry.NewMeterProvider(ctx, cfg, zaptest.NewLogger(t, zaptest.Level(zap.ErrorLevel)))
	if err != nil {
		t.Logf("connection error: %v", err)
		return
	}
	_ = mp.Shutdown(context.Background())
}

func TestCounter(t *testing.T) {
	ctx := context.Background()
	meter := disabledMeter(t)

	counter, err := telemetry.NewCounter(meter, "ledger_postings_total", "Total number of posted entry groups", "{posting}")
	require.NoError(t, err)
	require.NotNil(t, counter)

	counter.Add(ctx, 5, attribute.String("source_type", "INVOICE"))
	counter.Add(ctx, 10, attribute.String("source_type", "EXPENSE"))
	counter.Inc(ctx)
	counter.Inc(ctx, attribute.String("status", "success"))
	counter.Inc(ctx, attribute.String("status", "error"))
}

func TestHistogram_Record(t *testing.T) {
	ctx := context.Background()
	meter := disabledMeter(t)

	histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_request_duration_seconds",
		Description: "HTTP request duration",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	require.NoError(t, err)
	require.NotNil(t, histogram)

	histogram.Record(ctx, 0.005)
	histogram.Record(ctx, 0.1, attribute.String("route", "/api/v1/invoices"))
	histogram.Record(ctx, 2.5, attribute.String("route", "/api/v1/orders"))
}

func TestHistogram_RecordDuration(t *testing.T) {
	ctx := context.Background()
	meter := disabledMeter(t)

	histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query duration",
		Unit:        "s",
		Boundaries:  telemetry.DBDurationBuckets,
	})
	require.NoError(t, err)

	histogram.RecordDuration(ctx, 5*time.Millisecond)
	histogram.RecordDuration(ctx, 100*time.Millisecond, attribute.String("operation", "SELECT"))
	histogram.RecordDuration(ctx, 1*time.Second, attribute.String("operation", "INSERT"))
}

func TestHistogram_Boundaries(t *testing.T) {
	ctx := context.Background()
	meter := disabledMeter(t)

	t.Run("custom boundaries", func(t *testing.T) {
		histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
			Name:        "posting_group_size",
			Description: "Entries per posted transaction group",
			Unit:        "{entry}",
			Boundaries:  []float64{0.1, 0.5, 1.0, 5.0, 10.0},
		})
		require.NoError(t, err)
		histogram.Record(ctx, 0.25)
	})

	t.Run("SDK default boundaries", func(t *testing.T) {
		histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
			Name:        "report_window_days",
			Description: "Days covered per report query",
			Unit:        "d",
		})
		require.NoError(t, err)
		histogram.Record(ctx, 1.5)
	})
}

func TestGauge_Record(t *testing.T) {
	ctx := context.Background()
	meter := disabledMeter(t)

	gauge, err := telemetry.NewGauge(meter, "open_invoices", "Number of invoices awaiting payment", "{invoice}")
	require.NoError(t, err)
	require.NotNil(t, gauge)

	gauge.Record(ctx, 10)
	gauge.Record(ctx, 15, attribute.String("currency", "EUR"))
	gauge.Record(ctx, 5, attribute.String("currency", "USD"))
}

func TestFloatGauge_Record(t *testing.T) {
	ctx := context.Background()
	meter := disabledMeter(t)

	gauge, err := telemetry.NewFloatGauge(meter, "outstanding_receivable_total", "Sum of unpaid invoice totals", "{money}")
	require.NoError(t, err)
	require.NotNil(t, gauge)

	gauge.Record(ctx, 4500.75)
	gauge.Record(ctx, 812.50, attribute.String("currency", "EUR"))
	gauge.Record(ctx, 1200.00, attribute.String("currency", "USD"))
}

func TestCommonAttributes(t *testing.T) {
	assert.Equal(t, "tenant_id", string(telemetry.AttrTenantID))
	assert.Equal(t, "http.method", string(telemetry.AttrHTTPMethod))
	assert.Equal(t, "http.status_code", string(telemetry.AttrHTTPStatusCode))
	assert.Equal(t, "http.route", string(telemetry.AttrHTTPRoute))
	assert.Equal(t, "db.operation", string(telemetry.AttrDBOperation))
	assert.Equal(t, "db.table", string(telemetry.AttrDBTable))
	assert.Equal(t, "db.pool.state", string(telemetry.AttrDBState))
	assert.Equal(t, "event_kind", string(telemetry.AttrEventKind))
	assert.Equal(t, "source_type", string(telemetry.AttrSourceType))
}

func TestDefaultBuckets(t *testing.T) {
	assert.Equal(t, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, telemetry.HTTPDurationBuckets)
	assert.Equal(t, []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}, telemetry.DBDurationBuckets)
}
