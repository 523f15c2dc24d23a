// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the billing system.
// It tracks document lifecycle activity, ledger posting volume, and
// outstanding receivables.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	invoiceIssuedTotal  *Counter
	invoicePaidTotal    *Counter
	invoiceAmountTotal  *Counter
	quoteAcceptedTotal  *Counter
	ledgerPostingsTotal *Counter

	// Gauge metrics (point-in-time values)
	receivablesOutstanding *FloatGauge
	openInvoiceCount       *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	receivablesProvider ReceivablesMetricsProvider
}

// ReceivablesMetricsProvider provides receivables data for periodic metrics
// collection. This interface allows the telemetry layer to query billing
// state without depending on the billing domain directly.
type ReceivablesMetricsProvider interface {
	// GetOutstandingReceivables returns the total amount of issued but unpaid
	// invoices for a tenant.
	GetOutstandingReceivables(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)

	// GetOpenInvoiceCount returns the number of issued but unpaid invoices
	// for a tenant.
	GetOpenInvoiceCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter               metric.Meter
	Logger              *zap.Logger
	CollectInterval     time.Duration // Default: 5 minutes
	ReceivablesProvider ReceivablesMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:               cfg.Meter,
		logger:              logger,
		stopChan:            make(chan struct{}),
		receivablesProvider: cfg.ReceivablesProvider,
	}

	var err error
	counter := func(name, desc, unit string) *Counter {
		if err != nil {
			return nil
		}
		var c *Counter
		c, err = NewCounter(cfg.Meter, name, desc, unit)
		return c
	}

	bm.invoiceIssuedTotal = counter("billing_invoice_issued_total", "Total number of invoices issued", "{invoices}")
	bm.invoicePaidTotal = counter("billing_invoice_paid_total", "Total number of invoices marked paid", "{invoices}")
	bm.invoiceAmountTotal = counter("billing_invoice_amount_total", "Total issued invoice amount in cents", "{cents}")
	bm.quoteAcceptedTotal = counter("billing_quote_accepted_total", "Total number of quotes accepted", "{quotes}")
	bm.ledgerPostingsTotal = counter("billing_ledger_postings_total", "Total number of transaction groups appended to the ledger", "{postings}")
	if err != nil {
		return nil, err
	}

	bm.receivablesOutstanding, err = NewFloatGauge(
		cfg.Meter,
		"billing_receivables_outstanding",
		"Current total of issued but unpaid invoice amounts",
		"{currency}",
	)
	if err != nil {
		return nil, err
	}

	bm.openInvoiceCount, err = NewGauge(
		cfg.Meter,
		"billing_open_invoice_count",
		"Number of issued but unpaid invoices",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordInvoiceIssued records an invoice issuance with its total amount.
// This should be called from the application layer after the issue transition
// commits. Amount is converted to the smallest currency unit (cents).
func (bm *BusinessMetrics) RecordInvoiceIssued(ctx context.Context, tenantID uuid.UUID, total decimal.Decimal) {
	bm.invoiceIssuedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
	)

	amountCents := total.Mul(decimal.NewFromInt(100)).IntPart()
	bm.invoiceAmountTotal.Add(ctx, amountCents,
		AttrTenantID.String(tenantID.String()),
	)
}

// RecordInvoicePaid records a payment transition.
func (bm *BusinessMetrics) RecordInvoicePaid(ctx context.Context, tenantID uuid.UUID) {
	bm.invoicePaidTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
	)
}

// RecordQuoteAccepted records a quote acceptance.
func (bm *BusinessMetrics) RecordQuoteAccepted(ctx context.Context, tenantID uuid.UUID) {
	bm.quoteAcceptedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
	)
}

// RecordLedgerPosting records an appended transaction group, labeled by the
// originating source type and event kind.
func (bm *BusinessMetrics) RecordLedgerPosting(ctx context.Context, tenantID uuid.UUID, sourceType, eventKind string) {
	bm.ledgerPostingsTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrSourceType.String(sourceType),
		AttrEventKind.String(eventKind),
	)
}

// RecordOutstandingReceivables records the current outstanding receivables
// total for a tenant. This is a gauge metric updated periodically.
func (bm *BusinessMetrics) RecordOutstandingReceivables(ctx context.Context, tenantID uuid.UUID, amount decimal.Decimal) {
	f, _ := amount.Float64()
	bm.receivablesOutstanding.Record(ctx, f,
		AttrTenantID.String(tenantID.String()),
	)
}

// RecordOpenInvoiceCount records the number of issued but unpaid invoices.
func (bm *BusinessMetrics) RecordOpenInvoiceCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	bm.openInvoiceCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects receivables metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectReceivablesMetrics(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectReceivablesMetrics(ctx, tenantProvider)
		}
	}
}

// collectReceivablesMetrics collects receivables gauge metrics for all tenants.
func (bm *BusinessMetrics) collectReceivablesMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if bm.receivablesProvider == nil {
		bm.logger.Debug("No receivables provider configured, skipping receivables metrics collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		bm.collectTenantReceivablesMetrics(ctx, tenantID)
	}
}

// collectTenantReceivablesMetrics collects receivables metrics for a single tenant.
func (bm *BusinessMetrics) collectTenantReceivablesMetrics(ctx context.Context, tenantID uuid.UUID) {
	outstanding, err := bm.receivablesProvider.GetOutstandingReceivables(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get outstanding receivables for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordOutstandingReceivables(ctx, tenantID, outstanding)
	}

	openCount, err := bm.receivablesProvider.GetOpenInvoiceCount(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get open invoice count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordOpenInvoiceCount(ctx, tenantID, openCount)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
