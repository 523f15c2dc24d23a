package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthlyStats is a document-level rollup for dashboard charts, computed
// from invoices and orders rather than from the ledger. Its revenue figure
// can diverge from the accounting totals and must not be treated as the
// authoritative number.
type MonthlyStats struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	Revenue       decimal.Decimal `json:"revenue"`        // sum of issued invoice totals
	InvoiceCount  int64           `json:"invoice_count"`  // invoices issued in the month
	CustomerCount int64           `json:"customer_count"` // distinct customers invoiced
	ProductsSold  decimal.Decimal `json:"products_sold"`  // sum of invoice line quantities
}

// StatsFilter defines the window for monthly statistics
type StatsFilter struct {
	TenantID  uuid.UUID `json:"-"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// StatsRepository defines the interface for document-derived statistics
type StatsRepository interface {
	// GetMonthlyStats returns one row per month in the window, ordered
	// chronologically. Months without activity are omitted.
	GetMonthlyStats(ctx context.Context, filter StatsFilter) ([]MonthlyStats, error)
}
