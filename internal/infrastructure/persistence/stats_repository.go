package persistence

import (
	"context"
	"fmt"

	"github.com/billing/backend/internal/domain/report"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStatsRepository implements report.StatsRepository over the invoice
// tables. Revenue here is the issued invoice total, not the ledger total,
// so it can diverge from the accounting reports.
type GormStatsRepository struct {
	db *gorm.DB
}

// NewGormStatsRepository creates a new GormStatsRepository
func NewGormStatsRepository(db *gorm.DB) *GormStatsRepository {
	return &GormStatsRepository{db: db}
}

// GetMonthlyStats returns per-month invoice rollups for the window. Only
// invoices that reached ISSUED (including those since paid) count, keyed
// by their issue date.
func (r *GormStatsRepository) GetMonthlyStats(ctx context.Context, filter report.StatsFilter) ([]report.MonthlyStats, error) {
	type invoiceData struct {
		Year          int
		Month         int
		Revenue       decimal.Decimal
		InvoiceCount  int64
		CustomerCount int64
	}

	var invoiceRows []invoiceData
	err := r.db.WithContext(ctx).Table("invoices").
		Select(`
			EXTRACT(YEAR FROM issued_at)::int as year,
			EXTRACT(MONTH FROM issued_at)::int as month,
			COALESCE(SUM(total_amount), 0) as revenue,
			COUNT(id) as invoice_count,
			COUNT(DISTINCT customer_id) as customer_count
		`).
		Where("tenant_id = ?", filter.TenantID).
		Where("status IN ?", []string{"ISSUED", "PAID"}).
		Where("issued_at >= ? AND issued_at < ?", filter.StartDate, filter.EndDate).
		Group("EXTRACT(YEAR FROM issued_at), EXTRACT(MONTH FROM issued_at)").
		Order("year ASC, month ASC").
		Scan(&invoiceRows).Error
	if err != nil {
		return nil, err
	}

	type quantityData struct {
		Year     int
		Month    int
		Quantity decimal.Decimal
	}

	var quantityRows []quantityData
	err = r.db.WithContext(ctx).Table("invoice_lines il").
		Select(`
			EXTRACT(YEAR FROM i.issued_at)::int as year,
			EXTRACT(MONTH FROM i.issued_at)::int as month,
			COALESCE(SUM(il.quantity), 0) as quantity
		`).
		Joins("JOIN invoices i ON i.id = il.invoice_id").
		Where("i.tenant_id = ?", filter.TenantID).
		Where("i.status IN ?", []string{"ISSUED", "PAID"}).
		Where("i.issued_at >= ? AND i.issued_at < ?", filter.StartDate, filter.EndDate).
		Group("EXTRACT(YEAR FROM i.issued_at), EXTRACT(MONTH FROM i.issued_at)").
		Scan(&quantityRows).Error
	if err != nil {
		return nil, err
	}

	quantityMap := make(map[string]decimal.Decimal)
	for _, q := range quantityRows {
		quantityMap[monthKey(q.Year, q.Month)] = q.Quantity
	}

	stats := make([]report.MonthlyStats, len(invoiceRows))
	for i, row := range invoiceRows {
		stats[i] = report.MonthlyStats{
			Year:          row.Year,
			Month:         row.Month,
			Revenue:       row.Revenue,
			InvoiceCount:  row.InvoiceCount,
			CustomerCount: row.CustomerCount,
			ProductsSold:  quantityMap[monthKey(row.Year, row.Month)],
		}
	}
	return stats, nil
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

var _ report.StatsRepository = (*GormStatsRepository)(nil)
