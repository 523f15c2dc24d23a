package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/billing/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockLedgerReportRepository creates a GormLedgerReportRepository with a mocked SQL connection
func newMockLedgerReportRepository(t *testing.T) (*GormLedgerReportRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormLedgerReportRepository(gormDB), mock, mockDB
}

func TestGormLedgerReportRepository_GetFinancialSummary(t *testing.T) {
	t.Run("aggregates per-type balances and derives net profit", func(t *testing.T) {
		repo, mock, mockDB := newMockLedgerReportRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"type", "amount"}).
			AddRow("INCOME", decimal.NewFromInt(1000)).
			AddRow("EXPENSE", decimal.NewFromInt(300)).
			AddRow("ASSET", decimal.NewFromInt(1190)).
			AddRow("LIABILITY", decimal.NewFromInt(190))

		mock.ExpectQuery(`SELECT categories.type as type, SUM\(CASE`).
			WithArgs(tenantID).
			WillReturnRows(rows)

		summary, err := repo.GetFinancialSummary(context.Background(), report.ReportFilter{TenantID: tenantID})

		assert.NoError(t, err)
		require.NotNil(t, summary)
		assert.True(t, summary.TotalIncome.Equal(decimal.NewFromInt(1000)))
		assert.True(t, summary.TotalExpenses.Equal(decimal.NewFromInt(300)))
		assert.True(t, summary.NetProfit.Equal(decimal.NewFromInt(700)))
		assert.True(t, summary.TotalAssets.Equal(decimal.NewFromInt(1190)))
		assert.True(t, summary.TotalLiabilities.Equal(decimal.NewFromInt(190)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bounds the window with a half-open date range", func(t *testing.T) {
		repo, mock, mockDB := newMockLedgerReportRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT categories.type as type, .* WHERE ledger_entries.tenant_id = \$1 AND ledger_entries.created_at >= \$2 AND ledger_entries.created_at < \$3`).
			WithArgs(tenantID, from, to).
			WillReturnRows(sqlmock.NewRows([]string{"type", "amount"}))

		summary, err := repo.GetFinancialSummary(context.Background(), report.ReportFilter{
			TenantID:  tenantID,
			StartDate: &from,
			EndDate:   &to,
		})

		assert.NoError(t, err)
		require.NotNil(t, summary)
		assert.True(t, summary.NetProfit.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLedgerReportRepository_GetProfitLoss(t *testing.T) {
	t.Run("splits categories into income and expense sections", func(t *testing.T) {
		repo, mock, mockDB := newMockLedgerReportRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		salesID := uuid.New()
		suppliesID := uuid.New()

		rows := sqlmock.NewRows([]string{"category_id", "category_name", "type", "amount"}).
			AddRow(suppliesID, "Office Supplies", "EXPENSE", decimal.NewFromInt(120)).
			AddRow(salesID, "Sales Revenue", "INCOME", decimal.NewFromInt(800))

		mock.ExpectQuery(`SELECT categories.id as category_id, categories.name as category_name`).
			WithArgs(tenantID, "INCOME", "EXPENSE").
			WillReturnRows(rows)

		pl, err := repo.GetProfitLoss(context.Background(), report.ReportFilter{TenantID: tenantID})

		assert.NoError(t, err)
		require.NotNil(t, pl)
		require.Len(t, pl.IncomeByCategory, 1)
		require.Len(t, pl.ExpensesByCategory, 1)
		assert.Equal(t, salesID, pl.IncomeByCategory[0].CategoryID)
		assert.True(t, pl.NetProfit.Equal(decimal.NewFromInt(680)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLedgerReportRepository_GetBalanceSheet(t *testing.T) {
	t.Run("derives net position from assets and liabilities", func(t *testing.T) {
		repo, mock, mockDB := newMockLedgerReportRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"category_id", "category_name", "type", "amount"}).
			AddRow(uuid.New(), "Accounts Receivable", "ASSET", decimal.NewFromInt(500)).
			AddRow(uuid.New(), "Cash", "ASSET", decimal.NewFromInt(700)).
			AddRow(uuid.New(), "Tax Payable", "LIABILITY", decimal.NewFromInt(200))

		mock.ExpectQuery(`SELECT categories.id as category_id, categories.name as category_name`).
			WithArgs(tenantID, "ASSET", "LIABILITY").
			WillReturnRows(rows)

		bs, err := repo.GetBalanceSheet(context.Background(), report.ReportFilter{TenantID: tenantID})

		assert.NoError(t, err)
		require.NotNil(t, bs)
		assert.Len(t, bs.AssetsByCategory, 2)
		assert.Len(t, bs.LiabilitiesByCategory, 1)
		assert.True(t, bs.TotalAssets.Equal(decimal.NewFromInt(1200)))
		assert.True(t, bs.NetPosition.Equal(decimal.NewFromInt(1000)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLedgerReportRepository_GetIncomeStatement(t *testing.T) {
	t.Run("buckets categories by month", func(t *testing.T) {
		repo, mock, mockDB := newMockLedgerReportRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		salesID := uuid.New()

		rows := sqlmock.NewRows([]string{"year", "month", "category_id", "category_name", "type", "amount"}).
			AddRow(2026, 1, salesID, "Sales Revenue", "INCOME", decimal.NewFromInt(400)).
			AddRow(2026, 2, salesID, "Sales Revenue", "INCOME", decimal.NewFromInt(600)).
			AddRow(2026, 2, uuid.New(), "Office Supplies", "EXPENSE", decimal.NewFromInt(150))

		mock.ExpectQuery(`SELECT\s+EXTRACT\(YEAR FROM ledger_entries.created_at\)::int as year`).
			WithArgs(tenantID, "INCOME", "EXPENSE").
			WillReturnRows(rows)

		statement, err := repo.GetIncomeStatement(context.Background(), report.ReportFilter{TenantID: tenantID})

		assert.NoError(t, err)
		require.NotNil(t, statement)
		require.Len(t, statement.Periods, 2)
		assert.Equal(t, 1, statement.Periods[0].Month)
		assert.True(t, statement.Periods[0].NetProfit.Equal(decimal.NewFromInt(400)))
		assert.True(t, statement.Periods[1].NetProfit.Equal(decimal.NewFromInt(450)))
		assert.True(t, statement.TotalIncome.Equal(decimal.NewFromInt(1000)))
		assert.True(t, statement.NetProfit.Equal(decimal.NewFromInt(850)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStatsRepository_GetMonthlyStats(t *testing.T) {
	t.Run("merges invoice rollups with line quantities", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		gormDB, err := gorm.Open(postgres.New(postgres.Config{
			Conn:       mockDB,
			DriverName: "postgres",
		}), &gorm.Config{SkipDefaultTransaction: true})
		require.NoError(t, err)

		repo := NewGormStatsRepository(gormDB)

		tenantID := uuid.New()
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

		invoiceRows := sqlmock.NewRows([]string{"year", "month", "revenue", "invoice_count", "customer_count"}).
			AddRow(2026, 1, decimal.NewFromInt(1190), 2, 2).
			AddRow(2026, 2, decimal.NewFromInt(500), 1, 1)

		mock.ExpectQuery(`SELECT\s+EXTRACT\(YEAR FROM issued_at\)::int as year`).
			WithArgs(tenantID, "ISSUED", "PAID", start, end).
			WillReturnRows(invoiceRows)

		quantityRows := sqlmock.NewRows([]string{"year", "month", "quantity"}).
			AddRow(2026, 1, decimal.NewFromInt(5))

		mock.ExpectQuery(`SELECT\s+EXTRACT\(YEAR FROM i.issued_at\)::int as year`).
			WithArgs(tenantID, "ISSUED", "PAID", start, end).
			WillReturnRows(quantityRows)

		stats, err := repo.GetMonthlyStats(context.Background(), report.StatsFilter{
			TenantID:  tenantID,
			StartDate: start,
			EndDate:   end,
		})

		assert.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, int64(2), stats[0].InvoiceCount)
		assert.True(t, stats[0].ProductsSold.Equal(decimal.NewFromInt(5)))
		assert.True(t, stats[1].ProductsSold.IsZero(), "months without line data fall back to zero")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
