package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinancialSummary is a read model of the ledger totals per account type.
// Assets and expenses are debit-normal (Σdebit − Σcredit), income and
// liabilities are credit-normal (Σcredit − Σdebit).
type FinancialSummary struct {
	TenantID         uuid.UUID       `json:"tenant_id"`
	PeriodStart      *time.Time      `json:"period_start,omitempty"`
	PeriodEnd        *time.Time      `json:"period_end,omitempty"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	NetProfit        decimal.Decimal `json:"net_profit"` // TotalIncome - TotalExpenses
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
}

// CategoryAmount is one category's signed balance within a report
type CategoryAmount struct {
	CategoryID   uuid.UUID       `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Amount       decimal.Decimal `json:"amount"`
}

// ProfitLoss breaks income and expenses down by category for a date range
type ProfitLoss struct {
	TenantID           uuid.UUID        `json:"tenant_id"`
	PeriodStart        *time.Time       `json:"period_start,omitempty"`
	PeriodEnd          *time.Time       `json:"period_end,omitempty"`
	IncomeByCategory   []CategoryAmount `json:"income_by_category"`
	ExpensesByCategory []CategoryAmount `json:"expenses_by_category"`
	TotalIncome        decimal.Decimal  `json:"total_income"`
	TotalExpenses      decimal.Decimal  `json:"total_expenses"`
	NetProfit          decimal.Decimal  `json:"net_profit"`
}

// BalanceSheet breaks assets and liabilities down by category for a date range
type BalanceSheet struct {
	TenantID              uuid.UUID        `json:"tenant_id"`
	PeriodStart           *time.Time       `json:"period_start,omitempty"`
	PeriodEnd             *time.Time       `json:"period_end,omitempty"`
	AssetsByCategory      []CategoryAmount `json:"assets_by_category"`
	LiabilitiesByCategory []CategoryAmount `json:"liabilities_by_category"`
	TotalAssets           decimal.Decimal  `json:"total_assets"`
	TotalLiabilities      decimal.Decimal  `json:"total_liabilities"`
	NetPosition           decimal.Decimal  `json:"net_position"` // TotalAssets - TotalLiabilities
}

// PeriodSummary is one month's bucket of an income statement
type PeriodSummary struct {
	Year               int              `json:"year"`
	Month              int              `json:"month"`
	IncomeByCategory   []CategoryAmount `json:"income_by_category"`
	ExpensesByCategory []CategoryAmount `json:"expenses_by_category"`
	TotalIncome        decimal.Decimal  `json:"total_income"`
	TotalExpenses      decimal.Decimal  `json:"total_expenses"`
	NetProfit          decimal.Decimal  `json:"net_profit"`
}

// IncomeStatement is the per-month income statement over a date range.
// Periods are ordered chronologically; the totals cover the whole range.
type IncomeStatement struct {
	TenantID      uuid.UUID       `json:"tenant_id"`
	PeriodStart   *time.Time      `json:"period_start,omitempty"`
	PeriodEnd     *time.Time      `json:"period_end,omitempty"`
	Periods       []PeriodSummary `json:"periods"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetProfit     decimal.Decimal `json:"net_profit"`
}

// ReportFilter defines filtering options for ledger-derived reports. A nil
// date fixes no bound on that side; an empty range yields zeroed totals.
type ReportFilter struct {
	TenantID  uuid.UUID  `json:"-"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// FinancialReportRepository defines the interface for ledger report queries.
// All queries are read-only and see a snapshot as of query time.
type FinancialReportRepository interface {
	// GetFinancialSummary returns the per-type ledger totals for the period
	GetFinancialSummary(ctx context.Context, filter ReportFilter) (*FinancialSummary, error)

	// GetProfitLoss returns income and expenses grouped by category
	GetProfitLoss(ctx context.Context, filter ReportFilter) (*ProfitLoss, error)

	// GetBalanceSheet returns assets and liabilities grouped by category
	GetBalanceSheet(ctx context.Context, filter ReportFilter) (*BalanceSheet, error)

	// GetIncomeStatement returns the grouping repeated per month bucket
	GetIncomeStatement(ctx context.Context, filter ReportFilter) (*IncomeStatement, error)
}
