package persistence

import (
	"context"

	"github.com/billing/backend/internal/domain/accounting"
	"github.com/billing/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerReportRepository implements report.FinancialReportRepository by
// aggregating ledger entries. Sign conventions follow the account type:
// assets and expenses are debit-normal, income and liabilities are
// credit-normal. Each report runs in a single SQL statement so the result
// is a consistent snapshot.
type GormLedgerReportRepository struct {
	db *gorm.DB
}

// NewGormLedgerReportRepository creates a new GormLedgerReportRepository
func NewGormLedgerReportRepository(db *gorm.DB) *GormLedgerReportRepository {
	return &GormLedgerReportRepository{db: db}
}

// typeTotal is one account type's aggregated balance
type typeTotal struct {
	Type   accounting.AccountType `gorm:"column:type"`
	Amount decimal.Decimal        `gorm:"column:amount"`
}

// categoryTotal is one category's aggregated balance
type categoryTotal struct {
	CategoryID   uuid.UUID              `gorm:"column:category_id"`
	CategoryName string                 `gorm:"column:category_name"`
	Type         accounting.AccountType `gorm:"column:type"`
	Amount       decimal.Decimal        `gorm:"column:amount"`
}

// monthlyCategoryTotal adds the month bucket to a category balance
type monthlyCategoryTotal struct {
	Year         int                    `gorm:"column:year"`
	Month        int                    `gorm:"column:month"`
	CategoryID   uuid.UUID              `gorm:"column:category_id"`
	CategoryName string                 `gorm:"column:category_name"`
	Type         accounting.AccountType `gorm:"column:type"`
	Amount       decimal.Decimal        `gorm:"column:amount"`
}

// normalBalanceSelect computes the signed balance per the account type's
// normal side in SQL.
const normalBalanceSelect = `SUM(CASE
	WHEN categories.type IN ('ASSET', 'EXPENSE') THEN ledger_entries.debit - ledger_entries.credit
	ELSE ledger_entries.credit - ledger_entries.debit
END)`

// GetFinancialSummary returns the per-type ledger totals for the period
func (r *GormLedgerReportRepository) GetFinancialSummary(ctx context.Context, filter report.ReportFilter) (*report.FinancialSummary, error) {
	var totals []typeTotal
	query := r.entryQuery(ctx, filter).
		Select("categories.type as type, " + normalBalanceSelect + " as amount").
		Group("categories.type")

	if err := query.Scan(&totals).Error; err != nil {
		return nil, err
	}

	summary := &report.FinancialSummary{
		TenantID:    filter.TenantID,
		PeriodStart: filter.StartDate,
		PeriodEnd:   filter.EndDate,
	}
	for _, t := range totals {
		switch t.Type {
		case accounting.AccountTypeIncome:
			summary.TotalIncome = t.Amount
		case accounting.AccountTypeExpense:
			summary.TotalExpenses = t.Amount
		case accounting.AccountTypeAsset:
			summary.TotalAssets = t.Amount
		case accounting.AccountTypeLiability:
			summary.TotalLiabilities = t.Amount
		}
	}
	summary.NetProfit = summary.TotalIncome.Sub(summary.TotalExpenses)

	return summary, nil
}

// GetProfitLoss returns income and expenses grouped by category
func (r *GormLedgerReportRepository) GetProfitLoss(ctx context.Context, filter report.ReportFilter) (*report.ProfitLoss, error) {
	totals, err := r.categoryTotals(ctx, filter,
		accounting.AccountTypeIncome, accounting.AccountTypeExpense)
	if err != nil {
		return nil, err
	}

	pl := &report.ProfitLoss{
		TenantID:           filter.TenantID,
		PeriodStart:        filter.StartDate,
		PeriodEnd:          filter.EndDate,
		IncomeByCategory:   []report.CategoryAmount{},
		ExpensesByCategory: []report.CategoryAmount{},
	}
	for _, t := range totals {
		amount := report.CategoryAmount{
			CategoryID:   t.CategoryID,
			CategoryName: t.CategoryName,
			Amount:       t.Amount,
		}
		switch t.Type {
		case accounting.AccountTypeIncome:
			pl.IncomeByCategory = append(pl.IncomeByCategory, amount)
			pl.TotalIncome = pl.TotalIncome.Add(t.Amount)
		case accounting.AccountTypeExpense:
			pl.ExpensesByCategory = append(pl.ExpensesByCategory, amount)
			pl.TotalExpenses = pl.TotalExpenses.Add(t.Amount)
		}
	}
	pl.NetProfit = pl.TotalIncome.Sub(pl.TotalExpenses)

	return pl, nil
}

// GetBalanceSheet returns assets and liabilities grouped by category
func (r *GormLedgerReportRepository) GetBalanceSheet(ctx context.Context, filter report.ReportFilter) (*report.BalanceSheet, error) {
	totals, err := r.categoryTotals(ctx, filter,
		accounting.AccountTypeAsset, accounting.AccountTypeLiability)
	if err != nil {
		return nil, err
	}

	bs := &report.BalanceSheet{
		TenantID:              filter.TenantID,
		PeriodStart:           filter.StartDate,
		PeriodEnd:             filter.EndDate,
		AssetsByCategory:      []report.CategoryAmount{},
		LiabilitiesByCategory: []report.CategoryAmount{},
	}
	for _, t := range totals {
		amount := report.CategoryAmount{
			CategoryID:   t.CategoryID,
			CategoryName: t.CategoryName,
			Amount:       t.Amount,
		}
		switch t.Type {
		case accounting.AccountTypeAsset:
			bs.AssetsByCategory = append(bs.AssetsByCategory, amount)
			bs.TotalAssets = bs.TotalAssets.Add(t.Amount)
		case accounting.AccountTypeLiability:
			bs.LiabilitiesByCategory = append(bs.LiabilitiesByCategory, amount)
			bs.TotalLiabilities = bs.TotalLiabilities.Add(t.Amount)
		}
	}
	bs.NetPosition = bs.TotalAssets.Sub(bs.TotalLiabilities)

	return bs, nil
}

// GetIncomeStatement returns income and expenses per month bucket
func (r *GormLedgerReportRepository) GetIncomeStatement(ctx context.Context, filter report.ReportFilter) (*report.IncomeStatement, error) {
	var totals []monthlyCategoryTotal
	query := r.entryQuery(ctx, filter).
		Select(`
			EXTRACT(YEAR FROM ledger_entries.created_at)::int as year,
			EXTRACT(MONTH FROM ledger_entries.created_at)::int as month,
			categories.id as category_id,
			categories.name as category_name,
			categories.type as type, `+normalBalanceSelect+` as amount`).
		Where("categories.type IN ?", []accounting.AccountType{
			accounting.AccountTypeIncome, accounting.AccountTypeExpense,
		}).
		Group("EXTRACT(YEAR FROM ledger_entries.created_at), EXTRACT(MONTH FROM ledger_entries.created_at), categories.id, categories.name, categories.type").
		Order("year ASC, month ASC, categories.name ASC")

	if err := query.Scan(&totals).Error; err != nil {
		return nil, err
	}

	statement := &report.IncomeStatement{
		TenantID:    filter.TenantID,
		PeriodStart: filter.StartDate,
		PeriodEnd:   filter.EndDate,
		Periods:     []report.PeriodSummary{},
	}

	var current *report.PeriodSummary
	for _, t := range totals {
		if current == nil || current.Year != t.Year || current.Month != t.Month {
			statement.Periods = append(statement.Periods, report.PeriodSummary{
				Year:               t.Year,
				Month:              t.Month,
				IncomeByCategory:   []report.CategoryAmount{},
				ExpensesByCategory: []report.CategoryAmount{},
			})
			current = &statement.Periods[len(statement.Periods)-1]
		}

		amount := report.CategoryAmount{
			CategoryID:   t.CategoryID,
			CategoryName: t.CategoryName,
			Amount:       t.Amount,
		}
		switch t.Type {
		case accounting.AccountTypeIncome:
			current.IncomeByCategory = append(current.IncomeByCategory, amount)
			current.TotalIncome = current.TotalIncome.Add(t.Amount)
			statement.TotalIncome = statement.TotalIncome.Add(t.Amount)
		case accounting.AccountTypeExpense:
			current.ExpensesByCategory = append(current.ExpensesByCategory, amount)
			current.TotalExpenses = current.TotalExpenses.Add(t.Amount)
			statement.TotalExpenses = statement.TotalExpenses.Add(t.Amount)
		}
	}
	for i := range statement.Periods {
		p := &statement.Periods[i]
		p.NetProfit = p.TotalIncome.Sub(p.TotalExpenses)
	}
	statement.NetProfit = statement.TotalIncome.Sub(statement.TotalExpenses)

	return statement, nil
}

// categoryTotals aggregates balances per category for the given types
func (r *GormLedgerReportRepository) categoryTotals(ctx context.Context, filter report.ReportFilter, types ...accounting.AccountType) ([]categoryTotal, error) {
	var totals []categoryTotal
	query := r.entryQuery(ctx, filter).
		Select("categories.id as category_id, categories.name as category_name, categories.type as type, " +
			normalBalanceSelect + " as amount").
		Where("categories.type IN ?", types).
		Group("categories.id, categories.name, categories.type").
		Order("categories.name ASC")

	if err := query.Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

// entryQuery builds the base ledger-to-category join bounded to the
// tenant and the [StartDate, EndDate) window.
func (r *GormLedgerReportRepository) entryQuery(ctx context.Context, filter report.ReportFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Table("ledger_entries").
		Joins("JOIN categories ON categories.id = ledger_entries.category_id").
		Where("ledger_entries.tenant_id = ?", filter.TenantID)

	if filter.StartDate != nil {
		query = query.Where("ledger_entries.created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("ledger_entries.created_at < ?", *filter.EndDate)
	}
	return query
}

var _ report.FinancialReportRepository = (*GormLedgerReportRepository)(nil)
