package handler

import (
	"context"

	billingapp "github.com/billing/backend/internal/application/billing"
	"github.com/billing/backend/internal/domain/accounting"
	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/report"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockInvoiceRepository implements billing.InvoiceRepository for testing
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status billing.InvoiceStatus, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status billing.InvoiceStatus) (int64, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).(int64), args.Error(1)
}

var _ billing.InvoiceRepository = (*MockInvoiceRepository)(nil)

// MockOrderRepository implements billing.OrderRepository for testing
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*billing.Order, error) {
	args := m.Called(ctx, tenantID, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Order, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *billing.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, order *billing.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

var _ billing.OrderRepository = (*MockOrderRepository)(nil)

// MockQuoteRepository implements billing.QuoteRepository for testing
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Quote, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Quote), args.Error(1)
}

func (m *MockQuoteRepository) FindByQuoteNumber(ctx context.Context, tenantID uuid.UUID, quoteNumber string) (*billing.Quote, error) {
	args := m.Called(ctx, tenantID, quoteNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Quote), args.Error(1)
}

func (m *MockQuoteRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Quote, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Quote), args.Error(1)
}

func (m *MockQuoteRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status billing.QuoteStatus, filter shared.Filter) ([]billing.Quote, error) {
	args := m.Called(ctx, tenantID, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Quote), args.Error(1)
}

func (m *MockQuoteRepository) FindExpirable(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Quote, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Quote), args.Error(1)
}

func (m *MockQuoteRepository) Save(ctx context.Context, quote *billing.Quote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}

func (m *MockQuoteRepository) SaveWithLock(ctx context.Context, quote *billing.Quote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}

func (m *MockQuoteRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status billing.QuoteStatus) (int64, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).(int64), args.Error(1)
}

var _ billing.QuoteRepository = (*MockQuoteRepository)(nil)

// MockLedgerPoster implements billingapp.LedgerPoster for testing
type MockLedgerPoster struct {
	mock.Mock
}

func (m *MockLedgerPoster) PostInvoiceIssued(ctx context.Context, inv *billing.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockLedgerPoster) PostInvoicePaid(ctx context.Context, inv *billing.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

var _ billingapp.LedgerPoster = (*MockLedgerPoster)(nil)

// passthroughTxManager runs the function directly without a database
type passthroughTxManager struct{}

func (passthroughTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ shared.TransactionManager = passthroughTxManager{}

// MockCategoryRepository implements accounting.CategoryRepository for testing
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*accounting.Category, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string, accountType accounting.AccountType) (*accounting.Category, error) {
	args := m.Called(ctx, tenantID, name, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindOrCreate(ctx context.Context, tenantID uuid.UUID, name string, accountType accounting.AccountType) (*accounting.Category, error) {
	args := m.Called(ctx, tenantID, name, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]accounting.Category, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]accounting.Category), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *accounting.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

var _ accounting.CategoryRepository = (*MockCategoryRepository)(nil)

// MockLedgerRepository implements accounting.LedgerRepository for testing
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) AppendGroup(ctx context.Context, group *accounting.TransactionGroup) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockLedgerRepository) QueryEntries(ctx context.Context, tenantID uuid.UUID, filter accounting.EntryFilter) ([]accounting.LedgerEntry, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]accounting.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) ForEachEntry(ctx context.Context, tenantID uuid.UUID, filter accounting.EntryFilter, fn func(accounting.LedgerEntry) error) error {
	args := m.Called(ctx, tenantID, filter, fn)
	return args.Error(0)
}

func (m *MockLedgerRepository) HasPosting(ctx context.Context, tenantID uuid.UUID, sourceType accounting.SourceType, sourceID uuid.UUID, eventKey string) (bool, error) {
	args := m.Called(ctx, tenantID, sourceType, sourceID, eventKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepository) ExistsForCategory(ctx context.Context, tenantID, categoryID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, categoryID)
	return args.Bool(0), args.Error(1)
}

var _ accounting.LedgerRepository = (*MockLedgerRepository)(nil)

// MockFinancialReportRepository implements report.FinancialReportRepository for testing
type MockFinancialReportRepository struct {
	mock.Mock
}

func (m *MockFinancialReportRepository) GetFinancialSummary(ctx context.Context, filter report.ReportFilter) (*report.FinancialSummary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.FinancialSummary), args.Error(1)
}

func (m *MockFinancialReportRepository) GetProfitLoss(ctx context.Context, filter report.ReportFilter) (*report.ProfitLoss, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.ProfitLoss), args.Error(1)
}

func (m *MockFinancialReportRepository) GetBalanceSheet(ctx context.Context, filter report.ReportFilter) (*report.BalanceSheet, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.BalanceSheet), args.Error(1)
}

func (m *MockFinancialReportRepository) GetIncomeStatement(ctx context.Context, filter report.ReportFilter) (*report.IncomeStatement, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.IncomeStatement), args.Error(1)
}

var _ report.FinancialReportRepository = (*MockFinancialReportRepository)(nil)

// MockStatsRepository implements report.StatsRepository for testing
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) GetMonthlyStats(ctx context.Context, filter report.StatsFilter) ([]report.MonthlyStats, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.MonthlyStats), args.Error(1)
}

var _ report.StatsRepository = (*MockStatsRepository)(nil)
