package accounting

import (
	"context"
	"testing"

	"github.com/billing/backend/internal/domain/accounting"
	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCategory(t *testing.T, tenantID uuid.UUID, name string, accountType accounting.AccountType) *accounting.Category {
	c, err := accounting.NewCategory(tenantID, name, accountType, nil)
	require.NoError(t, err)
	return c
}

func issuedTestInvoice(t *testing.T, tenantID uuid.UUID) *billing.Invoice {
	inv, err := billing.NewInvoice(tenantID, "INV-2026-001", uuid.New(), "en", "")
	require.NoError(t, err)
	// qty 2 @ $50 untaxed plus qty 1 @ $100 at 10% gives $200 + $10 tax
	_, err = inv.AddLine(uuid.New(), "Widget", decimal.NewFromInt(2), decimal.Zero, valueobject.NewMoneyUSDFromFloat(50.00))
	require.NoError(t, err)
	_, err = inv.AddLine(uuid.New(), "Gadget", decimal.NewFromInt(1), decimal.NewFromInt(10), valueobject.NewMoneyUSDFromFloat(100.00))
	require.NoError(t, err)
	return inv
}

func TestPostingService_PostInvoiceIssued(t *testing.T) {
	tenantID := uuid.New()
	categoryRepo := new(MockCategoryRepository)
	ledgerRepo := new(MockLedgerRepository)
	svc := NewPostingService(categoryRepo, ledgerRepo, zap.NewNop())

	inv := issuedTestInvoice(t, tenantID)

	receivable := newTestCategory(t, tenantID, accounting.CategoryAccountsReceivable, accounting.AccountTypeAsset)
	revenue := newTestCategory(t, tenantID, accounting.CategorySalesRevenue, accounting.AccountTypeIncome)
	taxPayable := newTestCategory(t, tenantID, accounting.CategoryTaxPayable, accounting.AccountTypeLiability)

	categoryRepo.On("FindOrCreate", mock.Anything, tenantID, accounting.CategoryAccountsReceivable, accounting.AccountTypeAsset).Return(receivable, nil)
	categoryRepo.On("FindOrCreate", mock.Anything, tenantID, accounting.CategorySalesRevenue, accounting.AccountTypeIncome).Return(revenue, nil)
	categoryRepo.On("FindOrCreate", mock.Anything, tenantID, accounting.CategoryTaxPayable, accounting.AccountTypeLiability).Return(taxPayable, nil)

	var captured *accounting.TransactionGroup
	ledgerRepo.On("AppendGroup", mock.Anything, mock.AnythingOfType("*accounting.TransactionGroup")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*accounting.TransactionGroup)
		}).Return(nil)

	err := svc.PostInvoiceIssued(context.Background(), inv)
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, tenantID, captured.TenantID)
	assert.Equal(t, accounting.SourceTypeInvoice, captured.SourceType)
	assert.Equal(t, inv.ID, captured.SourceID)
	assert.Equal(t, EventKeyInvoiceIssued, captured.EventKey)
	require.Len(t, captured.Drafts, 3)

	// debit AR $210, credit revenue $200, credit tax $10
	assert.Equal(t, receivable.ID, captured.Drafts[0].CategoryID)
	assert.Equal(t, "210.00", captured.Drafts[0].Debit.StringFixed(2))
	assert.Equal(t, revenue.ID, captured.Drafts[1].CategoryID)
	assert.Equal(t, "200.00", captured.Drafts[1].Credit.StringFixed(2))
	assert.Equal(t, taxPayable.ID, captured.Drafts[2].CategoryID)
	assert.Equal(t, "10.00", captured.Drafts[2].Credit.StringFixed(2))

	assert.NoError(t, captured.Validate())
}

func TestPostingService_PostInvoiceIssued_NoTax(t *testing.T) {
	tenantID := uuid.New()
	categoryRepo := new(MockCategoryRepository)
	ledgerRepo := new(MockLedgerRepository)
	svc := NewPostingService(categoryRepo, ledgerRepo, zap.NewNop())

	inv, err := billing.NewInvoice(tenantID, "INV-2026-002", uuid.New(), "en", "")
	require.NoError(t, err)
	_, err = inv.AddLine(uuid.New(), "Widget", decimal.NewFromInt(1), decimal.Zero, valueobject.NewMoneyUSDFromFloat(100.00))
	require.NoError(t, err)

	receivable := newTestCategory(t, tenantID, accounting.CategoryAccountsReceivable, accounting.AccountTypeAsset)
	revenue := newTestCategory(t, tenantID, accounting.CategorySalesRevenue, accounting.AccountTypeIncome)

	categoryRepo.On("FindOrCreate", mock.Anything, tenantID, accounting.CategoryAccountsReceivable, accounting.AccountTypeAsset).Return(receivable, nil)
	categoryRepo.On("FindOrCreate", mock.Anything, tenantID, accounting.CategorySalesRevenue, accounting.AccountTypeIncome).Return(revenue, nil)

	var captured *accounting.TransactionGroup
	ledgerRepo.On("AppendGroup", mock.Anything, mock.AnythingOfType("*accounting.TransactionGroup")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*accounting.TransactionGroup)
		}).Return(nil)

	err = svc.PostInvoiceIssued(context.Background(), inv)
	require.NoError(t, err)

	// No tax payable draft for an untaxed invoice
	require.Len(t, captured.Drafts, 2)
	categoryRepo.AssertNotCalled(t, "FindOrCreate", mock.Anything, tenantID, accounting.CategoryTaxPayable, accounting.AccountTypeLiability)
}

func TestPostingService_PostInvoiceIssued_AlreadyPosted(t *testing.T) {
	tenantID := uuid.New()
	categoryRepo := new(MockCategoryRepository)
	ledgerRepo := new(MockLedgerRepository)
	svc := NewPostingService(categoryRepo, ledgerRepo, zap.NewNop())

	inv := issuedTestInvoice(t, tenantID)

	receivable := newTestCategory(t, tenantID, accounting.CategoryAccountsReceivable, accounting.AccountTypeAsset)
	revenue := newTestCategory(t, tenantID, accounting.CategorySalesRevenue, accounting.AccountTypeIncome)
	taxPayable := newTestCategory(t, tenantID, accounting.CategoryTaxPayable, accounting.AccountTypeLiability)

	categoryRepo.On("FindOrCreate", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(receivable, nil).Once()
	categoryRepo.On("FindOrCreate", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(revenue, nil).Once()
	categoryRepo.On("FindOrCreate", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(taxPayable, nil).Once()

	ledgerRepo.On("AppendGroup", mock.Anything, mock.Anything).Return(accounting.ErrAlreadyPosted)

	err := svc.PostInvoiceIssued(context.Background(), inv)
	assert.ErrorIs(t, err, accounting.ErrAlreadyPosted)
}

func TestPostingService_PostInvoicePaid(t *testing.T) {
	tenantID := uuid.New()
	categoryRepo := new(MockCategoryRepository)
	ledgerRepo := new(MockLedgerRepository)
	svc := NewPostingService(categoryRepo, ledgerRepo, zap.NewNop())

	inv := issuedTestInvoice(t, tenantID)

	cash := newTestCategory(t, tenantID, accounting.CategoryCash, accounting.AccountTypeAsset)
	receivable := newTestCategory(t, tenantID, accounting.CategoryAccountsReceivable, accounting.AccountTypeAsset)

	categoryRepo.On("FindOrCreate", mock.Anything, tenantID, accounting.CategoryCash, accounting.AccountTypeAsset).Return(cash, nil)
	categoryRepo.On("FindOrCreate", mock.Anything, tenantID, accounting.CategoryAccountsReceivable, accounting.AccountTypeAsset).Return(receivable, nil)

	var captured *accounting.TransactionGroup
	ledgerRepo.On("AppendGroup", mock.Anything, mock.AnythingOfType("*accounting.TransactionGroup")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*accounting.TransactionGroup)
		}).Return(nil)

	err := svc.PostInvoicePaid(context.Background(), inv)
	require.NoError(t, err)

	assert.Equal(t, EventKeyInvoicePaid, captured.EventKey)
	require.Len(t, captured.Drafts, 2)
	assert.Equal(t, cash.ID, captured.Drafts[0].CategoryID)
	assert.Equal(t, "210.00", captured.Drafts[0].Debit.StringFixed(2))
	assert.Equal(t, receivable.ID, captured.Drafts[1].CategoryID)
	assert.Equal(t, "210.00", captured.Drafts[1].Credit.StringFixed(2))
	assert.NoError(t, captured.Validate())
}

func TestPostingService_PostExpense(t *testing.T) {
	tenantID := uuid.New()
	categoryRepo := new(MockCategoryRepository)
	ledgerRepo := new(MockLedgerRepository)
	svc := NewPostingService(categoryRepo, ledgerRepo, zap.NewNop())

	rent := newTestCategory(t, tenantID, "Rent", accounting.AccountTypeExpense)
	cash := newTestCategory(t, tenantID, accounting.CategoryCash, accounting.AccountTypeAsset)

	categoryRepo.On("FindOrCreate", mock.Anything, tenantID, "Rent", accounting.AccountTypeExpense).Return(rent, nil)
	categoryRepo.On("FindOrCreate", mock.Anything, tenantID, accounting.CategoryCash, accounting.AccountTypeAsset).Return(cash, nil)

	var captured *accounting.TransactionGroup
	ledgerRepo.On("AppendGroup", mock.Anything, mock.AnythingOfType("*accounting.TransactionGroup")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*accounting.TransactionGroup)
		}).Return(nil)

	groupID, err := svc.PostExpense(context.Background(), tenantID, "Rent", decimal.NewFromFloat(1500.00), "Office rent for August")
	require.NoError(t, err)
	assert.Equal(t, captured.GroupID, groupID)

	assert.Equal(t, accounting.SourceTypeExpense, captured.SourceType)
	require.Len(t, captured.Drafts, 2)
	assert.Equal(t, rent.ID, captured.Drafts[0].CategoryID)
	assert.Equal(t, "1500.00", captured.Drafts[0].Debit.StringFixed(2))
	assert.Equal(t, cash.ID, captured.Drafts[1].CategoryID)
	assert.Equal(t, "1500.00", captured.Drafts[1].Credit.StringFixed(2))
}

func TestPostingService_PostExpense_InvalidAmount(t *testing.T) {
	svc := NewPostingService(new(MockCategoryRepository), new(MockLedgerRepository), zap.NewNop())

	_, err := svc.PostExpense(context.Background(), uuid.New(), "Rent", decimal.Zero, "nothing")
	assert.ErrorIs(t, err, accounting.ErrInvalidAmount)

	_, err = svc.PostExpense(context.Background(), uuid.New(), "Rent", decimal.NewFromInt(-5), "negative")
	assert.ErrorIs(t, err, accounting.ErrInvalidAmount)
}

func TestPostingService_PostAdjustment(t *testing.T) {
	tenantID := uuid.New()
	ledgerRepo := new(MockLedgerRepository)
	svc := NewPostingService(new(MockCategoryRepository), ledgerRepo, zap.NewNop())

	assetID := uuid.New()
	incomeID := uuid.New()
	drafts := []accounting.EntryDraft{
		accounting.DebitDraft(assetID, decimal.NewFromInt(5), "correction"),
		accounting.CreditDraft(incomeID, decimal.NewFromInt(5), "correction"),
	}

	var captured *accounting.TransactionGroup
	ledgerRepo.On("AppendGroup", mock.Anything, mock.AnythingOfType("*accounting.TransactionGroup")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*accounting.TransactionGroup)
		}).Return(nil)

	groupID, err := svc.PostAdjustment(context.Background(), tenantID, drafts)
	require.NoError(t, err)
	assert.Equal(t, captured.GroupID, groupID)
	assert.Equal(t, accounting.SourceTypeAdjustment, captured.SourceType)
	assert.NoError(t, captured.Validate())
}

func TestPostingService_PostAdjustment_Unbalanced(t *testing.T) {
	tenantID := uuid.New()
	ledgerRepo := new(MockLedgerRepository)
	svc := NewPostingService(new(MockCategoryRepository), ledgerRepo, zap.NewNop())

	drafts := []accounting.EntryDraft{
		accounting.DebitDraft(uuid.New(), decimal.NewFromInt(5), "bad"),
		accounting.CreditDraft(uuid.New(), decimal.NewFromInt(4), "bad"),
	}

	// The store validates the balance invariant at commit time
	ledgerRepo.On("AppendGroup", mock.Anything, mock.Anything).Return(accounting.ErrUnbalancedTransaction)

	_, err := svc.PostAdjustment(context.Background(), tenantID, drafts)
	assert.ErrorIs(t, err, accounting.ErrUnbalancedTransaction)
}
