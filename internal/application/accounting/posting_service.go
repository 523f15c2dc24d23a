package accounting

import (
	"context"
	"fmt"

	"github.com/billing/backend/internal/domain/accounting"
	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Event keys distinguishing the ledger postings a single document can
// trigger. Together with (source type, source id) they form the
// idempotency key of a posting.
const (
	EventKeyInvoiceIssued = "invoice-issued"
	EventKeyInvoicePaid   = "invoice-paid"
	EventKeyRecorded      = "recorded"
)

// PostingService translates business events into balanced ledger entry
// groups. Callers that must change document state and post atomically run
// the posting inside their own transaction via shared.TransactionManager.
type PostingService struct {
	categoryRepo accounting.CategoryRepository
	ledgerRepo   accounting.LedgerRepository
	logger       *zap.Logger
}

// NewPostingService creates a new PostingService
func NewPostingService(
	categoryRepo accounting.CategoryRepository,
	ledgerRepo accounting.LedgerRepository,
	logger *zap.Logger,
) *PostingService {
	return &PostingService{
		categoryRepo: categoryRepo,
		ledgerRepo:   ledgerRepo,
		logger:       logger,
	}
}

// PostInvoiceIssued posts the receivable, revenue and tax entries for an
// issued invoice. The amounts come from the invoice's own line-level
// rounded totals; they are never recomputed here. Duplicate calls for the
// same invoice fail with ErrAlreadyPosted.
func (s *PostingService) PostInvoiceIssued(ctx context.Context, inv *billing.Invoice) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "posting", "invoice_issued")
	defer span.End()

	tenantID := inv.TenantID
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, inv.ID.String(),
		telemetry.SpanAttrInvoiceNumber, inv.InvoiceNumber,
		telemetry.SpanAttrAmount, inv.TotalAmount.String(),
	)

	receivable, err := s.categoryRepo.FindOrCreate(ctx, tenantID, accounting.CategoryAccountsReceivable, accounting.AccountTypeAsset)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	revenue, err := s.categoryRepo.FindOrCreate(ctx, tenantID, accounting.CategorySalesRevenue, accounting.AccountTypeIncome)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	desc := fmt.Sprintf("Invoice %s issued", inv.InvoiceNumber)
	drafts := []accounting.EntryDraft{
		accounting.DebitDraft(receivable.ID, inv.TotalAmount, desc),
		accounting.CreditDraft(revenue.ID, inv.NetAmount, desc),
	}

	if inv.TaxAmount.IsPositive() {
		taxPayable, err := s.categoryRepo.FindOrCreate(ctx, tenantID, accounting.CategoryTaxPayable, accounting.AccountTypeLiability)
		if err != nil {
			telemetry.RecordError(span, err)
			return err
		}
		drafts = append(drafts, accounting.CreditDraft(taxPayable.ID, inv.TaxAmount, desc))
	}

	group := accounting.NewTransactionGroup(tenantID, accounting.SourceTypeInvoice, inv.ID, EventKeyInvoiceIssued, drafts)
	if err := s.ledgerRepo.AppendGroup(ctx, group); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	telemetry.AddEvent(span, "entries_appended",
		telemetry.SpanAttrTransactionGroupID, group.GroupID.String(),
		telemetry.SpanAttrEntryCount, len(drafts),
	)
	s.logger.Info("posted invoice issued",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("total_amount", inv.TotalAmount.String()),
		zap.String("transaction_group_id", group.GroupID.String()),
	)
	return nil
}

// PostInvoicePaid moves the invoice's receivable into cash
func (s *PostingService) PostInvoicePaid(ctx context.Context, inv *billing.Invoice) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "posting", "invoice_paid")
	defer span.End()

	tenantID := inv.TenantID
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, inv.ID.String(),
		telemetry.SpanAttrInvoiceNumber, inv.InvoiceNumber,
		telemetry.SpanAttrAmount, inv.TotalAmount.String(),
	)

	cash, err := s.categoryRepo.FindOrCreate(ctx, tenantID, accounting.CategoryCash, accounting.AccountTypeAsset)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	receivable, err := s.categoryRepo.FindOrCreate(ctx, tenantID, accounting.CategoryAccountsReceivable, accounting.AccountTypeAsset)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	desc := fmt.Sprintf("Invoice %s paid", inv.InvoiceNumber)
	drafts := []accounting.EntryDraft{
		accounting.DebitDraft(cash.ID, inv.TotalAmount, desc),
		accounting.CreditDraft(receivable.ID, inv.TotalAmount, desc),
	}

	group := accounting.NewTransactionGroup(tenantID, accounting.SourceTypeInvoice, inv.ID, EventKeyInvoicePaid, drafts)
	if err := s.ledgerRepo.AppendGroup(ctx, group); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	telemetry.AddEvent(span, "entries_appended",
		telemetry.SpanAttrTransactionGroupID, group.GroupID.String(),
		telemetry.SpanAttrEntryCount, len(drafts),
	)
	s.logger.Info("posted invoice paid",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("total_amount", inv.TotalAmount.String()),
		zap.String("transaction_group_id", group.GroupID.String()),
	)
	return nil
}

// PostExpense records an expense against cash. The expense category is
// resolved by name and created on first use.
func (s *PostingService) PostExpense(ctx context.Context, tenantID uuid.UUID, categoryName string, amount decimal.Decimal, description string) (uuid.UUID, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "posting", "expense")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrCategoryName, categoryName,
		telemetry.SpanAttrAmount, amount.String(),
	)

	if !amount.IsPositive() {
		telemetry.RecordError(span, accounting.ErrInvalidAmount)
		return uuid.Nil, accounting.ErrInvalidAmount
	}

	expense, err := s.categoryRepo.FindOrCreate(ctx, tenantID, categoryName, accounting.AccountTypeExpense)
	if err != nil {
		telemetry.RecordError(span, err)
		return uuid.Nil, err
	}
	cash, err := s.categoryRepo.FindOrCreate(ctx, tenantID, accounting.CategoryCash, accounting.AccountTypeAsset)
	if err != nil {
		telemetry.RecordError(span, err)
		return uuid.Nil, err
	}

	drafts := []accounting.EntryDraft{
		accounting.DebitDraft(expense.ID, amount, description),
		accounting.CreditDraft(cash.ID, amount, description),
	}

	// Each recorded expense is its own source document
	group := accounting.NewTransactionGroup(tenantID, accounting.SourceTypeExpense, uuid.New(), EventKeyRecorded, drafts)
	if err := s.ledgerRepo.AppendGroup(ctx, group); err != nil {
		telemetry.RecordError(span, err)
		return uuid.Nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionGroupID, group.GroupID.String())

	s.logger.Info("posted expense",
		zap.String("tenant_id", tenantID.String()),
		zap.String("category", categoryName),
		zap.String("amount", amount.String()),
		zap.String("transaction_group_id", group.GroupID.String()),
	)
	return group.GroupID, nil
}

// PostAdjustment commits caller-specified drafts as one balanced group.
// This is the correction path for an append-only ledger: mistakes are
// offset by new entries, never edited in place.
func (s *PostingService) PostAdjustment(ctx context.Context, tenantID uuid.UUID, drafts []accounting.EntryDraft) (uuid.UUID, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "posting", "adjustment")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrEntryCount, len(drafts))

	group := accounting.NewTransactionGroup(tenantID, accounting.SourceTypeAdjustment, uuid.New(), EventKeyRecorded, drafts)
	if err := s.ledgerRepo.AppendGroup(ctx, group); err != nil {
		telemetry.RecordError(span, err)
		return uuid.Nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionGroupID, group.GroupID.String())

	s.logger.Info("posted adjustment",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("entry_count", len(drafts)),
		zap.String("transaction_group_id", group.GroupID.String()),
	)
	return group.GroupID, nil
}
