package accounting

import (
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SourceType identifies the business document a ledger entry originates from
type SourceType string

const (
	SourceTypeInvoice    SourceType = "INVOICE"
	SourceTypeOrder      SourceType = "ORDER"
	SourceTypeQuote      SourceType = "QUOTE"
	SourceTypePayment    SourceType = "PAYMENT"
	SourceTypeAdjustment SourceType = "ADJUSTMENT"
	SourceTypeExpense    SourceType = "EXPENSE"
)

// IsValid checks if the source type is a valid SourceType
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeInvoice, SourceTypeOrder, SourceTypeQuote, SourceTypePayment, SourceTypeAdjustment, SourceTypeExpense:
		return true
	}
	return false
}

// String returns the string representation of SourceType
func (s SourceType) String() string {
	return string(s)
}

// LedgerEntry is one immutable row of the double-entry ledger. Entries are
// created in balanced transaction groups by the posting engine and are
// never updated or deleted; corrections are new offsetting entries with
// source type ADJUSTMENT.
type LedgerEntry struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_entries_tenant_created"`
	Debit              decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Credit             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CategoryID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	SourceType         SourceType      `gorm:"type:varchar(20);not null;index"`
	SourceID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	TransactionGroupID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description        string          `gorm:"type:varchar(500)"`
	CreatedAt          time.Time       `gorm:"not null;index:idx_ledger_entries_tenant_created"`
}

// TableName returns the table name for GORM
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// IsDebit reports whether the entry is on the debit side
func (e *LedgerEntry) IsDebit() bool {
	return e.Debit.IsPositive()
}

// Amount returns the non-zero side of the entry
func (e *LedgerEntry) Amount() decimal.Decimal {
	if e.IsDebit() {
		return e.Debit
	}
	return e.Credit
}

// EntryDraft is the caller-supplied template for one ledger entry. Exactly
// one of Debit/Credit must be positive.
type EntryDraft struct {
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Description string          `json:"description"`
}

// DebitDraft builds a draft on the debit side
func DebitDraft(categoryID uuid.UUID, amount decimal.Decimal, description string) EntryDraft {
	return EntryDraft{Debit: amount, CategoryID: categoryID, Description: description}
}

// CreditDraft builds a draft on the credit side
func CreditDraft(categoryID uuid.UUID, amount decimal.Decimal, description string) EntryDraft {
	return EntryDraft{Credit: amount, CategoryID: categoryID, Description: description}
}

// Validate checks the single-side invariant of the draft
func (d EntryDraft) Validate() error {
	if d.CategoryID == uuid.Nil {
		return shared.NewDomainError("INVALID_CATEGORY", "Entry draft must reference a category")
	}
	if d.Debit.IsNegative() || d.Credit.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Entry amounts cannot be negative")
	}
	debitSet := d.Debit.IsPositive()
	creditSet := d.Credit.IsPositive()
	if debitSet == creditSet {
		return shared.NewDomainError("INVALID_AMOUNT", "Exactly one of debit or credit must be positive")
	}
	return nil
}

// TransactionGroup is the atomic unit of ledger writes: a set of drafts
// that must collectively balance, stamped with the source document and an
// event key used for idempotent posting.
type TransactionGroup struct {
	GroupID    uuid.UUID
	TenantID   uuid.UUID
	SourceType SourceType
	SourceID   uuid.UUID
	EventKey   string
	Drafts     []EntryDraft
}

// NewTransactionGroup creates a transaction group with a fresh group ID
func NewTransactionGroup(tenantID uuid.UUID, sourceType SourceType, sourceID uuid.UUID, eventKey string, drafts []EntryDraft) *TransactionGroup {
	return &TransactionGroup{
		GroupID:    uuid.New(),
		TenantID:   tenantID,
		SourceType: sourceType,
		SourceID:   sourceID,
		EventKey:   eventKey,
		Drafts:     drafts,
	}
}

// Validate enforces the balance invariant: the group is non-empty, every
// draft is single-sided, and debits equal credits with exact decimal
// equality. No rounding tolerance is applied.
func (g *TransactionGroup) Validate() error {
	if g.TenantID == uuid.Nil {
		return shared.ErrInvalidInput
	}
	if !g.SourceType.IsValid() {
		return shared.NewDomainError("INVALID_SOURCE_TYPE", "Unknown ledger source type")
	}
	if g.SourceID == uuid.Nil {
		return shared.NewDomainError("INVALID_SOURCE", "Transaction group must reference a source document")
	}
	if len(g.Drafts) == 0 {
		return ErrEmptyTransactionGroup
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, d := range g.Drafts {
		if err := d.Validate(); err != nil {
			return err
		}
		totalDebit = totalDebit.Add(d.Debit)
		totalCredit = totalCredit.Add(d.Credit)
	}

	if !totalDebit.Equal(totalCredit) {
		return ErrUnbalancedTransaction
	}
	return nil
}

// Entries materializes the group's drafts into immutable ledger entries
func (g *TransactionGroup) Entries(now time.Time) []LedgerEntry {
	entries := make([]LedgerEntry, len(g.Drafts))
	for i, d := range g.Drafts {
		entries[i] = LedgerEntry{
			ID:                 uuid.New(),
			TenantID:           g.TenantID,
			Debit:              d.Debit,
			Credit:             d.Credit,
			CategoryID:         d.CategoryID,
			SourceType:         g.SourceType,
			SourceID:           g.SourceID,
			TransactionGroupID: g.GroupID,
			Description:        d.Description,
			CreatedAt:          now,
		}
	}
	return entries
}

// LedgerPosting is the idempotency marker committed alongside a
// transaction group. The unique index over (tenant, source, event key)
// turns a duplicate posting attempt into a constraint violation inside the
// same database transaction as the entry insert.
type LedgerPosting struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_postings_source,priority:1"`
	SourceType         SourceType `gorm:"type:varchar(20);not null;uniqueIndex:idx_ledger_postings_source,priority:2"`
	SourceID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_postings_source,priority:3"`
	EventKey           string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_ledger_postings_source,priority:4"`
	TransactionGroupID uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt          time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerPosting) TableName() string {
	return "ledger_postings"
}

// NewLedgerPosting builds the marker for a transaction group
func NewLedgerPosting(g *TransactionGroup, now time.Time) *LedgerPosting {
	return &LedgerPosting{
		ID:                 uuid.New(),
		TenantID:           g.TenantID,
		SourceType:         g.SourceType,
		SourceID:           g.SourceID,
		EventKey:           g.EventKey,
		TransactionGroupID: g.GroupID,
		CreatedAt:          now,
	}
}
