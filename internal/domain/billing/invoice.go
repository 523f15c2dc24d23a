package billing

import (
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft  InvoiceStatus = "DRAFT"
	InvoiceStatusIssued InvoiceStatus = "ISSUED"
	InvoiceStatusPaid   InvoiceStatus = "PAID"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target
// status. The invoice lifecycle is strictly linear: DRAFT → ISSUED → PAID.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusIssued
	case InvoiceStatusIssued:
		return target == InvoiceStatusPaid
	}
	return false
}

// InvoiceLine is one billed row, snapshotted from the order cart when the
// invoice is created. Line amounts are rounded to 2 decimal places at the
// line level and then summed, matching what the customer was shown.
type InvoiceLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTax     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceLine) TableName() string {
	return "invoice_lines"
}

// NewInvoiceLine creates a billed line with rounded amounts
func NewInvoiceLine(invoiceID, productID uuid.UUID, productName string, quantity, taxRate decimal.Decimal, unitPrice valueobject.Money) (*InvoiceLine, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 100")
	}

	gross := quantity.Mul(unitPrice.Amount())
	return &InvoiceLine{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		TaxRate:     taxRate,
		LineTotal:   gross.Round(2),
		LineTax:     gross.Mul(taxRate).Div(decimal.NewFromInt(100)).Round(2),
		CreatedAt:   time.Now(),
	}, nil
}

// Invoice is the billed document. Its two status transitions are the only
// ledger-posting triggers in the system; the application service performs
// transition and posting in one database transaction.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber      string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoices_tenant_number,priority:2"`
	CustomerID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID            *uuid.UUID      `gorm:"type:uuid;index"`
	Lines              []InvoiceLine   `gorm:"foreignKey:InvoiceID;references:ID"`
	NetAmount          decimal.Decimal `gorm:"type:decimal(18,4);not null"` // pre-tax revenue
	TaxAmount          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null"` // NetAmount + TaxAmount
	Language           string          `gorm:"type:varchar(20);not null;default:'en'"`
	GovernmentTemplate string          `gorm:"type:varchar(100)"`
	Status             InvoiceStatus   `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	IssuedAt           *time.Time
	PaidAt             *time.Time
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a new invoice in DRAFT status. The language must be a
// well-formed BCP 47 tag.
func NewInvoice(tenantID uuid.UUID, invoiceNumber string, customerID uuid.UUID, lang, governmentTemplate string) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if lang == "" {
		lang = "en"
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_LANGUAGE", "Invoice language must be a valid BCP 47 tag")
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		CustomerID:          customerID,
		Lines:               make([]InvoiceLine, 0),
		NetAmount:           decimal.Zero,
		TaxAmount:           decimal.Zero,
		TotalAmount:         decimal.Zero,
		Language:            tag.String(),
		GovernmentTemplate:  governmentTemplate,
		Status:              InvoiceStatusDraft,
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// NewInvoiceFromOrder creates a draft invoice with the order's cart lines
// snapshotted onto it
func NewInvoiceFromOrder(tenantID uuid.UUID, invoiceNumber string, order *Order, lang, governmentTemplate string) (*Invoice, error) {
	if order == nil {
		return nil, shared.ErrInvalidInput
	}
	if order.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}

	inv, err := NewInvoice(tenantID, invoiceNumber, order.CustomerID, lang, governmentTemplate)
	if err != nil {
		return nil, err
	}
	inv.OrderID = &order.ID

	for _, l := range order.Lines {
		if _, err := inv.AddLine(l.ProductID, l.ProductName, l.Quantity, l.TaxRate, valueobject.NewMoneyUSD(l.UnitPrice)); err != nil {
			return nil, err
		}
	}

	return inv, nil
}

// AddLine appends a billed line. Only allowed in DRAFT status.
func (i *Invoice) AddLine(productID uuid.UUID, productName string, quantity, taxRate decimal.Decimal, unitPrice valueobject.Money) (*InvoiceLine, error) {
	if i.Status != InvoiceStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines to a non-draft invoice")
	}

	line, err := NewInvoiceLine(i.ID, productID, productName, quantity, taxRate, unitPrice)
	if err != nil {
		return nil, err
	}

	i.Lines = append(i.Lines, *line)
	i.recalculateTotals()
	i.Touch()
	i.IncrementVersion()

	return line, nil
}

// RemoveLine removes a billed line. Only allowed in DRAFT status.
func (i *Invoice) RemoveLine(lineID uuid.UUID) error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove lines from a non-draft invoice")
	}
	for idx := range i.Lines {
		if i.Lines[idx].ID == lineID {
			i.Lines = append(i.Lines[:idx], i.Lines[idx+1:]...)
			i.recalculateTotals()
			i.Touch()
			i.IncrementVersion()
			return nil
		}
	}
	return shared.ErrNotFound
}

// recalculateTotals sums the rounded line amounts
func (i *Invoice) recalculateTotals() {
	net := decimal.Zero
	tax := decimal.Zero
	for _, l := range i.Lines {
		net = net.Add(l.LineTotal)
		tax = tax.Add(l.LineTax)
	}
	i.NetAmount = net
	i.TaxAmount = tax
	i.TotalAmount = net.Add(tax)
}

// Issue transitions the invoice from DRAFT to ISSUED. An invoice with no
// lines cannot be issued.
func (i *Invoice) Issue() error {
	if !i.Status.CanTransitionTo(InvoiceStatusIssued) {
		return ErrInvalidTransition
	}
	if len(i.Lines) == 0 {
		return ErrEmptyInvoice
	}

	now := time.Now()
	i.Status = InvoiceStatusIssued
	i.IssuedAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoiceIssuedEvent(i))

	return nil
}

// MarkPaid transitions the invoice from ISSUED to PAID
func (i *Invoice) MarkPaid() error {
	if !i.Status.CanTransitionTo(InvoiceStatusPaid) {
		return ErrInvalidTransition
	}

	now := time.Now()
	i.Status = InvoiceStatusPaid
	i.PaidAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoicePaidEvent(i))

	return nil
}

// IsDraft reports whether the invoice is still editable
func (i *Invoice) IsDraft() bool {
	return i.Status == InvoiceStatusDraft
}

// GetTotalAmountMoney returns the grand total as Money
func (i *Invoice) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.TotalAmount)
}

// GetNetAmountMoney returns the pre-tax revenue as Money
func (i *Invoice) GetNetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.NetAmount)
}

// GetTaxAmountMoney returns the tax portion as Money
func (i *Invoice) GetTaxAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.TaxAmount)
}
