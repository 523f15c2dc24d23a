package billing

import (
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteStatus represents the status of a quote
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "DRAFT"
	QuoteStatusSent     QuoteStatus = "SENT"
	QuoteStatusAccepted QuoteStatus = "ACCEPTED"
	QuoteStatusRejected QuoteStatus = "REJECTED"
	QuoteStatusExpired  QuoteStatus = "EXPIRED"
)

// IsValid checks if the status is a valid QuoteStatus
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// String returns the string representation of QuoteStatus
func (s QuoteStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status permits no further transitions
func (s QuoteStatus) IsTerminal() bool {
	switch s {
	case QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s QuoteStatus) CanTransitionTo(target QuoteStatus) bool {
	switch s {
	case QuoteStatusDraft:
		return target == QuoteStatusSent || target == QuoteStatusAccepted ||
			target == QuoteStatusRejected || target == QuoteStatusExpired
	case QuoteStatusSent:
		return target == QuoteStatusAccepted || target == QuoteStatusRejected ||
			target == QuoteStatusExpired
	}
	return false
}

// Quote is a priced estimate offered to a customer. A quote never posts
// ledger entries; it is the precursor to an order and invoice.
type Quote struct {
	shared.TenantAggregateRoot
	QuoteNumber   string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_quotes_tenant_number,priority:2"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID       *uuid.UUID      `gorm:"type:uuid;index"`
	TotalEstimate decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ExpiresAt     time.Time       `gorm:"not null"`
	Status        QuoteStatus     `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	SentAt        *time.Time
	DecidedAt     *time.Time // set when accepted, rejected or expired
}

// TableName returns the table name for GORM
func (Quote) TableName() string {
	return "quotes"
}

// NewQuote creates a new quote in DRAFT status
func NewQuote(tenantID uuid.UUID, quoteNumber string, customerID uuid.UUID, totalEstimate valueobject.Money, expiresAt time.Time) (*Quote, error) {
	if quoteNumber == "" {
		return nil, shared.NewDomainError("INVALID_QUOTE_NUMBER", "Quote number cannot be empty")
	}
	if len(quoteNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_QUOTE_NUMBER", "Quote number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if totalEstimate.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total estimate cannot be negative")
	}
	if expiresAt.IsZero() {
		return nil, shared.NewDomainError("INVALID_EXPIRY", "Expiry date is required")
	}

	q := &Quote{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		QuoteNumber:         quoteNumber,
		CustomerID:          customerID,
		TotalEstimate:       totalEstimate.Amount(),
		ExpiresAt:           expiresAt,
		Status:              QuoteStatusDraft,
	}

	q.AddDomainEvent(NewQuoteCreatedEvent(q))

	return q, nil
}

// AttachOrder links the priced cart this quote estimates
func (q *Quote) AttachOrder(orderID uuid.UUID, totalEstimate valueobject.Money) error {
	if q.Status != QuoteStatusDraft {
		return ErrInvalidTransition
	}
	if orderID == uuid.Nil {
		return shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	q.OrderID = &orderID
	q.TotalEstimate = totalEstimate.Amount()
	q.Touch()
	q.IncrementVersion()
	return nil
}

// Send marks the quote as sent to the customer
func (q *Quote) Send() error {
	if !q.Status.CanTransitionTo(QuoteStatusSent) {
		return ErrInvalidTransition
	}

	now := time.Now()
	q.Status = QuoteStatusSent
	q.SentAt = &now
	q.UpdatedAt = now
	q.IncrementVersion()

	q.AddDomainEvent(NewQuoteSentEvent(q))

	return nil
}

// Accept marks the quote as accepted by the customer
func (q *Quote) Accept() error {
	if !q.Status.CanTransitionTo(QuoteStatusAccepted) {
		return ErrInvalidTransition
	}

	now := time.Now()
	q.Status = QuoteStatusAccepted
	q.DecidedAt = &now
	q.UpdatedAt = now
	q.IncrementVersion()

	q.AddDomainEvent(NewQuoteAcceptedEvent(q))

	return nil
}

// Reject marks the quote as rejected by the customer
func (q *Quote) Reject() error {
	if !q.Status.CanTransitionTo(QuoteStatusRejected) {
		return ErrInvalidTransition
	}

	now := time.Now()
	q.Status = QuoteStatusRejected
	q.DecidedAt = &now
	q.UpdatedAt = now
	q.IncrementVersion()

	q.AddDomainEvent(NewQuoteRejectedEvent(q))

	return nil
}

// MarkExpired expires the quote. The expiry date must have passed.
func (q *Quote) MarkExpired(now time.Time) error {
	if !q.Status.CanTransitionTo(QuoteStatusExpired) {
		return ErrInvalidTransition
	}
	if now.Before(q.ExpiresAt) {
		return shared.NewDomainError("NOT_YET_EXPIRED", "Quote expiry date has not passed")
	}

	q.Status = QuoteStatusExpired
	q.DecidedAt = &now
	q.UpdatedAt = now
	q.IncrementVersion()

	q.AddDomainEvent(NewQuoteExpiredEvent(q))

	return nil
}

// IsAccepted reports whether the quote was accepted
func (q *Quote) IsAccepted() bool {
	return q.Status == QuoteStatusAccepted
}

// GetTotalEstimateMoney returns the estimate as Money
func (q *Quote) GetTotalEstimateMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(q.TotalEstimate)
}
