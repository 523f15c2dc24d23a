package billing

import (
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeQuote = "Quote"

// Event type constants
const (
	EventTypeQuoteCreated  = "QuoteCreated"
	EventTypeQuoteSent     = "QuoteSent"
	EventTypeQuoteAccepted = "QuoteAccepted"
	EventTypeQuoteRejected = "QuoteRejected"
	EventTypeQuoteExpired  = "QuoteExpired"
)

// QuoteCreatedEvent is raised when a new quote is created
type QuoteCreatedEvent struct {
	shared.BaseDomainEvent
	QuoteID       uuid.UUID       `json:"quote_id"`
	QuoteNumber   string          `json:"quote_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	TotalEstimate decimal.Decimal `json:"total_estimate"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

// NewQuoteCreatedEvent creates a new QuoteCreatedEvent
func NewQuoteCreatedEvent(q *Quote) *QuoteCreatedEvent {
	return &QuoteCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteCreated, AggregateTypeQuote, q.ID, q.TenantID),
		QuoteID:         q.ID,
		QuoteNumber:     q.QuoteNumber,
		CustomerID:      q.CustomerID,
		TotalEstimate:   q.TotalEstimate,
		ExpiresAt:       q.ExpiresAt,
	}
}

// EventType returns the event type name
func (e *QuoteCreatedEvent) EventType() string {
	return EventTypeQuoteCreated
}

// QuoteSentEvent is raised when a quote is sent to the customer
type QuoteSentEvent struct {
	shared.BaseDomainEvent
	QuoteID     uuid.UUID `json:"quote_id"`
	QuoteNumber string    `json:"quote_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
}

// NewQuoteSentEvent creates a new QuoteSentEvent
func NewQuoteSentEvent(q *Quote) *QuoteSentEvent {
	return &QuoteSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteSent, AggregateTypeQuote, q.ID, q.TenantID),
		QuoteID:         q.ID,
		QuoteNumber:     q.QuoteNumber,
		CustomerID:      q.CustomerID,
	}
}

// EventType returns the event type name
func (e *QuoteSentEvent) EventType() string {
	return EventTypeQuoteSent
}

// QuoteAcceptedEvent is raised when the customer accepts a quote. The
// application layer may convert the accepted quote's cart into an invoice.
type QuoteAcceptedEvent struct {
	shared.BaseDomainEvent
	QuoteID       uuid.UUID       `json:"quote_id"`
	QuoteNumber   string          `json:"quote_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	OrderID       *uuid.UUID      `json:"order_id,omitempty"`
	TotalEstimate decimal.Decimal `json:"total_estimate"`
}

// NewQuoteAcceptedEvent creates a new QuoteAcceptedEvent
func NewQuoteAcceptedEvent(q *Quote) *QuoteAcceptedEvent {
	return &QuoteAcceptedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteAccepted, AggregateTypeQuote, q.ID, q.TenantID),
		QuoteID:         q.ID,
		QuoteNumber:     q.QuoteNumber,
		CustomerID:      q.CustomerID,
		OrderID:         q.OrderID,
		TotalEstimate:   q.TotalEstimate,
	}
}

// EventType returns the event type name
func (e *QuoteAcceptedEvent) EventType() string {
	return EventTypeQuoteAccepted
}

// QuoteRejectedEvent is raised when the customer rejects a quote
type QuoteRejectedEvent struct {
	shared.BaseDomainEvent
	QuoteID     uuid.UUID `json:"quote_id"`
	QuoteNumber string    `json:"quote_number"`
}

// NewQuoteRejectedEvent creates a new QuoteRejectedEvent
func NewQuoteRejectedEvent(q *Quote) *QuoteRejectedEvent {
	return &QuoteRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteRejected, AggregateTypeQuote, q.ID, q.TenantID),
		QuoteID:         q.ID,
		QuoteNumber:     q.QuoteNumber,
	}
}

// EventType returns the event type name
func (e *QuoteRejectedEvent) EventType() string {
	return EventTypeQuoteRejected
}

// QuoteExpiredEvent is raised when a quote passes its expiry date
type QuoteExpiredEvent struct {
	shared.BaseDomainEvent
	QuoteID     uuid.UUID `json:"quote_id"`
	QuoteNumber string    `json:"quote_number"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewQuoteExpiredEvent creates a new QuoteExpiredEvent
func NewQuoteExpiredEvent(q *Quote) *QuoteExpiredEvent {
	return &QuoteExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteExpired, AggregateTypeQuote, q.ID, q.TenantID),
		QuoteID:         q.ID,
		QuoteNumber:     q.QuoteNumber,
		ExpiresAt:       q.ExpiresAt,
	}
}

// EventType returns the event type name
func (e *QuoteExpiredEvent) EventType() string {
	return EventTypeQuoteExpired
}
