package billing

import "github.com/billing/backend/internal/domain/shared"

var (
	// ErrInvalidTransition is returned for any document status change that
	// the state machine does not allow.
	ErrInvalidTransition = shared.NewDomainError("INVALID_TRANSITION", "Document cannot transition to the requested status")

	// ErrEmptyInvoice is returned when issuing an invoice with no lines.
	ErrEmptyInvoice = shared.NewDomainError("EMPTY_INVOICE", "Invoice cannot be issued without line items")
)
