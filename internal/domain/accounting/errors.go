package accounting

import "github.com/billing/backend/internal/domain/shared"

// Accounting error taxonomy. All of these are synchronous validation
// failures returned to the caller before anything is persisted; none are
// retried automatically.
var (
	// ErrInvalidCategoryType is returned when a category's type does not
	// match its parent's type, or an unknown type is supplied.
	ErrInvalidCategoryType = shared.NewDomainError("INVALID_CATEGORY_TYPE", "Category type does not match parent category type")

	// ErrCategoryCycle is returned when re-parenting would make a category
	// its own ancestor.
	ErrCategoryCycle = shared.NewDomainError("CATEGORY_CYCLE", "Category cannot be a descendant of itself")

	// ErrCategoryReferenced is returned when changing the type or parent of
	// a category that ledger entries already reference.
	ErrCategoryReferenced = shared.NewDomainError("CATEGORY_REFERENCED", "Category is referenced by ledger entries and cannot be restructured")

	// ErrUnbalancedTransaction is returned when the debit and credit sums of
	// a transaction group differ. This is always a programming error in the
	// posting engine, never user input, and is never silently corrected.
	ErrUnbalancedTransaction = shared.NewDomainError("UNBALANCED_TRANSACTION", "Transaction group debits do not equal credits")

	// ErrEmptyTransactionGroup is returned when a commit is attempted with
	// no entry drafts.
	ErrEmptyTransactionGroup = shared.NewDomainError("EMPTY_TRANSACTION_GROUP", "Transaction group must contain at least one entry")

	// ErrAlreadyPosted is returned when a posting for the same source
	// document and event has already been committed.
	ErrAlreadyPosted = shared.NewDomainError("ALREADY_POSTED", "A posting for this source document and event already exists")

	// ErrInvalidAmount is returned when a posting amount is zero or negative
	ErrInvalidAmount = shared.NewDomainError("INVALID_AMOUNT", "Posting amount must be positive")
)
