package accounting

import (
	"context"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EntryFilter narrows ledger entry queries
type EntryFilter struct {
	DateRange    shared.DateRange
	CategoryType *AccountType
	SourceType   *SourceType
}

// CategoryRepository defines persistence operations for the category tree
type CategoryRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Category, error)
	FindByName(ctx context.Context, tenantID uuid.UUID, name string, accountType AccountType) (*Category, error)
	// FindOrCreate resolves the canonical (tenant, name, type) category,
	// creating it when absent. Creation is idempotent under concurrency.
	FindOrCreate(ctx context.Context, tenantID uuid.UUID, name string, accountType AccountType) (*Category, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Category, error)
	Save(ctx context.Context, category *Category) error
}

// LedgerRepository is the append-only store for ledger entries. There is
// deliberately no update or delete operation: this is the invariant that
// keeps the ledger auditable.
type LedgerRepository interface {
	// AppendGroup commits a validated transaction group and its idempotency
	// marker in one database transaction. A duplicate (source, event key)
	// yields ErrAlreadyPosted with nothing persisted.
	AppendGroup(ctx context.Context, group *TransactionGroup) error

	// QueryEntries returns entries matching the filter ordered by creation
	// time. Read-only, snapshot-consistent.
	QueryEntries(ctx context.Context, tenantID uuid.UUID, filter EntryFilter) ([]LedgerEntry, error)

	// ForEachEntry streams entries in stable batches so large ranges do not
	// need to fit in memory. The scan stops on the first callback error.
	ForEachEntry(ctx context.Context, tenantID uuid.UUID, filter EntryFilter, fn func(LedgerEntry) error) error

	// HasPosting reports whether a posting marker exists for the source
	// document and event key.
	HasPosting(ctx context.Context, tenantID uuid.UUID, sourceType SourceType, sourceID uuid.UUID, eventKey string) (bool, error)

	// ExistsForCategory reports whether any entry references the category.
	// Categories referenced by entries may not be restructured.
	ExistsForCategory(ctx context.Context, tenantID, categoryID uuid.UUID) (bool, error)
}
