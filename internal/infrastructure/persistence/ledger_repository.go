package persistence

import (
	"context"
	"time"

	"github.com/billing/backend/internal/domain/accounting"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const ledgerScanBatchSize = 500

// GormLedgerRepository implements accounting.LedgerRepository using GORM.
// The ledger is append-only: this type exposes no update or delete path,
// and none exists anywhere else in the codebase.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// AppendGroup commits a validated transaction group. The idempotency marker
// and the entries are inserted in one database transaction; the unique index
// on (tenant_id, source_type, source_id, event_key) converts a concurrent
// duplicate into a constraint violation, which surfaces as ErrAlreadyPosted
// with nothing persisted. The balance invariant is re-checked at commit
// time so no caller can bypass it.
func (r *GormLedgerRepository) AppendGroup(ctx context.Context, group *accounting.TransactionGroup) error {
	if err := group.Validate(); err != nil {
		return err
	}

	now := time.Now()
	posting := accounting.NewLedgerPosting(group, now)
	entries := group.Entries(now)

	return dbFromContext(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(posting).Error; err != nil {
			if isUniqueViolation(err) {
				return accounting.ErrAlreadyPosted
			}
			return err
		}
		return tx.Create(&entries).Error
	})
}

// QueryEntries returns entries matching the filter ordered by creation time
func (r *GormLedgerRepository) QueryEntries(ctx context.Context, tenantID uuid.UUID, filter accounting.EntryFilter) ([]accounting.LedgerEntry, error) {
	var entries []accounting.LedgerEntry
	query := r.applyFilter(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&accounting.LedgerEntry{}).
			Where("ledger_entries.tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Order("ledger_entries.created_at ASC, ledger_entries.id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ForEachEntry streams entries in stable batches. The iteration order is the
// same as QueryEntries; fn returning an error stops the scan.
func (r *GormLedgerRepository) ForEachEntry(ctx context.Context, tenantID uuid.UUID, filter accounting.EntryFilter, fn func(accounting.LedgerEntry) error) error {
	query := r.applyFilter(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&accounting.LedgerEntry{}).
			Where("ledger_entries.tenant_id = ?", tenantID),
		filter,
	)

	var batch []accounting.LedgerEntry
	return query.Order("ledger_entries.created_at ASC, ledger_entries.id ASC").
		FindInBatches(&batch, ledgerScanBatchSize, func(tx *gorm.DB, _ int) error {
			for _, entry := range batch {
				if err := fn(entry); err != nil {
					return err
				}
			}
			return nil
		}).Error
}

// HasPosting reports whether a posting marker exists for the source
// document and event key.
func (r *GormLedgerRepository) HasPosting(ctx context.Context, tenantID uuid.UUID, sourceType accounting.SourceType, sourceID uuid.UUID, eventKey string) (bool, error) {
	var count int64
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&accounting.LedgerPosting{}).
		Where("tenant_id = ? AND source_type = ? AND source_id = ? AND event_key = ?",
			tenantID, sourceType, sourceID, eventKey).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsForCategory reports whether any entry references the category
func (r *GormLedgerRepository) ExistsForCategory(ctx context.Context, tenantID, categoryID uuid.UUID) (bool, error) {
	var count int64
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&accounting.LedgerEntry{}).
		Where("tenant_id = ? AND category_id = ?", tenantID, categoryID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter narrows an entry query by date range, category type, and
// source type. Category type requires a join against categories.
func (r *GormLedgerRepository) applyFilter(query *gorm.DB, filter accounting.EntryFilter) *gorm.DB {
	if filter.DateRange.From != nil {
		query = query.Where("ledger_entries.created_at >= ?", *filter.DateRange.From)
	}
	if filter.DateRange.To != nil {
		query = query.Where("ledger_entries.created_at < ?", *filter.DateRange.To)
	}
	if filter.SourceType != nil {
		query = query.Where("ledger_entries.source_type = ?", *filter.SourceType)
	}
	if filter.CategoryType != nil {
		query = query.
			Joins("JOIN categories ON categories.id = ledger_entries.category_id").
			Where("categories.type = ?", *filter.CategoryType)
	}
	return query
}

// Ensure GormLedgerRepository implements LedgerRepository
var _ accounting.LedgerRepository = (*GormLedgerRepository)(nil)
