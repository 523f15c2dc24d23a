package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormQuoteRepository implements billing.QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindByIDForTenant finds a quote by ID within a tenant
func (r *GormQuoteRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Quote, error) {
	var quote billing.Quote
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&quote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}

// FindByQuoteNumber finds a quote by quote number for a tenant
func (r *GormQuoteRepository) FindByQuoteNumber(ctx context.Context, tenantID uuid.UUID, quoteNumber string) (*billing.Quote, error) {
	var quote billing.Quote
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND quote_number = ?", tenantID, quoteNumber).
		First(&quote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}

// FindAllForTenant finds all quotes for a tenant with filtering
func (r *GormQuoteRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Quote, error) {
	var quotes []billing.Quote
	query := applyListFilter(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&billing.Quote{}).
			Where("tenant_id = ?", tenantID),
		filter,
		quoteFilterColumns,
		QuoteSortFields,
	)

	if err := query.Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

// FindByStatus finds quotes by status for a tenant
func (r *GormQuoteRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status billing.QuoteStatus, filter shared.Filter) ([]billing.Quote, error) {
	var quotes []billing.Quote
	query := applyListFilter(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&billing.Quote{}).
			Where("tenant_id = ? AND status = ?", tenantID, status),
		filter,
		quoteFilterColumns,
		QuoteSortFields,
	)

	if err := query.Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

// FindExpirable finds SENT quotes whose expiry date has passed
func (r *GormQuoteRepository) FindExpirable(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Quote, error) {
	var quotes []billing.Quote
	query := applyListFilter(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&billing.Quote{}).
			Where("tenant_id = ? AND status = ? AND expires_at <= ?",
				tenantID, billing.QuoteStatusSent, time.Now()),
		filter,
		quoteFilterColumns,
		QuoteSortFields,
	)

	if err := query.Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

// Save creates or updates a quote
func (r *GormQuoteRepository) Save(ctx context.Context, quote *billing.Quote) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(quote).Error
}

// SaveWithLock saves with optimistic locking. The domain layer has already
// incremented the aggregate's version.
func (r *GormQuoteRepository) SaveWithLock(ctx context.Context, quote *billing.Quote) error {
	expectedVersion := quote.Version - 1
	quote.UpdatedAt = time.Now()

	return dbFromContext(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&billing.Quote{}).
			Where("id = ? AND tenant_id = ? AND version = ?", quote.ID, quote.TenantID, expectedVersion).
			Updates(map[string]interface{}{
				"customer_id":    quote.CustomerID,
				"order_id":       quote.OrderID,
				"total_estimate": quote.TotalEstimate,
				"expires_at":     quote.ExpiresAt,
				"status":         quote.Status,
				"sent_at":        quote.SentAt,
				"decided_at":     quote.DecidedAt,
				"version":        quote.Version,
				"updated_at":     quote.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return concurrencyConflict(tx, &billing.Quote{}, quote.ID)
		}
		return nil
	})
}

// CountByStatus counts quotes by status for a tenant
func (r *GormQuoteRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status billing.QuoteStatus) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&billing.Quote{}).
		Where("tenant_id = ? AND status = ?", tenantID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// quoteFilterColumns whitelists filterable columns for quote listings
var quoteFilterColumns = map[string]string{
	"customer_id": "customer_id",
	"order_id":    "order_id",
}

// Ensure GormQuoteRepository implements QuoteRepository
var _ billing.QuoteRepository = (*GormQuoteRepository)(nil)
