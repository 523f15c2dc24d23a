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

// GormOrderRepository implements billing.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByIDForTenant finds an order by ID within a tenant
func (r *GormOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Order, error) {
	var order billing.Order
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber finds an order by order number for a tenant
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*billing.Order, error) {
	var order billing.Order
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND order_number = ?", tenantID, orderNumber).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAllForTenant finds all orders for a tenant with filtering
func (r *GormOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Order, error) {
	var orders []billing.Order
	query := applyListFilter(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&billing.Order{}).
			Preload("Lines").
			Where("tenant_id = ?", tenantID),
		filter,
		orderFilterColumns,
		OrderSortFields,
	)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates an order with its lines
func (r *GormOrderRepository) Save(ctx context.Context, order *billing.Order) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		return syncOrderLines(tx, order)
	})
}

// SaveWithLock saves with optimistic locking. The domain layer has already
// incremented the aggregate's version, so the stored row must still hold
// the previous value.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *billing.Order) error {
	expectedVersion := order.Version - 1

	return dbFromContext(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order.UpdatedAt = time.Now()

		result := tx.Model(&billing.Order{}).
			Where("id = ? AND tenant_id = ? AND version = ?", order.ID, order.TenantID, expectedVersion).
			Updates(map[string]interface{}{
				"customer_id": order.CustomerID,
				"net_amount":  order.NetAmount,
				"tax_amount":  order.TaxAmount,
				"grand_total": order.GrandTotal,
				"version":     order.Version,
				"updated_at":  order.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return concurrencyConflict(tx, &billing.Order{}, order.ID)
		}

		return syncOrderLines(tx, order)
	})
}

// CountForTenant counts orders for a tenant
func (r *GormOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&billing.Order{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// syncOrderLines reconciles the stored order lines with the aggregate's
// current lines: removed lines are deleted, the rest upserted.
func syncOrderLines(tx *gorm.DB, order *billing.Order) error {
	currentLineIDs := make([]uuid.UUID, len(order.Lines))
	for i, line := range order.Lines {
		currentLineIDs[i] = line.ID
	}

	if len(currentLineIDs) > 0 {
		if err := tx.Where("order_id = ? AND id NOT IN ?", order.ID, currentLineIDs).
			Delete(&billing.OrderLine{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("order_id = ?", order.ID).
			Delete(&billing.OrderLine{}).Error; err != nil {
			return err
		}
	}

	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
		if err := tx.Save(&order.Lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// concurrencyConflict distinguishes a missing row from a version clash
func concurrencyConflict(tx *gorm.DB, model interface{}, id uuid.UUID) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.NewDomainError("CONCURRENT_MODIFICATION", "The record has been modified by another user")
}

// orderFilterColumns whitelists filterable columns for order listings
var orderFilterColumns = map[string]string{
	"customer_id": "customer_id",
}

// applyListFilter applies pagination, ordering, and whitelisted column
// filters to a list query.
func applyListFilter(query *gorm.DB, filter shared.Filter, columns map[string]string, sortFields map[string]bool) *gorm.DB {
	for key, value := range filter.Filters {
		if column, ok := columns[key]; ok {
			query = query.Where(column+" = ?", value)
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, sortFields, "created_at")
		query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// Ensure GormOrderRepository implements OrderRepository
var _ billing.OrderRepository = (*GormOrderRepository)(nil)
