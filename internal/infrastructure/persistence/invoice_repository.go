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

// GormInvoiceRepository implements billing.InvoiceRepository using GORM.
// Issued and paid invoices are never deleted, so no delete path exists.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForTenant finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByInvoiceNumber finds an invoice by invoice number for a tenant
func (r *GormInvoiceRepository) FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND invoice_number = ?", tenantID, invoiceNumber).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindAllForTenant finds all invoices for a tenant with filtering
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	query := applyListFilter(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&billing.Invoice{}).
			Preload("Lines").
			Where("tenant_id = ?", tenantID),
		filter,
		invoiceFilterColumns,
		InvoiceSortFields,
	)

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindByStatus finds invoices by status for a tenant
func (r *GormInvoiceRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status billing.InvoiceStatus, filter shared.Filter) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	query := applyListFilter(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&billing.Invoice{}).
			Preload("Lines").
			Where("tenant_id = ? AND status = ?", tenantID, status),
		filter,
		invoiceFilterColumns,
		InvoiceSortFields,
	)

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindByCustomer finds invoices for a customer
func (r *GormInvoiceRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	query := applyListFilter(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&billing.Invoice{}).
			Preload("Lines").
			Where("tenant_id = ? AND customer_id = ?", tenantID, customerID),
		filter,
		invoiceFilterColumns,
		InvoiceSortFields,
	)

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// Save creates or updates an invoice with its lines
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(invoice).Error; err != nil {
			return err
		}
		return syncInvoiceLines(tx, invoice)
	})
}

// SaveWithLock saves with optimistic locking. The domain layer has already
// incremented the aggregate's version, so the stored row must still hold
// the previous value. A concurrent transition loses this check and rolls
// back together with any ledger posting in the same transaction.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	expectedVersion := invoice.Version - 1

	return dbFromContext(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice.UpdatedAt = time.Now()

		result := tx.Model(&billing.Invoice{}).
			Where("id = ? AND tenant_id = ? AND version = ?", invoice.ID, invoice.TenantID, expectedVersion).
			Updates(map[string]interface{}{
				"customer_id":  invoice.CustomerID,
				"order_id":     invoice.OrderID,
				"net_amount":   invoice.NetAmount,
				"tax_amount":   invoice.TaxAmount,
				"total_amount": invoice.TotalAmount,
				"status":       invoice.Status,
				"issued_at":    invoice.IssuedAt,
				"paid_at":      invoice.PaidAt,
				"version":      invoice.Version,
				"updated_at":   invoice.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return concurrencyConflict(tx, &billing.Invoice{}, invoice.ID)
		}

		return syncInvoiceLines(tx, invoice)
	})
}

// CountByStatus counts invoices by status for a tenant
func (r *GormInvoiceRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status billing.InvoiceStatus) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&billing.Invoice{}).
		Where("tenant_id = ? AND status = ?", tenantID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// syncInvoiceLines reconciles the stored invoice lines with the
// aggregate's current lines.
func syncInvoiceLines(tx *gorm.DB, invoice *billing.Invoice) error {
	currentLineIDs := make([]uuid.UUID, len(invoice.Lines))
	for i, line := range invoice.Lines {
		currentLineIDs[i] = line.ID
	}

	if len(currentLineIDs) > 0 {
		if err := tx.Where("invoice_id = ? AND id NOT IN ?", invoice.ID, currentLineIDs).
			Delete(&billing.InvoiceLine{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("invoice_id = ?", invoice.ID).
			Delete(&billing.InvoiceLine{}).Error; err != nil {
			return err
		}
	}

	for i := range invoice.Lines {
		invoice.Lines[i].InvoiceID = invoice.ID
		if err := tx.Save(&invoice.Lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// invoiceFilterColumns whitelists filterable columns for invoice listings
var invoiceFilterColumns = map[string]string{
	"customer_id": "customer_id",
	"order_id":    "order_id",
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
