// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReceivablesMetricsProvider implements ReceivablesMetricsProvider using
// GORM. It queries the invoices table directly for aggregated metrics.
type GormReceivablesMetricsProvider struct {
	db *gorm.DB
}

// NewGormReceivablesMetricsProvider creates a new GormReceivablesMetricsProvider.
func NewGormReceivablesMetricsProvider(db *gorm.DB) *GormReceivablesMetricsProvider {
	return &GormReceivablesMetricsProvider{db: db}
}

// GetOutstandingReceivables returns the total of issued but unpaid invoice
// amounts for a tenant.
func (p *GormReceivablesMetricsProvider) GetOutstandingReceivables(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	type result struct {
		Total decimal.Decimal `gorm:"column:total"`
	}

	var r result
	err := p.db.WithContext(ctx).
		Table("invoices").
		Select("COALESCE(SUM(total_amount), 0) as total").
		Where("tenant_id = ? AND status = ?", tenantID, "ISSUED").
		Scan(&r).Error

	if err != nil {
		return decimal.Zero, err
	}

	return r.Total, nil
}

// GetOpenInvoiceCount returns the number of issued but unpaid invoices for a
// tenant.
func (p *GormReceivablesMetricsProvider) GetOpenInvoiceCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("invoices").
		Where("tenant_id = ? AND status = ?", tenantID, "ISSUED").
		Count(&count).Error

	return count, err
}

// GormTenantProvider implements TenantProvider using GORM. Tenants are derived
// from the set of tenant IDs that own invoices, since this system carries no
// separate tenant registry.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns all tenant IDs with at least one invoice.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("invoices").
		Distinct("tenant_id").
		Find(&ids).Error

	return ids, err
}
