package persistence

import (
	"context"
	"errors"

	"github.com/billing/backend/internal/domain/accounting"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCategoryRepository implements accounting.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByIDForTenant finds a category by ID within a tenant
func (r *GormCategoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*accounting.Category, error) {
	var category accounting.Category
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

// FindByName finds the category with the given name and account type
func (r *GormCategoryRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string, accountType accounting.AccountType) (*accounting.Category, error) {
	var category accounting.Category
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ? AND name = ? AND type = ?", tenantID, name, accountType).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

// FindOrCreate resolves the canonical (tenant, name, type) category,
// creating it when absent. Two callers racing on the same name both end up
// with the same row: the unique index on (tenant_id, name, type) turns the
// losing insert into a re-read.
func (r *GormCategoryRepository) FindOrCreate(ctx context.Context, tenantID uuid.UUID, name string, accountType accounting.AccountType) (*accounting.Category, error) {
	existing, err := r.FindByName(ctx, tenantID, name, accountType)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	category, err := accounting.NewCategory(tenantID, name, accountType, nil)
	if err != nil {
		return nil, err
	}

	createErr := dbFromContext(ctx, r.db).WithContext(ctx).Create(category).Error
	if createErr == nil {
		return category, nil
	}

	if isUniqueViolation(createErr) {
		// Lost the race: the row exists now
		return r.FindByName(ctx, tenantID, name, accountType)
	}
	return nil, createErr
}

// FindAllForTenant returns all categories for a tenant ordered by name
func (r *GormCategoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]accounting.Category, error) {
	var categories []accounting.Category
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("type ASC, name ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *accounting.Category) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(category).Error
}

// Ensure GormCategoryRepository implements CategoryRepository
var _ accounting.CategoryRepository = (*GormCategoryRepository)(nil)
