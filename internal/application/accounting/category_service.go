package accounting

import (
	"context"
	"time"

	"github.com/billing/backend/internal/domain/accounting"
	"github.com/google/uuid"
)

// CategoryService provides application-level category tree operations
type CategoryService struct {
	categoryRepo accounting.CategoryRepository
	ledgerRepo   accounting.LedgerRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(
	categoryRepo accounting.CategoryRepository,
	ledgerRepo accounting.LedgerRepository,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		ledgerRepo:   ledgerRepo,
	}
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Version   int        `json:"version"`
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name     string     `json:"name" binding:"required,max=100"`
	Type     string     `json:"type" binding:"required,oneof=INCOME EXPENSE ASSET LIABILITY"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// UpdateCategoryRequest represents a request to rename or re-parent a category
type UpdateCategoryRequest struct {
	Name     *string    `json:"name,omitempty" binding:"omitempty,max=100"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

func toCategoryResponse(c *accounting.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:        c.ID,
		TenantID:  c.TenantID,
		Name:      c.Name,
		Type:      c.Type.String(),
		ParentID:  c.ParentID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Version:   c.GetVersion(),
	}
}

// CreateCategory creates a new category, validating the parent's type
func (s *CategoryService) CreateCategory(ctx context.Context, tenantID uuid.UUID, req CreateCategoryRequest) (*CategoryResponse, error) {
	accountType := accounting.AccountType(req.Type)
	if !accountType.IsValid() {
		return nil, accounting.ErrInvalidCategoryType
	}

	var parent *accounting.Category
	if req.ParentID != nil {
		var err error
		parent, err = s.categoryRepo.FindByIDForTenant(ctx, tenantID, *req.ParentID)
		if err != nil {
			return nil, err
		}
	}

	category, err := accounting.NewCategory(tenantID, req.Name, accountType, parent)
	if err != nil {
		return nil, err
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}

	return toCategoryResponse(category), nil
}

// ResolveOrCreate finds the canonical (name, type) category for a tenant,
// creating it when absent
func (s *CategoryService) ResolveOrCreate(ctx context.Context, tenantID uuid.UUID, name string, accountType accounting.AccountType) (*CategoryResponse, error) {
	if !accountType.IsValid() {
		return nil, accounting.ErrInvalidCategoryType
	}
	category, err := s.categoryRepo.FindOrCreate(ctx, tenantID, name, accountType)
	if err != nil {
		return nil, err
	}
	return toCategoryResponse(category), nil
}

// GetCategoryByID gets a category by ID
func (s *CategoryService) GetCategoryByID(ctx context.Context, tenantID, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toCategoryResponse(category), nil
}

// ListCategories lists all categories for a tenant
func (s *CategoryService) ListCategories(ctx context.Context, tenantID uuid.UUID) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	responses := make([]CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = *toCategoryResponse(&categories[i])
	}
	return responses, nil
}

// UpdateCategory renames or re-parents a category. A category that ledger
// entries reference may be renamed but not re-parented.
func (s *CategoryService) UpdateCategory(ctx context.Context, tenantID, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := category.Rename(*req.Name); err != nil {
			return nil, err
		}
	}

	if req.ParentID != nil {
		referenced, err := s.ledgerRepo.ExistsForCategory(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if referenced {
			return nil, accounting.ErrCategoryReferenced
		}

		parent, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if err := s.checkNoCycle(ctx, tenantID, id, parent); err != nil {
			return nil, err
		}
		if err := category.ChangeParent(parent); err != nil {
			return nil, err
		}
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}

	return toCategoryResponse(category), nil
}

// checkNoCycle walks the proposed parent's ancestor chain and rejects the
// change if it passes through the category being moved. The schema's FK
// alone does not prevent this.
func (s *CategoryService) checkNoCycle(ctx context.Context, tenantID, id uuid.UUID, parent *accounting.Category) error {
	seen := make(map[uuid.UUID]bool)
	current := parent
	for current != nil {
		if current.ID == id {
			return accounting.ErrCategoryCycle
		}
		if seen[current.ID] {
			return accounting.ErrCategoryCycle
		}
		seen[current.ID] = true

		if current.ParentID == nil {
			return nil
		}
		next, err := s.categoryRepo.FindByIDForTenant(ctx, tenantID, *current.ParentID)
		if err != nil {
			return err
		}
		current = next
	}
	return nil
}
