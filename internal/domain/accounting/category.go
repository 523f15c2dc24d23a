package accounting

import (
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountType classifies a chart-of-accounts node
type AccountType string

const (
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
)

// IsValid checks if the type is a valid AccountType
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeIncome, AccountTypeExpense, AccountTypeAsset, AccountTypeLiability:
		return true
	}
	return false
}

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}

// Side identifies which side of an entry increases an account
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// NormalSide returns the side on which accounts of this type increase.
// Assets and expenses are debit-normal; income and liabilities are
// credit-normal.
func (t AccountType) NormalSide() Side {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Canonical category names the posting engine resolves on demand
const (
	CategoryAccountsReceivable = "Accounts Receivable"
	CategorySalesRevenue       = "Sales Revenue"
	CategoryTaxPayable         = "Tax Payable"
	CategoryCash               = "Cash"
)

// Category is a chart-of-accounts node. Categories form a forest per
// tenant; a child always has the same account type as its parent.
type Category struct {
	shared.TenantAggregateRoot
	Name     string      `gorm:"type:varchar(200);not null;uniqueIndex:idx_categories_tenant_name_type,priority:2"`
	Type     AccountType `gorm:"type:varchar(20);not null;uniqueIndex:idx_categories_tenant_name_type,priority:3;index"`
	ParentID *uuid.UUID  `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new category. When parent is non-nil the new
// category is attached under it and must share its account type.
func NewCategory(tenantID uuid.UUID, name string, accountType AccountType, parent *Category) (*Category, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name cannot exceed 200 characters")
	}
	if !accountType.IsValid() {
		return nil, ErrInvalidCategoryType
	}

	c := &Category{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Type:                accountType,
	}

	if parent != nil {
		if parent.TenantID != tenantID {
			return nil, shared.ErrNotFound
		}
		if parent.Type != accountType {
			return nil, ErrInvalidCategoryType
		}
		c.ParentID = &parent.ID
	}

	c.AddDomainEvent(NewCategoryCreatedEvent(c))

	return c, nil
}

// IsRoot reports whether the category has no parent
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// ChangeParent moves the category under a new parent. The caller is
// responsible for the descendant check (see CategoryService) and for
// ensuring the category is not yet referenced by ledger entries.
func (c *Category) ChangeParent(parent *Category) error {
	if parent == nil {
		c.ParentID = nil
	} else {
		if parent.TenantID != c.TenantID {
			return shared.ErrNotFound
		}
		if parent.ID == c.ID {
			return ErrCategoryCycle
		}
		if parent.Type != c.Type {
			return ErrInvalidCategoryType
		}
		c.ParentID = &parent.ID
	}
	c.Touch()
	c.IncrementVersion()
	return nil
}

// Rename changes the display name of the category
func (c *Category) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name cannot be empty")
	}
	c.Name = name
	c.Touch()
	c.IncrementVersion()
	return nil
}
