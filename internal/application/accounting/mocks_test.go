package accounting

import (
	"context"

	"github.com/billing/backend/internal/domain/accounting"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*accounting.Category, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string, accountType accounting.AccountType) (*accounting.Category, error) {
	args := m.Called(ctx, tenantID, name, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindOrCreate(ctx context.Context, tenantID uuid.UUID, name string, accountType accounting.AccountType) (*accounting.Category, error) {
	args := m.Called(ctx, tenantID, name, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]accounting.Category, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]accounting.Category), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *accounting.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) AppendGroup(ctx context.Context, group *accounting.TransactionGroup) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockLedgerRepository) QueryEntries(ctx context.Context, tenantID uuid.UUID, filter accounting.EntryFilter) ([]accounting.LedgerEntry, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]accounting.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) ForEachEntry(ctx context.Context, tenantID uuid.UUID, filter accounting.EntryFilter, fn func(accounting.LedgerEntry) error) error {
	args := m.Called(ctx, tenantID, filter, fn)
	return args.Error(0)
}

func (m *MockLedgerRepository) HasPosting(ctx context.Context, tenantID uuid.UUID, sourceType accounting.SourceType, sourceID uuid.UUID, eventKey string) (bool, error) {
	args := m.Called(ctx, tenantID, sourceType, sourceID, eventKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepository) ExistsForCategory(ctx context.Context, tenantID, categoryID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, categoryID)
	return args.Bool(0), args.Error(1)
}
