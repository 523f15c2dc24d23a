package accounting

import (
	"context"
	"time"

	"github.com/billing/backend/internal/domain/accounting"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerService provides read access to committed ledger entries. There is
// no corresponding write service outside the posting engine.
type LedgerService struct {
	ledgerRepo accounting.LedgerRepository
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(ledgerRepo accounting.LedgerRepository) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo}
}

// LedgerEntryResponse represents a ledger entry in API responses
type LedgerEntryResponse struct {
	ID                 uuid.UUID       `json:"id"`
	TenantID           uuid.UUID       `json:"tenant_id"`
	Debit              decimal.Decimal `json:"debit"`
	Credit             decimal.Decimal `json:"credit"`
	CategoryID         uuid.UUID       `json:"category_id"`
	SourceType         string          `json:"source_type"`
	SourceID           uuid.UUID       `json:"source_id"`
	TransactionGroupID uuid.UUID       `json:"transaction_group_id"`
	Description        string          `json:"description"`
	CreatedAt          time.Time       `json:"created_at"`
}

// EntryListFilter defines filtering options for ledger entry queries
type EntryListFilter struct {
	FromDate     *time.Time `form:"from_date"`
	ToDate       *time.Time `form:"to_date"`
	CategoryType string     `form:"category_type"`
	SourceType   string     `form:"source_type"`
}

func toLedgerEntryResponse(e *accounting.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:                 e.ID,
		TenantID:           e.TenantID,
		Debit:              e.Debit,
		Credit:             e.Credit,
		CategoryID:         e.CategoryID,
		SourceType:         e.SourceType.String(),
		SourceID:           e.SourceID,
		TransactionGroupID: e.TransactionGroupID,
		Description:        e.Description,
		CreatedAt:          e.CreatedAt,
	}
}

// ListEntries returns entries matching the filter ordered by creation time
func (s *LedgerService) ListEntries(ctx context.Context, tenantID uuid.UUID, filter EntryListFilter) ([]LedgerEntryResponse, error) {
	entryFilter := accounting.EntryFilter{
		DateRange: shared.DateRange{From: filter.FromDate, To: filter.ToDate},
	}

	if filter.CategoryType != "" {
		accountType := accounting.AccountType(filter.CategoryType)
		if !accountType.IsValid() {
			return nil, accounting.ErrInvalidCategoryType
		}
		entryFilter.CategoryType = &accountType
	}
	if filter.SourceType != "" {
		sourceType := accounting.SourceType(filter.SourceType)
		if !sourceType.IsValid() {
			return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Unknown source type")
		}
		entryFilter.SourceType = &sourceType
	}

	entries, err := s.ledgerRepo.QueryEntries(ctx, tenantID, entryFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		responses[i] = toLedgerEntryResponse(&entries[i])
	}
	return responses, nil
}
