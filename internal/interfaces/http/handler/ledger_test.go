package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	accountingapp "github.com/billing/backend/internal/application/accounting"
	"github.com/billing/backend/internal/domain/accounting"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupLedgerTestRouter() (*gin.Engine, *MockCategoryRepository, *MockLedgerRepository, *LedgerHandler) {
	mockCategories := new(MockCategoryRepository)
	mockLedger := new(MockLedgerRepository)
	ledgerService := accountingapp.NewLedgerService(mockLedger)
	postingService := accountingapp.NewPostingService(mockCategories, mockLedger, zap.NewNop())
	handler := NewLedgerHandler(ledgerService, postingService)

	router := gin.New()
	return router, mockCategories, mockLedger, handler
}

func testCategory(tenantID uuid.UUID, name string, accountType accounting.AccountType) *accounting.Category {
	cat, _ := accounting.NewCategory(tenantID, name, accountType, nil)
	return cat
}

func TestLedgerHandler_ListEntries(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns entries for the tenant", func(t *testing.T) {
		router, _, mockLedger, handler := setupLedgerTestRouter()
		router.GET("/entries", handler.ListEntries)

		entry := accounting.LedgerEntry{
			ID:                 uuid.New(),
			TenantID:           tenantID,
			Debit:              decimal.NewFromInt(100),
			Credit:             decimal.Zero,
			CategoryID:         uuid.New(),
			SourceType:         accounting.SourceTypeExpense,
			SourceID:           uuid.New(),
			TransactionGroupID: uuid.New(),
			Description:        "Office rent",
			CreatedAt:          time.Now(),
		}
		mockLedger.On("QueryEntries", mock.Anything, tenantID, mock.AnythingOfType("accounting.EntryFilter")).
			Return([]accounting.LedgerEntry{entry}, nil)

		req := httptest.NewRequest(http.MethodGet, "/entries", nil)
		req.Header.Set("X-Tenant-ID", tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data []accountingapp.LedgerEntryResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "EXPENSE", resp.Data[0].SourceType)
		assert.True(t, resp.Data[0].Debit.Equal(decimal.NewFromInt(100)))
	})

	t.Run("filters by source type", func(t *testing.T) {
		router, _, mockLedger, handler := setupLedgerTestRouter()
		router.GET("/entries", handler.ListEntries)

		mockLedger.On("QueryEntries", mock.Anything, tenantID, mock.MatchedBy(func(f accounting.EntryFilter) bool {
			return f.SourceType != nil && *f.SourceType == accounting.SourceTypeInvoice
		})).Return([]accounting.LedgerEntry{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/entries?source_type=INVOICE", nil)
		req.Header.Set("X-Tenant-ID", tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockLedger.AssertExpectations(t)
	})

	t.Run("rejects unknown category type", func(t *testing.T) {
		router, _, _, handler := setupLedgerTestRouter()
		router.GET("/entries", handler.ListEntries)

		req := httptest.NewRequest(http.MethodGet, "/entries?category_type=BOGUS", nil)
		req.Header.Set("X-Tenant-ID", tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLedgerHandler_PostExpense(t *testing.T) {
	tenantID := uuid.New()

	t.Run("records balanced expense group", func(t *testing.T) {
		router, mockCategories, mockLedger, handler := setupLedgerTestRouter()
		router.POST("/expenses", handler.PostExpense)

		rent := testCategory(tenantID, "Rent", accounting.AccountTypeExpense)
		cash := testCategory(tenantID, accounting.CategoryCash, accounting.AccountTypeAsset)
		mockCategories.On("FindOrCreate", mock.Anything, tenantID, "Rent", accounting.AccountTypeExpense).Return(rent, nil)
		mockCategories.On("FindOrCreate", mock.Anything, tenantID, accounting.CategoryCash, accounting.AccountTypeAsset).Return(cash, nil)
		mockLedger.On("AppendGroup", mock.Anything, mock.MatchedBy(func(g *accounting.TransactionGroup) bool {
			return g.SourceType == accounting.SourceTypeExpense && g.Validate() == nil
		})).Return(nil)

		body, _ := json.Marshal(PostExpenseRequest{
			CategoryName: "Rent",
			Amount:       decimal.NewFromInt(950),
			Description:  "September office rent",
		})
		req := httptest.NewRequest(http.MethodPost, "/expenses", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Data PostingResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEqual(t, uuid.Nil, resp.Data.TransactionGroupID)
		mockLedger.AssertExpectations(t)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		router, _, mockLedger, handler := setupLedgerTestRouter()
		router.POST("/expenses", handler.PostExpense)

		body, _ := json.Marshal(map[string]any{
			"category_name": "Rent",
			"amount":        "-50",
		})
		req := httptest.NewRequest(http.MethodPost, "/expenses", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockLedger.AssertNotCalled(t, "AppendGroup", mock.Anything, mock.Anything)
	})
}

func TestLedgerHandler_PostAdjustment(t *testing.T) {
	tenantID := uuid.New()

	t.Run("records balanced adjustment", func(t *testing.T) {
		router, _, mockLedger, handler := setupLedgerTestRouter()
		router.POST("/adjustments", handler.PostAdjustment)

		mockLedger.On("AppendGroup", mock.Anything, mock.MatchedBy(func(g *accounting.TransactionGroup) bool {
			return g.SourceType == accounting.SourceTypeAdjustment && len(g.Drafts) == 2
		})).Return(nil)

		body, _ := json.Marshal(PostAdjustmentRequest{
			Entries: []AdjustmentEntryRequest{
				{CategoryID: uuid.New(), Debit: decimal.NewFromInt(120), Description: "Reclass"},
				{CategoryID: uuid.New(), Credit: decimal.NewFromInt(120), Description: "Reclass"},
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/adjustments", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockLedger.AssertExpectations(t)
	})

	t.Run("surfaces unbalanced group as unprocessable", func(t *testing.T) {
		router, _, mockLedger, handler := setupLedgerTestRouter()
		router.POST("/adjustments", handler.PostAdjustment)

		mockLedger.On("AppendGroup", mock.Anything, mock.Anything).Return(accounting.ErrUnbalancedTransaction)

		body, _ := json.Marshal(PostAdjustmentRequest{
			Entries: []AdjustmentEntryRequest{
				{CategoryID: uuid.New(), Debit: decimal.NewFromInt(120)},
				{CategoryID: uuid.New(), Credit: decimal.NewFromInt(80)},
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/adjustments", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("rejects single-entry group at binding", func(t *testing.T) {
		router, _, mockLedger, handler := setupLedgerTestRouter()
		router.POST("/adjustments", handler.PostAdjustment)

		body, _ := json.Marshal(PostAdjustmentRequest{
			Entries: []AdjustmentEntryRequest{
				{CategoryID: uuid.New(), Debit: decimal.NewFromInt(120)},
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/adjustments", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockLedger.AssertNotCalled(t, "AppendGroup", mock.Anything, mock.Anything)
	})
}
