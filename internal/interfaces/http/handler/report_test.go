package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	reportapp "github.com/billing/backend/internal/application/report"
	"github.com/billing/backend/internal/domain/report"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupReportTestRouter() (*gin.Engine, *MockFinancialReportRepository, *MockStatsRepository, *ReportHandler) {
	mockFinancial := new(MockFinancialReportRepository)
	mockStats := new(MockStatsRepository)
	service := reportapp.NewReportService(mockFinancial, mockStats)
	handler := NewReportHandler(service)

	router := gin.New()
	return router, mockFinancial, mockStats, handler
}

func TestReportHandler_GetFinancialSummary(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns totals for an open range", func(t *testing.T) {
		router, mockFinancial, _, handler := setupReportTestRouter()
		router.GET("/reports/summary", handler.GetFinancialSummary)

		mockFinancial.On("GetFinancialSummary", mock.Anything, mock.MatchedBy(func(f report.ReportFilter) bool {
			return f.TenantID == tenantID && f.StartDate == nil && f.EndDate == nil
		})).Return(&report.FinancialSummary{
			TenantID:      tenantID,
			TotalIncome:   decimal.NewFromInt(5000),
			TotalExpenses: decimal.NewFromInt(1800),
			NetProfit:     decimal.NewFromInt(3200),
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/reports/summary", nil)
		req.Header.Set("X-Tenant-ID", tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data report.FinancialSummary `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.NetProfit.Equal(decimal.NewFromInt(3200)))
	})

	t.Run("widens the end date to include the full day", func(t *testing.T) {
		router, mockFinancial, _, handler := setupReportTestRouter()
		router.GET("/reports/summary", handler.GetFinancialSummary)

		expectedEnd := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
		mockFinancial.On("GetFinancialSummary", mock.Anything, mock.MatchedBy(func(f report.ReportFilter) bool {
			return f.StartDate != nil && f.EndDate != nil && f.EndDate.Equal(expectedEnd)
		})).Return(&report.FinancialSummary{TenantID: tenantID}, nil)

		req := httptest.NewRequest(http.MethodGet, "/reports/summary?start_date=2026-06-01&end_date=2026-06-30", nil)
		req.Header.Set("X-Tenant-ID", tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockFinancial.AssertExpectations(t)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		router, mockFinancial, _, handler := setupReportTestRouter()
		router.GET("/reports/summary", handler.GetFinancialSummary)

		req := httptest.NewRequest(http.MethodGet, "/reports/summary?start_date=June-1st", nil)
		req.Header.Set("X-Tenant-ID", tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockFinancial.AssertNotCalled(t, "GetFinancialSummary", mock.Anything, mock.Anything)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		router, mockFinancial, _, handler := setupReportTestRouter()
		router.GET("/reports/summary", handler.GetFinancialSummary)

		req := httptest.NewRequest(http.MethodGet, "/reports/summary?start_date=2026-06-30&end_date=2026-06-01", nil)
		req.Header.Set("X-Tenant-ID", tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockFinancial.AssertNotCalled(t, "GetFinancialSummary", mock.Anything, mock.Anything)
	})
}

func TestReportHandler_GetProfitLoss(t *testing.T) {
	tenantID := uuid.New()

	router, mockFinancial, _, handler := setupReportTestRouter()
	router.GET("/reports/profit-loss", handler.GetProfitLoss)

	mockFinancial.On("GetProfitLoss", mock.Anything, mock.Anything).Return(&report.ProfitLoss{
		TenantID: tenantID,
		IncomeByCategory: []report.CategoryAmount{
			{CategoryID: uuid.New(), CategoryName: "Sales Revenue", Amount: decimal.NewFromInt(5000)},
		},
		ExpensesByCategory: []report.CategoryAmount{
			{CategoryID: uuid.New(), CategoryName: "Rent", Amount: decimal.NewFromInt(1800)},
		},
		TotalIncome:   decimal.NewFromInt(5000),
		TotalExpenses: decimal.NewFromInt(1800),
		NetProfit:     decimal.NewFromInt(3200),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/reports/profit-loss", nil)
	req.Header.Set("X-Tenant-ID", tenantID.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data report.ProfitLoss `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.IncomeByCategory, 1)
	assert.Equal(t, "Sales Revenue", resp.Data.IncomeByCategory[0].CategoryName)
}

func TestReportHandler_GetBalanceSheet(t *testing.T) {
	tenantID := uuid.New()

	router, mockFinancial, _, handler := setupReportTestRouter()
	router.GET("/reports/balance-sheet", handler.GetBalanceSheet)

	mockFinancial.On("GetBalanceSheet", mock.Anything, mock.Anything).Return(&report.BalanceSheet{
		TenantID:         tenantID,
		TotalAssets:      decimal.NewFromInt(4200),
		TotalLiabilities: decimal.NewFromInt(950),
		NetPosition:      decimal.NewFromInt(3250),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/reports/balance-sheet", nil)
	req.Header.Set("X-Tenant-ID", tenantID.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data report.BalanceSheet `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.NetPosition.Equal(decimal.NewFromInt(3250)))
}

func TestReportHandler_GetMonthlyStats(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns one row per active month", func(t *testing.T) {
		router, _, mockStats, handler := setupReportTestRouter()
		router.GET("/reports/monthly-stats", handler.GetMonthlyStats)

		mockStats.On("GetMonthlyStats", mock.Anything, mock.MatchedBy(func(f report.StatsFilter) bool {
			return f.TenantID == tenantID
		})).Return([]report.MonthlyStats{
			{Year: 2026, Month: 6, Revenue: decimal.NewFromInt(5950), InvoiceCount: 3, CustomerCount: 2, ProductsSold: decimal.NewFromInt(14)},
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/reports/monthly-stats?start_date=2026-06-01&end_date=2026-08-31", nil)
		req.Header.Set("X-Tenant-ID", tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data []report.MonthlyStats `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, int64(3), resp.Data[0].InvoiceCount)
	})

	t.Run("requires both dates", func(t *testing.T) {
		router, _, mockStats, handler := setupReportTestRouter()
		router.GET("/reports/monthly-stats", handler.GetMonthlyStats)

		req := httptest.NewRequest(http.MethodGet, "/reports/monthly-stats?start_date=2026-06-01", nil)
		req.Header.Set("X-Tenant-ID", tenantID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockStats.AssertNotCalled(t, "GetMonthlyStats", mock.Anything, mock.Anything)
	})
}
