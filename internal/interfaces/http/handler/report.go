package handler

import (
	"errors"
	"time"

	reportapp "github.com/billing/backend/internal/application/report"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportHandler handles financial reporting API endpoints
type ReportHandler struct {
	BaseHandler
	reportService *reportapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *reportapp.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// ReportFilterRequest binds the optional date range query parameters
type ReportFilterRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// parseReportRange converts YYYY-MM-DD query dates into half-open bounds.
// The end date is widened to the following midnight so the named day is
// fully included.
func (h *ReportHandler) parseReportRange(req ReportFilterRequest) (from, to *time.Time, err error) {
	if req.StartDate != "" {
		start, perr := time.Parse("2006-01-02", req.StartDate)
		if perr != nil {
			return nil, nil, errors.New("start_date: Invalid date format, expected YYYY-MM-DD")
		}
		from = &start
	}

	if req.EndDate != "" {
		end, perr := time.Parse("2006-01-02", req.EndDate)
		if perr != nil {
			return nil, nil, errors.New("end_date: Invalid date format, expected YYYY-MM-DD")
		}
		end = end.AddDate(0, 0, 1)
		to = &end
	}

	return from, to, nil
}

// bindReportQuery resolves the tenant and date bounds shared by every
// report endpoint. On failure it writes the 400 itself and reports ok
// false, so handlers just return.
func (h *ReportHandler) bindReportQuery(c *gin.Context, rangeRequired bool) (tenantID uuid.UUID, from, to *time.Time, ok bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, nil, nil, false
	}

	var req ReportFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return uuid.Nil, nil, nil, false
	}

	if rangeRequired && (req.StartDate == "" || req.EndDate == "") {
		h.BadRequest(c, "start_date and end_date are required")
		return uuid.Nil, nil, nil, false
	}

	from, to, err = h.parseReportRange(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return uuid.Nil, nil, nil, false
	}

	return tenantID, from, to, true
}

// GetFinancialSummary godoc
// @Summary      Get financial summary
// @Description  Get per-type ledger totals and net profit, optionally bounded by a date range
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=report.FinancialSummary}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reports/summary [get]
func (h *ReportHandler) GetFinancialSummary(c *gin.Context) {
	tenantID, from, to, ok := h.bindReportQuery(c, false)
	if !ok {
		return
	}

	summary, err := h.reportService.GetFinancialSummary(c.Request.Context(), tenantID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// GetProfitLoss godoc
// @Summary      Get profit and loss report
// @Description  Get per-category income and expense totals with net profit, optionally bounded by a date range
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=report.ProfitLoss}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reports/profit-loss [get]
func (h *ReportHandler) GetProfitLoss(c *gin.Context) {
	tenantID, from, to, ok := h.bindReportQuery(c, false)
	if !ok {
		return
	}

	pl, err := h.reportService.GetProfitLoss(c.Request.Context(), tenantID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, pl)
}

// GetBalanceSheet godoc
// @Summary      Get balance sheet
// @Description  Get per-category asset and liability balances with net position, optionally bounded by a date range
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=report.BalanceSheet}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reports/balance-sheet [get]
func (h *ReportHandler) GetBalanceSheet(c *gin.Context) {
	tenantID, from, to, ok := h.bindReportQuery(c, false)
	if !ok {
		return
	}

	bs, err := h.reportService.GetBalanceSheet(c.Request.Context(), tenantID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bs)
}

// GetIncomeStatement godoc
// @Summary      Get income statement
// @Description  Get monthly income and expense breakdowns by category, optionally bounded by a date range
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=report.IncomeStatement}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reports/income-statement [get]
func (h *ReportHandler) GetIncomeStatement(c *gin.Context) {
	tenantID, from, to, ok := h.bindReportQuery(c, false)
	if !ok {
		return
	}

	statement, err := h.reportService.GetIncomeStatement(c.Request.Context(), tenantID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, statement)
}

// GetMonthlyStats godoc
// @Summary      Get monthly invoice statistics
// @Description  Get per-month revenue, invoice counts, products sold, and distinct customers from issued and paid invoices
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        start_date query string true "Start date (YYYY-MM-DD)"
// @Param        end_date query string true "End date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]report.MonthlyStats}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reports/monthly-stats [get]
func (h *ReportHandler) GetMonthlyStats(c *gin.Context) {
	tenantID, from, to, ok := h.bindReportQuery(c, true)
	if !ok {
		return
	}

	stats, err := h.reportService.GetMonthlyStats(c.Request.Context(), tenantID, *from, *to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}
