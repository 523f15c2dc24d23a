package handler

import (
	accountingapp "github.com/billing/backend/internal/application/accounting"
	"github.com/billing/backend/internal/domain/accounting"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerHandler handles ledger query and manual posting endpoints
type LedgerHandler struct {
	BaseHandler
	ledgerService  *accountingapp.LedgerService
	postingService *accountingapp.PostingService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *accountingapp.LedgerService, postingService *accountingapp.PostingService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:  ledgerService,
		postingService: postingService,
	}
}

// PostExpenseRequest represents a request to record a simple expense
type PostExpenseRequest struct {
	CategoryName string          `json:"category_name" binding:"required,max=100"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Description  string          `json:"description" binding:"max=500"`
}

// AdjustmentEntryRequest represents one side of a manual adjustment
type AdjustmentEntryRequest struct {
	CategoryID  uuid.UUID       `json:"category_id" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description" binding:"max=500"`
}

// PostAdjustmentRequest represents a balanced manual correction group
type PostAdjustmentRequest struct {
	Entries []AdjustmentEntryRequest `json:"entries" binding:"required,min=2"`
}

// PostingResponse carries the ID of a newly written transaction group
type PostingResponse struct {
	TransactionGroupID uuid.UUID `json:"transaction_group_id"`
}

// ListEntries godoc
// @Summary      List ledger entries
// @Description  Retrieve ledger entries in stable posting order, optionally filtered by date range, category type, or source type
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        from_date query string false "Inclusive lower bound (RFC 3339)"
// @Param        to_date query string false "Exclusive upper bound (RFC 3339)"
// @Param        category_type query string false "Account type filter" Enums(INCOME, EXPENSE, ASSET, LIABILITY)
// @Param        source_type query string false "Source type filter" Enums(INVOICE, ORDER, QUOTE, PAYMENT, ADJUSTMENT, EXPENSE)
// @Success      200 {object} dto.Response{data=[]accountingapp.LedgerEntryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /accounting/entries [get]
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter accountingapp.EntryListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	entries, err := h.ledgerService.ListEntries(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// PostExpense godoc
// @Summary      Record an expense
// @Description  Record a simple expense against a named expense category, creating the category on first use
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        request body PostExpenseRequest true "Expense posting request"
// @Success      201 {object} dto.Response{data=PostingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /accounting/expenses [post]
func (h *LedgerHandler) PostExpense(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req PostExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	groupID, err := h.postingService.PostExpense(c.Request.Context(), tenantID, req.CategoryName, req.Amount, req.Description)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, PostingResponse{TransactionGroupID: groupID})
}

// PostAdjustment godoc
// @Summary      Record a manual adjustment
// @Description  Record a balanced manual correction group. Debits must equal credits; the group is rejected otherwise.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        request body PostAdjustmentRequest true "Adjustment posting request"
// @Success      201 {object} dto.Response{data=PostingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /accounting/adjustments [post]
func (h *LedgerHandler) PostAdjustment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req PostAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	drafts := make([]accounting.EntryDraft, len(req.Entries))
	for i, e := range req.Entries {
		drafts[i] = accounting.EntryDraft{
			Debit:       e.Debit,
			Credit:      e.Credit,
			CategoryID:  e.CategoryID,
			Description: e.Description,
		}
	}

	groupID, err := h.postingService.PostAdjustment(c.Request.Context(), tenantID, drafts)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, PostingResponse{TransactionGroupID: groupID})
}
