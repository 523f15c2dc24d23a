package billing

import (
	"context"
	"time"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerPoster is the posting engine as seen from the invoice lifecycle.
// Both calls happen inside the same transaction as the status change so the
// transition and its ledger entries commit or roll back together.
type LedgerPoster interface {
	PostInvoiceIssued(ctx context.Context, inv *billing.Invoice) error
	PostInvoicePaid(ctx context.Context, inv *billing.Invoice) error
}

// InvoiceService provides application-level invoice operations
type InvoiceService struct {
	invoiceRepo billing.InvoiceRepository
	orderRepo   billing.OrderRepository
	poster      LedgerPoster
	tx          shared.TransactionManager
	logger      *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	orderRepo billing.OrderRepository,
	poster LedgerPoster,
	tx shared.TransactionManager,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		orderRepo:   orderRepo,
		poster:      poster,
		tx:          tx,
		logger:      logger,
	}
}

// InvoiceLineResponse represents an invoice line in API responses
type InvoiceLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	LineTotal   decimal.Decimal `json:"line_total"`
	LineTax     decimal.Decimal `json:"line_tax"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                 uuid.UUID             `json:"id"`
	TenantID           uuid.UUID             `json:"tenant_id"`
	InvoiceNumber      string                `json:"invoice_number"`
	CustomerID         uuid.UUID             `json:"customer_id"`
	OrderID            *uuid.UUID            `json:"order_id,omitempty"`
	Lines              []InvoiceLineResponse `json:"lines"`
	NetAmount          decimal.Decimal       `json:"net_amount"`
	TaxAmount          decimal.Decimal       `json:"tax_amount"`
	TotalAmount        decimal.Decimal       `json:"total_amount"`
	Language           string                `json:"language"`
	GovernmentTemplate string                `json:"government_template,omitempty"`
	Status             string                `json:"status"`
	IssuedAt           *time.Time            `json:"issued_at,omitempty"`
	PaidAt             *time.Time            `json:"paid_at,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
	Version            int                   `json:"version"`
}

// CreateInvoiceRequest represents a request to create a draft invoice.
// When OrderID is set the order's cart lines are snapshotted onto the
// invoice and Lines must be empty.
type CreateInvoiceRequest struct {
	InvoiceNumber      string               `json:"invoice_number" binding:"required,max=50"`
	CustomerID         uuid.UUID            `json:"customer_id"`
	OrderID            *uuid.UUID           `json:"order_id,omitempty"`
	Language           string               `json:"language"`
	GovernmentTemplate string               `json:"government_template"`
	Lines              []InvoiceLineRequest `json:"lines"`
}

// InvoiceLineRequest represents one billed line in a create/add request
type InvoiceLineRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required,max=200"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	Status     string     `form:"status"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

func toInvoiceResponse(inv *billing.Invoice) *InvoiceResponse {
	lines := make([]InvoiceLineResponse, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = InvoiceLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
			LineTotal:   l.LineTotal,
			LineTax:     l.LineTax,
		}
	}
	return &InvoiceResponse{
		ID:                 inv.ID,
		TenantID:           inv.TenantID,
		InvoiceNumber:      inv.InvoiceNumber,
		CustomerID:         inv.CustomerID,
		OrderID:            inv.OrderID,
		Lines:              lines,
		NetAmount:          inv.NetAmount,
		TaxAmount:          inv.TaxAmount,
		TotalAmount:        inv.TotalAmount,
		Language:           inv.Language,
		GovernmentTemplate: inv.GovernmentTemplate,
		Status:             inv.Status.String(),
		IssuedAt:           inv.IssuedAt,
		PaidAt:             inv.PaidAt,
		CreatedAt:          inv.CreatedAt,
		UpdatedAt:          inv.UpdatedAt,
		Version:            inv.GetVersion(),
	}
}

// CreateInvoice creates a new draft invoice, either from scratch or by
// snapshotting an order cart
func (s *InvoiceService) CreateInvoice(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	var inv *billing.Invoice
	var err error

	if req.OrderID != nil {
		if len(req.Lines) > 0 {
			return nil, shared.NewDomainError("INVALID_INPUT", "Lines cannot be combined with an order reference")
		}
		order, ferr := s.orderRepo.FindByIDForTenant(ctx, tenantID, *req.OrderID)
		if ferr != nil {
			return nil, ferr
		}
		inv, err = billing.NewInvoiceFromOrder(tenantID, req.InvoiceNumber, order, req.Language, req.GovernmentTemplate)
	} else {
		if req.CustomerID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID is required without an order reference")
		}
		inv, err = billing.NewInvoice(tenantID, req.InvoiceNumber, req.CustomerID, req.Language, req.GovernmentTemplate)
		if err == nil {
			for _, l := range req.Lines {
				if _, lerr := inv.AddLine(l.ProductID, l.ProductName, l.Quantity, l.TaxRate, valueobject.NewMoneyUSD(l.UnitPrice)); lerr != nil {
					return nil, lerr
				}
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// GetInvoiceByID gets an invoice by ID
func (s *InvoiceService) GetInvoiceByID(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// ListInvoices lists invoices for a tenant
func (s *InvoiceService) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, error) {
	pageFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		pageFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		pageFilter.PageSize = filter.PageSize
	}

	var invoices []billing.Invoice
	var err error
	switch {
	case filter.Status != "":
		status := billing.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown invoice status")
		}
		invoices, err = s.invoiceRepo.FindByStatus(ctx, tenantID, status, pageFilter)
	case filter.CustomerID != nil:
		invoices, err = s.invoiceRepo.FindByCustomer(ctx, tenantID, *filter.CustomerID, pageFilter)
	default:
		invoices, err = s.invoiceRepo.FindAllForTenant(ctx, tenantID, pageFilter)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = *toInvoiceResponse(&invoices[i])
	}
	return responses, nil
}

// AddInvoiceLine appends a billed line to a draft invoice
func (s *InvoiceService) AddInvoiceLine(ctx context.Context, tenantID, invoiceID uuid.UUID, req InvoiceLineRequest) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	if _, err := inv.AddLine(req.ProductID, req.ProductName, req.Quantity, req.TaxRate, valueobject.NewMoneyUSD(req.UnitPrice)); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// RemoveInvoiceLine removes a billed line from a draft invoice
func (s *InvoiceService) RemoveInvoiceLine(ctx context.Context, tenantID, invoiceID, lineID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := inv.RemoveLine(lineID); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// IssueInvoice transitions a draft invoice to ISSUED and posts its ledger
// entries. The status change and the posting are one atomic unit: if the
// posting fails the invoice stays DRAFT.
func (s *InvoiceService) IssueInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	var inv *billing.Invoice
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		inv, err = s.invoiceRepo.FindByIDForTenant(txCtx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if err := inv.Issue(); err != nil {
			return err
		}
		if err := s.poster.PostInvoiceIssued(txCtx, inv); err != nil {
			return err
		}
		return s.invoiceRepo.SaveWithLock(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice issued",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("total_amount", inv.TotalAmount.String()),
	)
	return toInvoiceResponse(inv), nil
}

// MarkInvoicePaid transitions an issued invoice to PAID and posts the cash
// receipt under the same atomicity rule as IssueInvoice
func (s *InvoiceService) MarkInvoicePaid(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	var inv *billing.Invoice
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		inv, err = s.invoiceRepo.FindByIDForTenant(txCtx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if err := inv.MarkPaid(); err != nil {
			return err
		}
		if err := s.poster.PostInvoicePaid(txCtx, inv); err != nil {
			return err
		}
		return s.invoiceRepo.SaveWithLock(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice paid",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("total_amount", inv.TotalAmount.String()),
	)
	return toInvoiceResponse(inv), nil
}
