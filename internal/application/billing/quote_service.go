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

// QuoteService provides application-level quote operations. Quotes are
// estimates; nothing in this service touches the ledger.
type QuoteService struct {
	quoteRepo   billing.QuoteRepository
	orderRepo   billing.OrderRepository
	invoiceRepo billing.InvoiceRepository
	logger      *zap.Logger
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	quoteRepo billing.QuoteRepository,
	orderRepo billing.OrderRepository,
	invoiceRepo billing.InvoiceRepository,
	logger *zap.Logger,
) *QuoteService {
	return &QuoteService{
		quoteRepo:   quoteRepo,
		orderRepo:   orderRepo,
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// QuoteResponse represents a quote in API responses
type QuoteResponse struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	QuoteNumber   string          `json:"quote_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	OrderID       *uuid.UUID      `json:"order_id,omitempty"`
	TotalEstimate decimal.Decimal `json:"total_estimate"`
	ExpiresAt     time.Time       `json:"expires_at"`
	Status        string          `json:"status"`
	SentAt        *time.Time      `json:"sent_at,omitempty"`
	DecidedAt     *time.Time      `json:"decided_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// CreateQuoteRequest represents a request to create a quote
type CreateQuoteRequest struct {
	QuoteNumber   string          `json:"quote_number" binding:"required,max=50"`
	CustomerID    uuid.UUID       `json:"customer_id" binding:"required"`
	OrderID       *uuid.UUID      `json:"order_id,omitempty"`
	TotalEstimate decimal.Decimal `json:"total_estimate"`
	ExpiresAt     time.Time       `json:"expires_at" binding:"required"`
}

// QuoteListFilter defines filtering options for quote list queries
type QuoteListFilter struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ConvertQuoteRequest represents a request to turn an accepted quote into
// a draft invoice
type ConvertQuoteRequest struct {
	InvoiceNumber      string `json:"invoice_number" binding:"required,max=50"`
	Language           string `json:"language"`
	GovernmentTemplate string `json:"government_template"`
}

func toQuoteResponse(q *billing.Quote) *QuoteResponse {
	return &QuoteResponse{
		ID:            q.ID,
		TenantID:      q.TenantID,
		QuoteNumber:   q.QuoteNumber,
		CustomerID:    q.CustomerID,
		OrderID:       q.OrderID,
		TotalEstimate: q.TotalEstimate,
		ExpiresAt:     q.ExpiresAt,
		Status:        q.Status.String(),
		SentAt:        q.SentAt,
		DecidedAt:     q.DecidedAt,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
		Version:       q.GetVersion(),
	}
}

// CreateQuote creates a new quote in DRAFT status. When an order is
// referenced, its grand total becomes the estimate.
func (s *QuoteService) CreateQuote(ctx context.Context, tenantID uuid.UUID, req CreateQuoteRequest) (*QuoteResponse, error) {
	estimate := valueobject.NewMoneyUSD(req.TotalEstimate)

	quote, err := billing.NewQuote(tenantID, req.QuoteNumber, req.CustomerID, estimate, req.ExpiresAt)
	if err != nil {
		return nil, err
	}

	if req.OrderID != nil {
		order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, *req.OrderID)
		if err != nil {
			return nil, err
		}
		if err := quote.AttachOrder(order.ID, order.GetGrandTotalMoney()); err != nil {
			return nil, err
		}
	}

	if err := s.quoteRepo.Save(ctx, quote); err != nil {
		return nil, err
	}
	return toQuoteResponse(quote), nil
}

// GetQuoteByID gets a quote by ID
func (s *QuoteService) GetQuoteByID(ctx context.Context, tenantID, id uuid.UUID) (*QuoteResponse, error) {
	quote, err := s.quoteRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toQuoteResponse(quote), nil
}

// ListQuotes lists quotes for a tenant
func (s *QuoteService) ListQuotes(ctx context.Context, tenantID uuid.UUID, filter QuoteListFilter) ([]QuoteResponse, error) {
	pageFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		pageFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		pageFilter.PageSize = filter.PageSize
	}

	var quotes []billing.Quote
	var err error
	if filter.Status != "" {
		status := billing.QuoteStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown quote status")
		}
		quotes, err = s.quoteRepo.FindByStatus(ctx, tenantID, status, pageFilter)
	} else {
		quotes, err = s.quoteRepo.FindAllForTenant(ctx, tenantID, pageFilter)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]QuoteResponse, len(quotes))
	for i := range quotes {
		responses[i] = *toQuoteResponse(&quotes[i])
	}
	return responses, nil
}

// SendQuote marks a quote as sent to the customer
func (s *QuoteService) SendQuote(ctx context.Context, tenantID, id uuid.UUID) (*QuoteResponse, error) {
	return s.transition(ctx, tenantID, id, (*billing.Quote).Send)
}

// AcceptQuote marks a quote as accepted by the customer
func (s *QuoteService) AcceptQuote(ctx context.Context, tenantID, id uuid.UUID) (*QuoteResponse, error) {
	return s.transition(ctx, tenantID, id, (*billing.Quote).Accept)
}

// RejectQuote marks a quote as rejected by the customer
func (s *QuoteService) RejectQuote(ctx context.Context, tenantID, id uuid.UUID) (*QuoteResponse, error) {
	return s.transition(ctx, tenantID, id, (*billing.Quote).Reject)
}

// ExpireQuote expires a quote whose expiry date has passed
func (s *QuoteService) ExpireQuote(ctx context.Context, tenantID, id uuid.UUID) (*QuoteResponse, error) {
	return s.transition(ctx, tenantID, id, func(q *billing.Quote) error {
		return q.MarkExpired(time.Now())
	})
}

func (s *QuoteService) transition(ctx context.Context, tenantID, id uuid.UUID, fn func(*billing.Quote) error) (*QuoteResponse, error) {
	quote, err := s.quoteRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := fn(quote); err != nil {
		return nil, err
	}

	if err := s.quoteRepo.SaveWithLock(ctx, quote); err != nil {
		return nil, err
	}

	s.logger.Info("quote transition",
		zap.String("tenant_id", tenantID.String()),
		zap.String("quote_id", id.String()),
		zap.String("status", quote.Status.String()),
	)
	return toQuoteResponse(quote), nil
}

// ConvertToInvoice creates a draft invoice from an accepted quote's order
// cart. The quote must be accepted and must reference an order.
func (s *QuoteService) ConvertToInvoice(ctx context.Context, tenantID, quoteID uuid.UUID, req ConvertQuoteRequest) (*InvoiceResponse, error) {
	quote, err := s.quoteRepo.FindByIDForTenant(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}
	if !quote.IsAccepted() {
		return nil, billing.ErrInvalidTransition
	}
	if quote.OrderID == nil {
		return nil, shared.NewDomainError("QUOTE_WITHOUT_ORDER", "Quote has no order to invoice")
	}

	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, *quote.OrderID)
	if err != nil {
		return nil, err
	}

	inv, err := billing.NewInvoiceFromOrder(tenantID, req.InvoiceNumber, order, req.Language, req.GovernmentTemplate)
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("quote converted to invoice",
		zap.String("tenant_id", tenantID.String()),
		zap.String("quote_id", quoteID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
	)
	return toInvoiceResponse(inv), nil
}
