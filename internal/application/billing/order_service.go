package billing

import (
	"context"
	"time"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderService provides application-level order cart operations
type OrderService struct {
	orderRepo billing.OrderRepository
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo billing.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// OrderLineResponse represents an order line in API responses
type OrderLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	LineTotal   decimal.Decimal `json:"line_total"`
	LineTax     decimal.Decimal `json:"line_tax"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID          uuid.UUID           `json:"id"`
	TenantID    uuid.UUID           `json:"tenant_id"`
	OrderNumber string              `json:"order_number"`
	CustomerID  uuid.UUID           `json:"customer_id"`
	Lines       []OrderLineResponse `json:"lines"`
	NetAmount   decimal.Decimal     `json:"net_amount"`
	TaxAmount   decimal.Decimal     `json:"tax_amount"`
	GrandTotal  decimal.Decimal     `json:"grand_total"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Version     int                 `json:"version"`
}

// CreateOrderRequest represents a request to create an order cart
type CreateOrderRequest struct {
	OrderNumber string             `json:"order_number" binding:"required,max=50"`
	CustomerID  uuid.UUID          `json:"customer_id" binding:"required"`
	Lines       []OrderLineRequest `json:"lines"`
}

// OrderLineRequest represents one priced line in a create/add request
type OrderLineRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required,max=200"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

func toOrderResponse(o *billing.Order) *OrderResponse {
	lines := make([]OrderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineResponse{
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
	return &OrderResponse{
		ID:          o.ID,
		TenantID:    o.TenantID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		Lines:       lines,
		NetAmount:   o.NetAmount,
		TaxAmount:   o.TaxAmount,
		GrandTotal:  o.GrandTotal,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		Version:     o.GetVersion(),
	}
}

// CreateOrder creates a new order cart with optional initial lines
func (s *OrderService) CreateOrder(ctx context.Context, tenantID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	order, err := billing.NewOrder(tenantID, req.OrderNumber, req.CustomerID)
	if err != nil {
		return nil, err
	}

	for _, l := range req.Lines {
		if _, err := order.AddLine(l.ProductID, l.ProductName, l.Quantity, l.TaxRate, valueobject.NewMoneyUSD(l.UnitPrice)); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	return toOrderResponse(order), nil
}

// GetOrderByID gets an order by ID
func (s *OrderService) GetOrderByID(ctx context.Context, tenantID, id uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

// ListOrders lists orders for a tenant with pagination
func (s *OrderService) ListOrders(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[OrderResponse], error) {
	orders, err := s.orderRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.CountForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = *toOrderResponse(&orders[i])
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// AddOrderLine appends a priced line to the cart
func (s *OrderService) AddOrderLine(ctx context.Context, tenantID, orderID uuid.UUID, req OrderLineRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if _, err := order.AddLine(req.ProductID, req.ProductName, req.Quantity, req.TaxRate, valueobject.NewMoneyUSD(req.UnitPrice)); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

// RemoveOrderLine removes a line from the cart
func (s *OrderService) RemoveOrderLine(ctx context.Context, tenantID, orderID, lineID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.RemoveLine(lineID); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}
