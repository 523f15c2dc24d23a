package billing

import (
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is one priced row of the order cart. Monetary results are
// rounded to 2 decimal places at the line level and then summed, so the
// totals the ledger later posts always match the totals shown upstream.
type OrderLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(7,4);not null"` // percent, e.g. 10 for 10%
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTax     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLine) TableName() string {
	return "order_lines"
}

// NewOrderLine creates a priced order line
func NewOrderLine(orderID, productID uuid.UUID, productName string, quantity, taxRate decimal.Decimal, unitPrice valueobject.Money) (*OrderLine, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 100")
	}

	now := time.Now()
	line := &OrderLine{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		TaxRate:     taxRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	line.recalculate()
	return line, nil
}

// recalculate derives the rounded line amounts from quantity, price and rate
func (l *OrderLine) recalculate() {
	gross := l.Quantity.Mul(l.UnitPrice)
	l.LineTotal = gross.Round(2)
	l.LineTax = gross.Mul(l.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
}

// UpdateQuantity updates the quantity and recomputes the line amounts
func (l *OrderLine) UpdateQuantity(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	l.Quantity = quantity
	l.recalculate()
	l.UpdatedAt = time.Now()
	return nil
}

// UpdateUnitPrice updates the unit price and recomputes the line amounts
func (l *OrderLine) UpdateUnitPrice(unitPrice valueobject.Money) error {
	if unitPrice.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	l.UnitPrice = unitPrice.Amount()
	l.recalculate()
	l.UpdatedAt = time.Now()
	return nil
}

// Order is the priced line-item basket underlying both quotes and
// invoices. The ledger core only ever reads it.
type Order struct {
	shared.TenantAggregateRoot
	OrderNumber string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_orders_tenant_number,priority:2"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Lines       []OrderLine     `gorm:"foreignKey:OrderID;references:ID"`
	NetAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null"` // sum of line totals
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null"` // sum of line taxes
	GrandTotal  decimal.Decimal `gorm:"type:decimal(18,4);not null"` // NetAmount + TaxAmount
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates an empty order cart
func NewOrder(tenantID uuid.UUID, orderNumber string, customerID uuid.UUID) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}

	return &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		CustomerID:          customerID,
		Lines:               make([]OrderLine, 0),
		NetAmount:           decimal.Zero,
		TaxAmount:           decimal.Zero,
		GrandTotal:          decimal.Zero,
	}, nil
}

// AddLine appends a priced line to the cart
func (o *Order) AddLine(productID uuid.UUID, productName string, quantity, taxRate decimal.Decimal, unitPrice valueobject.Money) (*OrderLine, error) {
	line, err := NewOrderLine(o.ID, productID, productName, quantity, taxRate, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Lines = append(o.Lines, *line)
	o.recalculateTotals()
	o.Touch()
	o.IncrementVersion()

	return line, nil
}

// RemoveLine removes a line from the cart
func (o *Order) RemoveLine(lineID uuid.UUID) error {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			o.recalculateTotals()
			o.Touch()
			o.IncrementVersion()
			return nil
		}
	}
	return shared.ErrNotFound
}

// recalculateTotals sums the rounded line amounts
func (o *Order) recalculateTotals() {
	net := decimal.Zero
	tax := decimal.Zero
	for _, l := range o.Lines {
		net = net.Add(l.LineTotal)
		tax = tax.Add(l.LineTax)
	}
	o.NetAmount = net
	o.TaxAmount = tax
	o.GrandTotal = net.Add(tax)
}

// IsEmpty reports whether the cart has no lines
func (o *Order) IsEmpty() bool {
	return len(o.Lines) == 0
}

// GetGrandTotalMoney returns the grand total as Money
func (o *Order) GetGrandTotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.GrandTotal)
}
