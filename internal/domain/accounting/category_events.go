package accounting

import (
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeCategory = "Category"

// Event type constants
const (
	EventTypeCategoryCreated = "CategoryCreated"
)

// CategoryCreatedEvent is raised when a new chart-of-accounts node is created
type CategoryCreatedEvent struct {
	shared.BaseDomainEvent
	CategoryID uuid.UUID   `json:"category_id"`
	Name       string      `json:"name"`
	Type       AccountType `json:"account_type"`
	ParentID   *uuid.UUID  `json:"parent_id,omitempty"`
}

// NewCategoryCreatedEvent creates a new CategoryCreatedEvent
func NewCategoryCreatedEvent(c *Category) *CategoryCreatedEvent {
	return &CategoryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCategoryCreated, AggregateTypeCategory, c.ID, c.TenantID),
		CategoryID:      c.ID,
		Name:            c.Name,
		Type:            c.Type,
		ParentID:        c.ParentID,
	}
}

// EventType returns the event type name
func (e *CategoryCreatedEvent) EventType() string {
	return EventTypeCategoryCreated
}
