package ratecard

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeRateItem = "RateItem"

// Event type constants
const (
	EventTypeRateItemCreated     = "RateItemCreated"
	EventTypeRateItemRevised     = "RateItemRevised"
	EventTypeRateItemDeactivated = "RateItemDeactivated"
)

// RateItemCreatedEvent is published when a new rate item is added
type RateItemCreatedEvent struct {
	shared.BaseDomainEvent
	RateItemID uuid.UUID       `json:"rate_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Unit       Unit            `json:"unit"`
}

// NewRateItemCreatedEvent creates a new RateItemCreatedEvent
func NewRateItemCreatedEvent(item *RateItem) *RateItemCreatedEvent {
	return &RateItemCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRateItemCreated, AggregateTypeRateItem, item.ID, item.OwnerID),
		RateItemID:      item.ID,
		Name:            item.Name,
		UnitPrice:       item.UnitPrice,
		Unit:            item.Unit,
	}
}

// RateItemRevisedEvent is published when a rate item gets a new revision
type RateItemRevisedEvent struct {
	shared.BaseDomainEvent
	LineageID     uuid.UUID       `json:"lineage_id"`
	PreviousID    uuid.UUID       `json:"previous_id"`
	CurrentID     uuid.UUID       `json:"current_id"`
	Revision      int             `json:"revision"`
	PreviousPrice decimal.Decimal `json:"previous_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
}

// NewRateItemRevisedEvent creates a new RateItemRevisedEvent
func NewRateItemRevisedEvent(previous, current *RateItem) *RateItemRevisedEvent {
	return &RateItemRevisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRateItemRevised, AggregateTypeRateItem, current.ID, current.OwnerID),
		LineageID:       current.LineageID,
		PreviousID:      previous.ID,
		CurrentID:       current.ID,
		Revision:        current.Revision,
		PreviousPrice:   previous.UnitPrice,
		CurrentPrice:    current.UnitPrice,
	}
}

// RateItemDeactivatedEvent is published when a rate item is soft deleted
type RateItemDeactivatedEvent struct {
	shared.BaseDomainEvent
	RateItemID uuid.UUID `json:"rate_item_id"`
	Name       string    `json:"name"`
}

// NewRateItemDeactivatedEvent creates a new RateItemDeactivatedEvent
func NewRateItemDeactivatedEvent(item *RateItem) *RateItemDeactivatedEvent {
	return &RateItemDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRateItemDeactivated, AggregateTypeRateItem, item.ID, item.OwnerID),
		RateItemID:      item.ID,
		Name:            item.Name,
	}
}
