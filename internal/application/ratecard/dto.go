package ratecard

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/ratecard"
)

// CreateRateItemRequest represents a request to create a rate item
type CreateRateItemRequest struct {
	Category    string          `json:"category" binding:"omitempty,oneof=labor materials other"`
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=2000"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required,decimal_places=2"`
	Unit        string          `json:"unit" binding:"omitempty,max=30"`
	Aliases     []string        `json:"aliases" binding:"omitempty,max=20,dive,max=200"`
}

// ReviseRateItemRequest replaces the attributes of a rate item with a new revision
type ReviseRateItemRequest CreateRateItemRequest

// RateItemListFilter represents filter options for rate item lists
type RateItemListFilter struct {
	Search          string `form:"search"`
	Category        string `form:"category" binding:"omitempty,oneof=labor materials other"`
	IncludeInactive bool   `form:"include_inactive"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// RateItemResponse represents a rate item in API responses
type RateItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	LineageID    uuid.UUID       `json:"lineage_id"`
	Revision     int             `json:"revision"`
	Category     string          `json:"category"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Unit         string          `json:"unit"`
	Aliases      []string        `json:"aliases"`
	Active       bool            `json:"active"`
	SupersededBy *uuid.UUID      `json:"superseded_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (r CreateRateItemRequest) toInput() ratecard.RateItemInput {
	return ratecard.RateItemInput{
		Category:    ratecard.Category(r.Category),
		Name:        r.Name,
		Description: r.Description,
		UnitPrice:   r.UnitPrice,
		Unit:        ratecard.Unit(r.Unit),
		Aliases:     r.Aliases,
	}
}

// ToRateItemResponse converts a domain RateItem to RateItemResponse
func ToRateItemResponse(item *ratecard.RateItem) RateItemResponse {
	aliases := item.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	return RateItemResponse{
		ID:           item.ID,
		LineageID:    item.LineageID,
		Revision:     item.Revision,
		Category:     string(item.Category),
		Name:         item.Name,
		Description:  item.Description,
		UnitPrice:    item.UnitPrice,
		Unit:         string(item.Unit),
		Aliases:      aliases,
		Active:       item.Active,
		SupersededBy: item.SupersededBy,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}
