package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/ratecard"
)

// RateItemModel is the persistence model for the RateItem aggregate.
// Retired revisions stay in the table with Active=false.
type RateItemModel struct {
	OwnedAggregateModel
	LineageID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	Revision     int               `gorm:"not null;default:1"`
	Category     ratecard.Category `gorm:"type:varchar(20);not null;default:'labor'"`
	Name         string            `gorm:"type:varchar(200);not null"`
	NameKey      string            `gorm:"type:varchar(200);not null;index"`
	Description  string            `gorm:"type:text"`
	UnitPrice    decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	Unit         ratecard.Unit     `gorm:"type:varchar(20);not null;default:'hour'"`
	Aliases      []string          `gorm:"type:text;serializer:json"`
	Active       bool              `gorm:"not null;index"`
	SupersededBy *uuid.UUID        `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (RateItemModel) TableName() string {
	return "rate_items"
}

// ToDomain converts the persistence model to a domain RateItem
func (m *RateItemModel) ToDomain() *ratecard.RateItem {
	aliases := m.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	return &ratecard.RateItem{
		OwnedAggregateRoot: m.ToOwnedAggregateRoot(),
		LineageID:          m.LineageID,
		Revision:           m.Revision,
		Category:           m.Category,
		Name:               m.Name,
		Description:        m.Description,
		UnitPrice:          m.UnitPrice,
		Unit:               m.Unit,
		Aliases:            aliases,
		Active:             m.Active,
		SupersededBy:       m.SupersededBy,
	}
}

// RateItemModelFromDomain creates a persistence model from a domain RateItem
func RateItemModelFromDomain(r *ratecard.RateItem) *RateItemModel {
	m := &RateItemModel{
		LineageID:    r.LineageID,
		Revision:     r.Revision,
		Category:     r.Category,
		Name:         r.Name,
		NameKey:      NameKey(r.Name),
		Description:  r.Description,
		UnitPrice:    r.UnitPrice,
		Unit:         r.Unit,
		Aliases:      r.Aliases,
		Active:       r.Active,
		SupersededBy: r.SupersededBy,
	}
	m.FromDomainOwnedAggregateRoot(r.OwnedAggregateRoot)
	return m
}

// NameKey is the lookup form of a display name
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
