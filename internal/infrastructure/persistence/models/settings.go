package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/pricing"
	"github.com/smartinvoice/backend/internal/domain/settings"
)

// TaxRateRecord is the JSON form of a configured tax
type TaxRateRecord struct {
	Name        string          `json:"name"`
	Rate        decimal.Decimal `json:"rate"`
	Compounding bool            `json:"compounding"`
}

// BusinessSettingsModel stores one settings row per owner
type BusinessSettingsModel struct {
	OwnerID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BusinessName            string          `gorm:"type:varchar(200)"`
	BusinessAddress         string          `gorm:"type:text"`
	BusinessPhone           string          `gorm:"type:varchar(50)"`
	BusinessEmail           string          `gorm:"type:varchar(200)"`
	Currency                string          `gorm:"type:varchar(3);not null;default:'USD'"`
	DefaultPaymentTermsDays int             `gorm:"not null;default:30"`
	Taxes                   []TaxRateRecord `gorm:"type:text;serializer:json"`
	UpdatedAt               time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BusinessSettingsModel) TableName() string {
	return "business_settings"
}

// ToDomain converts the persistence model to domain BusinessSettings
func (m *BusinessSettingsModel) ToDomain() *settings.BusinessSettings {
	taxes := make([]pricing.TaxRate, len(m.Taxes))
	for i, t := range m.Taxes {
		taxes[i] = pricing.TaxRate{Name: t.Name, Rate: t.Rate, Compounding: t.Compounding}
	}
	return &settings.BusinessSettings{
		OwnerID:                 m.OwnerID,
		BusinessName:            m.BusinessName,
		BusinessAddress:         m.BusinessAddress,
		BusinessPhone:           m.BusinessPhone,
		BusinessEmail:           m.BusinessEmail,
		Currency:                m.Currency,
		DefaultPaymentTermsDays: m.DefaultPaymentTermsDays,
		Taxes:                   taxes,
		UpdatedAt:               m.UpdatedAt,
	}
}

// BusinessSettingsModelFromDomain creates a persistence model from domain settings
func BusinessSettingsModelFromDomain(s *settings.BusinessSettings) *BusinessSettingsModel {
	taxes := make([]TaxRateRecord, len(s.Taxes))
	for i, t := range s.Taxes {
		taxes[i] = TaxRateRecord{Name: t.Name, Rate: t.Rate, Compounding: t.Compounding}
	}
	return &BusinessSettingsModel{
		OwnerID:                 s.OwnerID,
		BusinessName:            s.BusinessName,
		BusinessAddress:         s.BusinessAddress,
		BusinessPhone:           s.BusinessPhone,
		BusinessEmail:           s.BusinessEmail,
		Currency:                s.Currency,
		DefaultPaymentTermsDays: s.DefaultPaymentTermsDays,
		Taxes:                   taxes,
		UpdatedAt:               s.UpdatedAt,
	}
}
