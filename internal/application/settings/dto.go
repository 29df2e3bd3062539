package settings

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/pricing"
	"github.com/smartinvoice/backend/internal/domain/settings"
)

// TaxRateDTO is one configured tax
type TaxRateDTO struct {
	Name        string          `json:"name" binding:"required,min=1,max=50"`
	Rate        decimal.Decimal `json:"rate"`
	Compounding bool            `json:"compounding"`
}

// UpdateSettingsRequest represents a request to replace business settings
type UpdateSettingsRequest struct {
	BusinessName            string       `json:"business_name" binding:"max=200"`
	BusinessAddress         string       `json:"business_address" binding:"max=500"`
	BusinessPhone           string       `json:"business_phone" binding:"max=50"`
	BusinessEmail           string       `json:"business_email" binding:"omitempty,email"`
	Currency                string       `json:"currency" binding:"omitempty,len=3"`
	DefaultPaymentTermsDays int          `json:"default_payment_terms_days" binding:"omitempty,min=1,max=365"`
	Taxes                   []TaxRateDTO `json:"taxes" binding:"max=5,dive"`
}

// SettingsResponse represents business settings in API responses
type SettingsResponse struct {
	BusinessName            string       `json:"business_name"`
	BusinessAddress         string       `json:"business_address"`
	BusinessPhone           string       `json:"business_phone"`
	BusinessEmail           string       `json:"business_email"`
	Currency                string       `json:"currency"`
	DefaultPaymentTermsDays int          `json:"default_payment_terms_days"`
	Taxes                   []TaxRateDTO `json:"taxes"`
	UpdatedAt               time.Time    `json:"updated_at"`
}

// ToTaxRates converts DTOs to domain tax rates, preserving order
func ToTaxRates(in []TaxRateDTO) []pricing.TaxRate {
	out := make([]pricing.TaxRate, len(in))
	for i, t := range in {
		out[i] = pricing.TaxRate{Name: t.Name, Rate: t.Rate, Compounding: t.Compounding}
	}
	return out
}

// FromTaxRates converts domain tax rates to DTOs
func FromTaxRates(in []pricing.TaxRate) []TaxRateDTO {
	out := make([]TaxRateDTO, len(in))
	for i, t := range in {
		out[i] = TaxRateDTO{Name: t.Name, Rate: t.Rate, Compounding: t.Compounding}
	}
	return out
}

// ToSettingsResponse converts domain settings to SettingsResponse
func ToSettingsResponse(s *settings.BusinessSettings) SettingsResponse {
	return SettingsResponse{
		BusinessName:            s.BusinessName,
		BusinessAddress:         s.BusinessAddress,
		BusinessPhone:           s.BusinessPhone,
		BusinessEmail:           s.BusinessEmail,
		Currency:                s.Currency,
		DefaultPaymentTermsDays: s.DefaultPaymentTermsDays,
		Taxes:                   FromTaxRates(s.Taxes),
		UpdatedAt:               s.UpdatedAt,
	}
}
