package settings

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/pricing"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"github.com/smartinvoice/backend/internal/domain/shared/valueobject"
)

const maxTaxes = 5

// BusinessSettings holds an owner's invoicing profile and tax configuration
type BusinessSettings struct {
	OwnerID                 uuid.UUID
	BusinessName            string
	BusinessAddress         string
	BusinessPhone           string
	BusinessEmail           string
	Currency                string
	DefaultPaymentTermsDays int
	Taxes                   []pricing.TaxRate
	UpdatedAt               time.Time
}

// Input carries the editable settings
type Input struct {
	BusinessName            string
	BusinessAddress         string
	BusinessPhone           string
	BusinessEmail           string
	Currency                string
	DefaultPaymentTermsDays int
	Taxes                   []pricing.TaxRate
}

// Default returns the settings used before an owner saves their own:
// a single non-compounding GST of 5%.
func Default(ownerID uuid.UUID, currency string, termsDays int) *BusinessSettings {
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if termsDays <= 0 {
		termsDays = 30
	}
	return &BusinessSettings{
		OwnerID:                 ownerID,
		Currency:                currency,
		DefaultPaymentTermsDays: termsDays,
		Taxes:                   []pricing.TaxRate{{Name: "GST", Rate: decimal.RequireFromString("0.05")}},
		UpdatedAt:               time.Now(),
	}
}

// Update validates and applies new settings
func (s *BusinessSettings) Update(in Input) error {
	if err := pricing.ValidateTaxRates(in.Taxes); err != nil {
		return err
	}
	if len(in.Taxes) > maxTaxes {
		return shared.NewDomainError("INVALID_TAX_RATE", "At most 5 taxes can be configured")
	}
	email := strings.TrimSpace(in.BusinessEmail)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return shared.NewDomainError("INVALID_EMAIL", "Business email is not a valid address")
		}
	}
	currency := s.Currency
	if strings.TrimSpace(in.Currency) != "" {
		parsed, err := valueobject.ParseCurrency(in.Currency)
		if err != nil {
			return shared.NewDomainError("INVALID_CURRENCY", "Currency must be an ISO 4217 code")
		}
		currency = parsed
	}
	terms := in.DefaultPaymentTermsDays
	if terms == 0 {
		terms = s.DefaultPaymentTermsDays
	}
	if terms < 1 || terms > 365 {
		return shared.NewDomainError("INVALID_PAYMENT_TERMS", "Payment terms must be between 1 and 365 days")
	}

	taxes := make([]pricing.TaxRate, len(in.Taxes))
	for i, t := range in.Taxes {
		t.Name = strings.TrimSpace(t.Name)
		taxes[i] = t
	}

	s.BusinessName = strings.TrimSpace(in.BusinessName)
	s.BusinessAddress = strings.TrimSpace(in.BusinessAddress)
	s.BusinessPhone = strings.TrimSpace(in.BusinessPhone)
	s.BusinessEmail = email
	s.Currency = currency
	s.DefaultPaymentTermsDays = terms
	s.Taxes = taxes
	s.UpdatedAt = time.Now()
	return nil
}
