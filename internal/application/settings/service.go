package settings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/settings"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Defaults applied to owners that never saved settings
type Defaults struct {
	Currency         string
	PaymentTermsDays int
}

// SettingsService reads and updates per-owner business settings
type SettingsService struct {
	repo     settings.SettingsRepository
	defaults Defaults
	logger   *zap.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(repo settings.SettingsRepository, defaults Defaults, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, defaults: defaults, logger: logger}
}

// Load returns the owner's settings, falling back to the defaults
func (s *SettingsService) Load(ctx context.Context, ownerID uuid.UUID) (*settings.BusinessSettings, error) {
	bs, err := s.repo.FindByOwner(ctx, ownerID)
	if errors.Is(err, shared.ErrNotFound) {
		return settings.Default(ownerID, s.defaults.Currency, s.defaults.PaymentTermsDays), nil
	}
	if err != nil {
		return nil, err
	}
	return bs, nil
}

// Get returns the settings as a response
func (s *SettingsService) Get(ctx context.Context, ownerID uuid.UUID) (*SettingsResponse, error) {
	bs, err := s.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	resp := ToSettingsResponse(bs)
	return &resp, nil
}

// Update validates and stores new settings. Tax changes only affect drafts
// created afterwards; existing drafts keep the taxes they were priced with.
func (s *SettingsService) Update(ctx context.Context, ownerID uuid.UUID, req UpdateSettingsRequest) (*SettingsResponse, error) {
	bs, err := s.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	err = bs.Update(settings.Input{
		BusinessName:            req.BusinessName,
		BusinessAddress:         req.BusinessAddress,
		BusinessPhone:           req.BusinessPhone,
		BusinessEmail:           req.BusinessEmail,
		Currency:                req.Currency,
		DefaultPaymentTermsDays: req.DefaultPaymentTermsDays,
		Taxes:                   ToTaxRates(req.Taxes),
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, bs); err != nil {
		return nil, err
	}

	s.logger.Info("business settings updated",
		zap.String("owner_id", ownerID.String()),
		zap.Int("taxes", len(bs.Taxes)),
	)
	resp := ToSettingsResponse(bs)
	return &resp, nil
}
