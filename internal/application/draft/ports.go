package draft

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/client"
	"github.com/smartinvoice/backend/internal/domain/pricing"
	"github.com/smartinvoice/backend/internal/domain/ratecard"
	"github.com/smartinvoice/backend/internal/domain/settings"
	"github.com/smartinvoice/backend/internal/domain/shared/strategy"
)

// ExtractionRequest is what the extractor may see: the free-text description
// and the names the rate card recognizes. Prices are never included.
type ExtractionRequest struct {
	WorkDescription string
	ItemNames       []string
}

// Extractor turns a work description into proposed line items
type Extractor interface {
	Extract(ctx context.Context, req ExtractionRequest) (pricing.Extraction, error)
}

// SnapshotSource takes rate card snapshots
type SnapshotSource interface {
	Snapshot(ctx context.Context, ownerID uuid.UUID) (*ratecard.Snapshot, error)
}

// SettingsSource loads the owner's tax and invoicing defaults
type SettingsSource interface {
	Load(ctx context.Context, ownerID uuid.UUID) (*settings.BusinessSettings, error)
}

// ClientDirectory looks up clients for drafts
type ClientDirectory interface {
	Find(ctx context.Context, ownerID, id uuid.UUID) (*client.Client, error)
	// ResolveByName returns nil without error when nothing matches
	ResolveByName(ctx context.Context, ownerID uuid.UUID, hint string) (*client.Client, error)
}

// StrategyResolver returns match strategies by name; empty selects the default
type StrategyResolver interface {
	GetMatchingStrategy(name string) (strategy.MatchStrategy, error)
}

// Metrics receives pricing measurements
type Metrics interface {
	RecordDraftPriced(ctx context.Context, strategy, source string, reasons []string, elapsed time.Duration)
	RecordInvoiceConfirmed(ctx context.Context)
}

type noopMetrics struct{}

func (noopMetrics) RecordDraftPriced(context.Context, string, string, []string, time.Duration) {}
func (noopMetrics) RecordInvoiceConfirmed(context.Context)                                    {}
