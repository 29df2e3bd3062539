package invoice

import (
	"context"
	"time"

	"github.com/smartinvoice/backend/internal/domain/invoice"
)

// ObjectStorage stores invoice archives and exports
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
	ObjectExists(ctx context.Context, key string) (bool, error)
}

// Exporter renders a list of invoices into a downloadable document
type Exporter interface {
	Export(ctx context.Context, invoices []invoice.Invoice) ([]byte, error)
	ContentType() string
	FileExtension() string
}

// Metrics receives invoice lifecycle measurements
type Metrics interface {
	RecordPayment(ctx context.Context, status string)
	RecordOverdue(ctx context.Context, n int)
}

type noopMetrics struct{}

func (noopMetrics) RecordPayment(context.Context, string) {}
func (noopMetrics) RecordOverdue(context.Context, int)    {}
