package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PricingMetrics records counters for draft pricing and the invoice lifecycle.
type PricingMetrics struct {
	draftsPriced    *Counter
	unmatchedItems  *Counter
	invoicesCreated *Counter
	payments        *Counter
	overdueMarked   *Counter
	pricingDuration *Histogram
}

// NewPricingMetrics creates the instruments on meter
func NewPricingMetrics(meter metric.Meter) (*PricingMetrics, error) {
	m := &PricingMetrics{}
	var err error

	if m.draftsPriced, err = NewCounter(meter, "invoice_drafts_priced_total",
		"Drafts priced against a rate card snapshot", "{draft}"); err != nil {
		return nil, err
	}
	if m.unmatchedItems, err = NewCounter(meter, "invoice_unmatched_items_total",
		"Extracted items that could not be priced", "{item}"); err != nil {
		return nil, err
	}
	if m.invoicesCreated, err = NewCounter(meter, "invoice_confirmed_total",
		"Drafts confirmed into numbered invoices", "{invoice}"); err != nil {
		return nil, err
	}
	if m.payments, err = NewCounter(meter, "invoice_payments_total",
		"Payments recorded against invoices", "{payment}"); err != nil {
		return nil, err
	}
	if m.overdueMarked, err = NewCounter(meter, "invoice_overdue_marked_total",
		"Invoices moved to overdue by the sweeper", "{invoice}"); err != nil {
		return nil, err
	}
	if m.pricingDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "invoice_pricing_duration_seconds",
		Description: "Time spent matching and pricing one draft",
		Unit:        "s",
		Boundaries:  PricingDurationBuckets,
	}); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordDraftPriced counts one pricing pass. reasons holds one entry per
// line that did not resolve.
func (m *PricingMetrics) RecordDraftPriced(ctx context.Context, strategy, source string, reasons []string, elapsed time.Duration) {
	attrs := []attribute.KeyValue{AttrStrategy.String(strategy), AttrSource.String(source)}
	m.draftsPriced.Inc(ctx, attrs...)
	m.pricingDuration.RecordDuration(ctx, elapsed, AttrStrategy.String(strategy))
	for _, r := range reasons {
		m.unmatchedItems.Inc(ctx, AttrStrategy.String(strategy), AttrReason.String(r))
	}
}

// RecordInvoiceConfirmed counts a confirmation that produced a new invoice
func (m *PricingMetrics) RecordInvoiceConfirmed(ctx context.Context) {
	m.invoicesCreated.Inc(ctx)
}

// RecordPayment counts a payment by the invoice status it produced
func (m *PricingMetrics) RecordPayment(ctx context.Context, status string) {
	m.payments.Inc(ctx, AttrStatus.String(status))
}

// RecordOverdue counts invoices marked overdue in one sweep
func (m *PricingMetrics) RecordOverdue(ctx context.Context, n int) {
	if n > 0 {
		m.overdueMarked.Add(ctx, int64(n))
	}
}
