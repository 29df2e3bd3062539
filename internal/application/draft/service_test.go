package draft

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/client"
	"github.com/smartinvoice/backend/internal/domain/invoice"
	"github.com/smartinvoice/backend/internal/domain/pricing"
	"github.com/smartinvoice/backend/internal/domain/ratecard"
	"github.com/smartinvoice/backend/internal/domain/settings"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"github.com/smartinvoice/backend/internal/infrastructure/cache"
	"github.com/smartinvoice/backend/internal/infrastructure/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeRateCards struct {
	items []ratecard.RateItem
}

func (f *fakeRateCards) Snapshot(ctx context.Context, ownerID uuid.UUID) (*ratecard.Snapshot, error) {
	return ratecard.NewSnapshot(ownerID, f.items, time.Now()), nil
}

type fakeSettings struct{}

func (fakeSettings) Load(ctx context.Context, ownerID uuid.UUID) (*settings.BusinessSettings, error) {
	return settings.Default(ownerID, "CAD", 30), nil
}

type fakeClients struct {
	byID map[uuid.UUID]*client.Client
}

func (f *fakeClients) Find(ctx context.Context, ownerID, id uuid.UUID) (*client.Client, error) {
	c, ok := f.byID[id]
	if !ok || c.OwnerID != ownerID {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (f *fakeClients) ResolveByName(ctx context.Context, ownerID uuid.UUID, hint string) (*client.Client, error) {
	for _, c := range f.byID {
		if c.OwnerID == ownerID && c.Name == hint {
			return c, nil
		}
	}
	return nil, nil
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, req ExtractionRequest) (pricing.Extraction, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(pricing.Extraction), args.Error(1)
}

// fakeInvoices numbers invoices per owner and year like the database sequence
type fakeInvoices struct {
	mu       sync.Mutex
	byDraft  map[uuid.UUID]*invoice.Invoice
	counters map[string]int
	creates  int
}

func newFakeInvoices() *fakeInvoices {
	return &fakeInvoices{byDraft: map[uuid.UUID]*invoice.Invoice{}, counters: map[string]int{}}
}

func (f *fakeInvoices) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*invoice.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.byDraft {
		if inv.ID == id && inv.OwnerID == ownerID {
			return inv, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeInvoices) FindByNumber(ctx context.Context, ownerID uuid.UUID, number string) (*invoice.Invoice, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeInvoices) FindByDraftID(ctx context.Context, ownerID, draftID uuid.UUID) (*invoice.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byDraft[draftID]
	if !ok || inv.OwnerID != ownerID {
		return nil, shared.ErrNotFound
	}
	return inv, nil
}

func (f *fakeInvoices) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]invoice.Invoice, error) {
	return nil, nil
}

func (f *fakeInvoices) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	return 0, nil
}

func (f *fakeInvoices) FindPastDue(ctx context.Context, asOf time.Time, limit int) ([]invoice.Invoice, error) {
	return nil, nil
}

func (f *fakeInvoices) CreateWithNextNumber(ctx context.Context, inv *invoice.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byDraft[inv.DraftID]; ok {
		return shared.ErrAlreadyExists
	}
	year := inv.InvoiceDate.Year()
	key := inv.OwnerID.String() + "/" + invoice.FormatNumber(year, 0)
	f.counters[key]++
	inv.AssignNumber(invoice.FormatNumber(year, f.counters[key]))
	f.byDraft[inv.DraftID] = inv
	f.creates++
	return nil
}

func (f *fakeInvoices) Save(ctx context.Context, inv *invoice.Invoice) error {
	return nil
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type fixture struct {
	owner       uuid.UUID
	service     *DraftService
	drafts      *cache.InMemoryDraftStore
	invoices    *fakeInvoices
	clients     *fakeClients
	extractor   *MockExtractor
	publisher   *recordingPublisher
	idempotency *cache.InMemoryIdempotencyStore
}

func electricianItems(t *testing.T, owner uuid.UUID) []ratecard.RateItem {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []ratecard.RateItemInput{
		{Name: "troubleshooting", UnitPrice: dec("85"), Unit: ratecard.UnitHour, Aliases: []string{"diagnostics"}},
		{Name: "30-amp breaker", UnitPrice: dec("45"), Unit: ratecard.UnitEach, Category: ratecard.CategoryMaterials},
		{Name: "travel", UnitPrice: dec("50"), Unit: ratecard.UnitHour},
	}
	items := make([]ratecard.RateItem, 0, len(rows))
	for i, in := range rows {
		it, err := ratecard.NewRateItem(owner, in)
		require.NoError(t, err)
		it.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		items = append(items, *it)
	}
	return items
}

func newFixture(t *testing.T, cfg Config, items func(uuid.UUID) []ratecard.RateItem) *fixture {
	t.Helper()
	owner := uuid.New()
	registry, err := strategy.NewRegistryWithDefaults(0.6)
	require.NoError(t, err)

	f := &fixture{
		owner:       owner,
		drafts:      cache.NewInMemoryDraftStore(),
		invoices:    newFakeInvoices(),
		clients:     &fakeClients{byID: map[uuid.UUID]*client.Client{}},
		extractor:   new(MockExtractor),
		publisher:   &recordingPublisher{},
		idempotency: cache.NewInMemoryIdempotencyStore(),
	}
	f.service = NewDraftService(
		&fakeRateCards{items: items(owner)},
		fakeSettings{},
		f.clients,
		registry,
		f.drafts,
		f.invoices,
		cfg,
		zap.NewNop(),
		WithExtractor(f.extractor),
		WithEventPublisher(f.publisher),
		WithIdempotencyStore(f.idempotency),
	)
	return f
}

func electricianFixture(t *testing.T) *fixture {
	return newFixture(t, Config{}, func(owner uuid.UUID) []ratecard.RateItem { return electricianItems(t, owner) })
}

func invoiceDate() *time.Time {
	d := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestDraftService_CreateFromDescription(t *testing.T) {
	f := electricianFixture(t)
	ctx := context.Background()
	description := "3 hours troubleshooting, replaced a 30 amp breaker, 45 minutes travel for Jane Doe"

	f.extractor.On("Extract", mock.Anything, mock.MatchedBy(func(req ExtractionRequest) bool {
		return req.WorkDescription == description &&
			assert.ElementsMatch(t, []string{"troubleshooting", "diagnostics", "30-amp breaker", "travel"}, req.ItemNames)
	})).Return(pricing.Extraction{
		Items: []pricing.ExtractedItem{
			{ItemRef: "troubleshooting", Quantity: dec("3.0"), Unit: "hour"},
			{ItemRef: "30-amp breaker", Quantity: dec("1")},
			{ItemRef: "travel", Quantity: dec("0.75")},
		},
		ClientNameHint: "Jane Doe",
	}, nil).Once()

	resp, err := f.service.Create(ctx, f.owner, CreateDraftRequest{WorkDescription: description})
	require.NoError(t, err)

	assert.Equal(t, string(pricing.DraftStateResolved), resp.State)
	assert.Equal(t, string(pricing.DraftSourceLLM), resp.Source)
	assert.True(t, resp.FullyResolved)
	assert.False(t, resp.Confirmable, "drafts need review before confirmation")
	assert.True(t, resp.Priced.Subtotal.Equal(dec("337.50")))
	assert.True(t, resp.Priced.TaxTotal.Equal(dec("16.88")))
	assert.True(t, resp.Priced.Total.Equal(dec("354.38")))
	f.extractor.AssertExpectations(t)

	stored, err := f.service.Get(ctx, f.owner, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, stored.ID)
}

func TestDraftService_CreateWithExplicitItemsSkipsExtractor(t *testing.T) {
	f := electricianFixture(t)

	resp, err := f.service.Create(context.Background(), f.owner, CreateDraftRequest{
		Items: []ExtractedItemDTO{
			{ItemRef: "Diagnostics", Quantity: dec("2")},
			{ItemRef: "gold plating", Quantity: dec("1")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, string(pricing.DraftSourceManual), resp.Source)
	assert.False(t, resp.FullyResolved)
	require.Len(t, resp.Priced.UnmatchedItems, 1)
	assert.Equal(t, "gold plating", resp.Priced.UnmatchedItems[0])
	assert.True(t, resp.Priced.Subtotal.Equal(dec("170")))
	f.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestDraftService_EmptyRateCardFailsBeforeExtraction(t *testing.T) {
	f := newFixture(t, Config{}, func(uuid.UUID) []ratecard.RateItem { return nil })

	_, err := f.service.Create(context.Background(), f.owner, CreateDraftRequest{WorkDescription: "2 hours of work"})
	assert.ErrorIs(t, err, pricing.ErrEmptyRateCard)
	f.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestDraftService_ExtractionFailure(t *testing.T) {
	f := electricianFixture(t)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return(pricing.Extraction{}, errors.New("upstream timeout"))

	_, err := f.service.Create(context.Background(), f.owner, CreateDraftRequest{WorkDescription: "some work"})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "EXTRACTION_FAILED", de.Code)
}

func TestDraftService_CreateRequiresInput(t *testing.T) {
	f := electricianFixture(t)
	_, err := f.service.Create(context.Background(), f.owner, CreateDraftRequest{})
	assert.ErrorIs(t, err, ErrNothingToExtract)

	_, err = f.service.Create(context.Background(), f.owner, CreateDraftRequest{
		Items:    []ExtractedItemDTO{{ItemRef: "travel", Quantity: dec("1")}},
		Strategy: "psychic",
	})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_STRATEGY", de.Code)
}

func TestDraftService_ResolvesClientFromHint(t *testing.T) {
	f := electricianFixture(t)
	jane, err := client.NewClient(f.owner, client.Input{Name: "Jane Doe", PaymentTermsDays: 14})
	require.NoError(t, err)
	f.clients.byID[jane.ID] = jane

	resp, err := f.service.Create(context.Background(), f.owner, CreateDraftRequest{
		Items:          []ExtractedItemDTO{{ItemRef: "travel", Quantity: dec("1")}},
		ClientNameHint: "Jane Doe",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.ClientID)
	assert.Equal(t, jane.ID, *resp.ClientID)

	_, err = f.service.Accept(context.Background(), f.owner, resp.ID)
	require.NoError(t, err)
	inv, err := f.service.Confirm(context.Background(), f.owner, resp.ID, ConfirmDraftRequest{InvoiceDate: invoiceDate()}, "")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", inv.ClientName)
	assert.Equal(t, "2026-03-17", inv.DueDate.Format("2006-01-02"), "client terms override settings")
}

func TestDraftService_UnknownClientIDRejected(t *testing.T) {
	f := electricianFixture(t)
	missing := uuid.New()
	_, err := f.service.Create(context.Background(), f.owner, CreateDraftRequest{
		Items:    []ExtractedItemDTO{{ItemRef: "travel", Quantity: dec("1")}},
		ClientID: &missing,
	})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_CLIENT", de.Code)
}

func TestDraftService_EditReprices(t *testing.T) {
	f := electricianFixture(t)
	ctx := context.Background()
	created, err := f.service.Create(ctx, f.owner, CreateDraftRequest{
		Items: []ExtractedItemDTO{{ItemRef: "gold plating", Quantity: dec("1")}},
	})
	require.NoError(t, err)

	notes := "back entrance"
	edited, err := f.service.Edit(ctx, f.owner, created.ID, EditDraftRequest{
		Items: []ExtractedItemDTO{{ItemRef: "travel", Quantity: dec("1.5")}},
		Notes: &notes,
	})
	require.NoError(t, err)

	assert.Equal(t, string(pricing.DraftStateReviewedEdited), edited.State)
	assert.Equal(t, 1, edited.Edits)
	assert.True(t, edited.FullyResolved)
	assert.True(t, edited.Confirmable)
	assert.True(t, edited.Priced.Subtotal.Equal(dec("75")))
	assert.Equal(t, "back entrance", edited.Extraction.Notes)
}

func TestDraftService_ConfirmAllocatesSequentialNumbers(t *testing.T) {
	f := electricianFixture(t)
	ctx := context.Background()

	var numbers []string
	for i := 0; i < 3; i++ {
		created, err := f.service.Create(ctx, f.owner, CreateDraftRequest{
			Items: []ExtractedItemDTO{{ItemRef: "travel", Quantity: dec("1")}},
		})
		require.NoError(t, err)
		_, err = f.service.Accept(ctx, f.owner, created.ID)
		require.NoError(t, err)

		inv, err := f.service.Confirm(ctx, f.owner, created.ID, ConfirmDraftRequest{InvoiceDate: invoiceDate()}, "")
		require.NoError(t, err)
		numbers = append(numbers, inv.Number)
	}
	assert.Equal(t, []string{"2026-0001", "2026-0002", "2026-0003"}, numbers)
	assert.Len(t, f.publisher.events, 3)
}

func TestDraftService_ConfirmIsIdempotent(t *testing.T) {
	f := electricianFixture(t)
	ctx := context.Background()
	created, err := f.service.Create(ctx, f.owner, CreateDraftRequest{
		Items: []ExtractedItemDTO{
			{ItemRef: "troubleshooting", Quantity: dec("3")},
			{ItemRef: "30-amp breaker", Quantity: dec("1")},
			{ItemRef: "travel", Quantity: dec("0.75")},
		},
	})
	require.NoError(t, err)
	_, err = f.service.Accept(ctx, f.owner, created.ID)
	require.NoError(t, err)

	first, err := f.service.Confirm(ctx, f.owner, created.ID, ConfirmDraftRequest{InvoiceDate: invoiceDate()}, "key-1")
	require.NoError(t, err)
	assert.True(t, first.Total.Equal(dec("354.38")))
	assert.Equal(t, "CAD", first.Currency)

	again, err := f.service.Confirm(ctx, f.owner, created.ID, ConfirmDraftRequest{}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	noKey, err := f.service.Confirm(ctx, f.owner, created.ID, ConfirmDraftRequest{}, "")
	require.NoError(t, err)
	assert.Equal(t, first.Number, noKey.Number)
	assert.Equal(t, 1, f.invoices.creates)
	assert.Len(t, f.publisher.events, 1)

	stored, err := f.service.Get(ctx, f.owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(pricing.DraftStateConfirmed), stored.State)
	assert.Equal(t, first.Number, stored.InvoiceNumber)

	_, err = f.service.Edit(ctx, f.owner, created.ID, EditDraftRequest{
		Items: []ExtractedItemDTO{{ItemRef: "travel", Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, pricing.ErrDraftFrozen)
}

func TestDraftService_ConfirmSurvivesDraftExpiry(t *testing.T) {
	f := electricianFixture(t)
	ctx := context.Background()
	created, err := f.service.Create(ctx, f.owner, CreateDraftRequest{
		Items: []ExtractedItemDTO{{ItemRef: "travel", Quantity: dec("1")}},
	})
	require.NoError(t, err)
	_, err = f.service.Accept(ctx, f.owner, created.ID)
	require.NoError(t, err)

	first, err := f.service.Confirm(ctx, f.owner, created.ID, ConfirmDraftRequest{}, "")
	require.NoError(t, err)
	require.NoError(t, f.drafts.Delete(ctx, f.owner, created.ID))

	again, err := f.service.Confirm(ctx, f.owner, created.ID, ConfirmDraftRequest{}, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = f.service.Confirm(ctx, f.owner, uuid.New(), ConfirmDraftRequest{}, "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDraftService_IdempotencyKeyMapsToDraft(t *testing.T) {
	f := electricianFixture(t)
	ctx := context.Background()
	created, err := f.service.Create(ctx, f.owner, CreateDraftRequest{
		Items: []ExtractedItemDTO{{ItemRef: "travel", Quantity: dec("1")}},
	})
	require.NoError(t, err)
	_, err = f.service.Accept(ctx, f.owner, created.ID)
	require.NoError(t, err)

	first, err := f.service.Confirm(ctx, f.owner, created.ID, ConfirmDraftRequest{}, "retry-1")
	require.NoError(t, err)

	value, found, err := f.idempotency.Lookup(ctx, "draft-confirm:"+f.owner.String()+":retry-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created.ID.String(), value)

	require.NoError(t, f.drafts.Delete(ctx, f.owner, created.ID))
	again, err := f.service.Confirm(ctx, f.owner, created.ID, ConfirmDraftRequest{}, "retry-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, f.invoices.creates)
}

func TestDraftService_IdempotencyKeyReusedForOtherDraft(t *testing.T) {
	f := electricianFixture(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 2; i++ {
		created, err := f.service.Create(ctx, f.owner, CreateDraftRequest{
			Items: []ExtractedItemDTO{{ItemRef: "travel", Quantity: dec("1")}},
		})
		require.NoError(t, err)
		_, err = f.service.Accept(ctx, f.owner, created.ID)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	_, err := f.service.Confirm(ctx, f.owner, ids[0], ConfirmDraftRequest{}, "shared-key")
	require.NoError(t, err)
	_, err = f.service.Confirm(ctx, f.owner, ids[1], ConfirmDraftRequest{}, "shared-key")
	assert.ErrorIs(t, err, ErrIdempotencyKeyReused)
}

func TestDraftService_ConfirmRejectsUnreviewedAndUnresolved(t *testing.T) {
	f := newFixture(t, Config{RequireFullResolution: true}, func(owner uuid.UUID) []ratecard.RateItem {
		return electricianItems(t, owner)
	})
	ctx := context.Background()
	created, err := f.service.Create(ctx, f.owner, CreateDraftRequest{
		Items: []ExtractedItemDTO{
			{ItemRef: "travel", Quantity: dec("1")},
			{ItemRef: "gold plating", Quantity: dec("1")},
		},
	})
	require.NoError(t, err)

	_, err = f.service.Confirm(ctx, f.owner, created.ID, ConfirmDraftRequest{}, "k")
	assert.ErrorIs(t, err, pricing.ErrInvalidDraftMove)

	_, err = f.service.Accept(ctx, f.owner, created.ID)
	require.NoError(t, err)
	_, err = f.service.Confirm(ctx, f.owner, created.ID, ConfirmDraftRequest{}, "k")
	assert.ErrorIs(t, err, pricing.ErrUnresolvedItems)
	assert.Zero(t, f.invoices.creates)

	// the failed attempt released the key
	_, err = f.service.Edit(ctx, f.owner, created.ID, EditDraftRequest{
		Items: []ExtractedItemDTO{{ItemRef: "travel", Quantity: dec("1")}},
	})
	require.NoError(t, err)
	inv, err := f.service.Confirm(ctx, f.owner, created.ID, ConfirmDraftRequest{}, "k")
	require.NoError(t, err)
	assert.NotEmpty(t, inv.Number)
}

func TestDraftService_Discard(t *testing.T) {
	f := electricianFixture(t)
	ctx := context.Background()
	created, err := f.service.Create(ctx, f.owner, CreateDraftRequest{
		Items: []ExtractedItemDTO{{ItemRef: "travel", Quantity: dec("1")}},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Discard(ctx, f.owner, created.ID))
	_, err = f.service.Get(ctx, f.owner, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDraftService_Quote(t *testing.T) {
	f := electricianFixture(t)

	priced, err := f.service.Quote(context.Background(), f.owner, QuoteRequest{
		RateCard: []QuoteRateItem{
			{Name: "drywall patch", UnitPrice: dec("40"), Unit: "each"},
			{Name: "painting", UnitPrice: dec("2.25"), Unit: "sqft"},
		},
		Items: []ExtractedItemDTO{
			{ItemRef: "drywall patch", Quantity: dec("2")},
			{ItemRef: "painting", Quantity: dec("120")},
		},
	})
	require.NoError(t, err)
	assert.True(t, priced.Subtotal.Equal(dec("350")))
	assert.Empty(t, priced.Taxes, "quotes are untaxed unless taxes are given")
	assert.True(t, priced.Total.Equal(dec("350")))

	_, err = f.service.Quote(context.Background(), f.owner, QuoteRequest{
		Items: []ExtractedItemDTO{{ItemRef: "painting", Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, pricing.ErrEmptyRateCard)
}

func TestDraftService_QuoteAcceptsUnitSpellings(t *testing.T) {
	f := electricianFixture(t)

	priced, err := f.service.Quote(context.Background(), f.owner, QuoteRequest{
		RateCard: []QuoteRateItem{{Name: "baseboard trim", UnitPrice: dec("3.50"), Unit: "linear-ft"}},
		Items:    []ExtractedItemDTO{{ItemRef: "baseboard trim", Quantity: dec("40"), Unit: "lf"}},
	})
	require.NoError(t, err)
	require.Len(t, priced.Lines, 1)
	assert.Equal(t, pricing.LineStatusMatched, priced.Lines[0].Status)
	assert.Equal(t, ratecard.UnitLinearFt, priced.Lines[0].Unit)
	assert.True(t, priced.Subtotal.Equal(dec("140")))
}
