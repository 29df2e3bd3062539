//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	clientapp "github.com/smartinvoice/backend/internal/application/client"
	draftapp "github.com/smartinvoice/backend/internal/application/draft"
	invoiceapp "github.com/smartinvoice/backend/internal/application/invoice"
	ratecardapp "github.com/smartinvoice/backend/internal/application/ratecard"
	settingsapp "github.com/smartinvoice/backend/internal/application/settings"
	"github.com/smartinvoice/backend/internal/infrastructure/auth"
	"github.com/smartinvoice/backend/internal/infrastructure/cache"
	"github.com/smartinvoice/backend/internal/infrastructure/config"
	"github.com/smartinvoice/backend/internal/infrastructure/event"
	"github.com/smartinvoice/backend/internal/infrastructure/export"
	"github.com/smartinvoice/backend/internal/infrastructure/persistence"
	"github.com/smartinvoice/backend/internal/infrastructure/storage"
	"github.com/smartinvoice/backend/internal/infrastructure/strategy"
	"github.com/smartinvoice/backend/internal/interfaces/http/dto"
	"github.com/smartinvoice/backend/internal/interfaces/http/handler"
	"github.com/smartinvoice/backend/internal/interfaces/http/middleware"
	"github.com/smartinvoice/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiServer struct {
	engine  *gin.Engine
	jwt     *auth.JWTService
	objects *storage.MemoryObjectStorage
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	testDB := NewTestDB(t)
	log := zap.NewNop()

	registry, err := strategy.NewRegistryWithDefaults(0.8)
	require.NoError(t, err)

	stores := cache.InMemoryStores()
	t.Cleanup(func() { _ = stores.Close() })
	objects := storage.NewMemoryObjectStorage()
	invoiceRepo := persistence.NewGormInvoiceRepository(testDB.DB)

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(invoiceapp.NewInvoiceArchiveHandler(invoiceRepo, objects, log))

	rateCards := ratecardapp.NewRateCardService(persistence.NewGormRateItemRepository(testDB.DB), log)
	clients := clientapp.NewClientService(persistence.NewGormClientRepository(testDB.DB), log)
	settings := settingsapp.NewSettingsService(persistence.NewGormSettingsRepository(testDB.DB),
		settingsapp.Defaults{Currency: "USD", PaymentTermsDays: 30}, log)
	invoices := invoiceapp.NewInvoiceService(invoiceRepo, log,
		invoiceapp.WithEventPublisher(bus),
		invoiceapp.WithExporter(export.NewXLSXExporter(log)),
		invoiceapp.WithObjectStorage(objects),
	)
	drafts := draftapp.NewDraftService(rateCards, settings, clients, registry,
		stores.Drafts, invoiceRepo, draftapp.DefaultConfig(), log,
		draftapp.WithIdempotencyStore(stores.Idempotency),
		draftapp.WithEventPublisher(bus),
	)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret: "integration-secret-key-of-32-chars",
		Issuer: "smartinvoice",
	})
	pinger, err := testDB.DB.DB()
	require.NoError(t, err)

	engine := router.NewEngine(router.EngineConfig{
		Logger: log,
		Auth:   middleware.DefaultJWTConfig(jwtService),
	}, router.Handlers{
		System:    handler.NewSystemHandler("smartinvoice", "test", pinger, log),
		RateItems: handler.NewRateItemHandler(rateCards),
		Clients:   handler.NewClientHandler(clients),
		Settings:  handler.NewSettingsHandler(settings),
		Drafts:    handler.NewDraftHandler(drafts),
		Invoices:  handler.NewInvoiceHandler(invoices),
	})
	return &apiServer{engine: engine, jwt: jwtService, objects: objects}
}

func (s *apiServer) token(t *testing.T, owner uuid.UUID) string {
	t.Helper()
	token, err := s.jwt.GenerateAccessToken(owner, "owner@example.com", time.Hour)
	require.NoError(t, err)
	return token
}

func (s *apiServer) do(t *testing.T, owner uuid.UUID, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+s.token(t, owner))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if out != nil && resp.Data != nil {
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out))
	}
	return resp
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (s *apiServer) seedRateCard(t *testing.T, owner uuid.UUID) {
	t.Helper()
	for _, row := range []gin.H{
		{"name": "troubleshooting", "category": "labor", "unit_price": "85.00", "unit": "hour"},
		{"name": "30-amp breaker", "category": "materials", "unit_price": "45.00", "unit": "each"},
		{"name": "travel", "category": "other", "unit_price": "50.00", "unit": "hour"},
	} {
		w := s.do(t, owner, http.MethodPost, "/rate-items", row)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
}

// acceptedDraft creates and accepts a draft for the electrician job
func (s *apiServer) acceptedDraft(t *testing.T, owner uuid.UUID) uuid.UUID {
	t.Helper()
	w := s.do(t, owner, http.MethodPost, "/drafts", gin.H{"items": []gin.H{
		{"item_ref": "troubleshooting", "quantity": "3"},
		{"item_ref": "30-amp breaker", "quantity": "1"},
		{"item_ref": "travel", "quantity": "0.75"},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var d draftapp.DraftResponse
	decode(t, w, &d)

	w = s.do(t, owner, http.MethodPost, "/drafts/"+d.ID.String()+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return d.ID
}

func TestInvoiceAPI_ConfirmOnPostgres(t *testing.T) {
	srv := newAPIServer(t)
	owner := uuid.New()
	srv.seedRateCard(t, owner)

	draftID := srv.acceptedDraft(t, owner)
	confirm := gin.H{"invoice_date": "2026-03-01T00:00:00Z"}

	w := srv.do(t, owner, http.MethodPost, "/drafts/"+draftID.String()+"/confirm", confirm,
		handler.IdempotencyKeyHeader, "confirm-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv invoiceapp.InvoiceResponse
	decode(t, w, &inv)

	assert.Equal(t, "2026-0001", inv.Number)
	assert.Equal(t, "draft", inv.Status)
	assert.True(t, inv.Subtotal.Equal(dec("337.50")))
	assert.True(t, inv.TaxTotal.Equal(dec("16.88")))
	assert.True(t, inv.Total.Equal(dec("354.38")))
	assert.Equal(t, "2026-03-31", inv.DueDate.Format("2006-01-02"))
	require.Len(t, inv.Lines, 3)

	t.Run("retry with the same key returns the same invoice", func(t *testing.T) {
		w := srv.do(t, owner, http.MethodPost, "/drafts/"+draftID.String()+"/confirm", confirm,
			handler.IdempotencyKeyHeader, "confirm-1")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var again invoiceapp.InvoiceResponse
		decode(t, w, &again)
		assert.Equal(t, inv.ID, again.ID)
	})

	t.Run("lookup by number and archive", func(t *testing.T) {
		w := srv.do(t, owner, http.MethodGet, "/invoices/number/2026-0001", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		data, err := srv.objects.Download(context.Background(), invoiceapp.ArchiveKey(owner, inv.Number))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"number":"2026-0001"`)
	})

	t.Run("other owners cannot see it", func(t *testing.T) {
		w := srv.do(t, uuid.New(), http.MethodGet, "/invoices/"+inv.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("payments settle the invoice", func(t *testing.T) {
		w := srv.do(t, owner, http.MethodPost, "/invoices/"+inv.ID.String()+"/send", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = srv.do(t, owner, http.MethodPost, "/invoices/"+inv.ID.String()+"/payments",
			gin.H{"amount": "354.38", "method": "card"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var paid invoiceapp.InvoiceResponse
		decode(t, w, &paid)
		assert.Equal(t, "paid", paid.Status)
		assert.True(t, paid.Balance.IsZero())
	})
}

func TestInvoiceAPI_ConcurrentConfirmationsNumberSequentially(t *testing.T) {
	srv := newAPIServer(t)
	owner := uuid.New()
	srv.seedRateCard(t, owner)

	const n = 8
	drafts := make([]uuid.UUID, n)
	for i := range drafts {
		drafts[i] = srv.acceptedDraft(t, owner)
	}

	numbers := make([]string, n)
	var wg sync.WaitGroup
	for i, id := range drafts {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			w := srv.do(t, owner, http.MethodPost, "/drafts/"+id.String()+"/confirm",
				gin.H{"invoice_date": "2026-05-10T00:00:00Z"})
			if w.Code != http.StatusCreated {
				t.Errorf("confirm %d: %d %s", i, w.Code, w.Body.String())
				return
			}
			var inv invoiceapp.InvoiceResponse
			decode(t, w, &inv)
			numbers[i] = inv.Number
		}(i, id)
	}
	wg.Wait()

	sort.Strings(numbers)
	for i, number := range numbers {
		assert.Equal(t, fmt.Sprintf("2026-%04d", i+1), number)
	}

	// a second owner starts its own sequence
	other := uuid.New()
	srv.seedRateCard(t, other)
	w := srv.do(t, other, http.MethodPost, "/drafts/"+srv.acceptedDraft(t, other).String()+"/confirm",
		gin.H{"invoice_date": "2026-05-10T00:00:00Z"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv invoiceapp.InvoiceResponse
	decode(t, w, &inv)
	assert.Equal(t, "2026-0001", inv.Number)
}

func TestInvoiceAPI_RequiresToken(t *testing.T) {
	srv := newAPIServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	srv.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
}
