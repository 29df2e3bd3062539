package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	clientapp "github.com/smartinvoice/backend/internal/application/client"
	draftapp "github.com/smartinvoice/backend/internal/application/draft"
	invoiceapp "github.com/smartinvoice/backend/internal/application/invoice"
	ratecardapp "github.com/smartinvoice/backend/internal/application/ratecard"
	settingsapp "github.com/smartinvoice/backend/internal/application/settings"
	"github.com/smartinvoice/backend/internal/infrastructure/cache"
	"github.com/smartinvoice/backend/internal/infrastructure/event"
	"github.com/smartinvoice/backend/internal/infrastructure/export"
	"github.com/smartinvoice/backend/internal/infrastructure/persistence"
	"github.com/smartinvoice/backend/internal/infrastructure/storage"
	"github.com/smartinvoice/backend/internal/infrastructure/strategy"
	"github.com/smartinvoice/backend/internal/interfaces/http/dto"
	"github.com/smartinvoice/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// apiEnv wires real services over a private in-memory database
type apiEnv struct {
	router  *gin.Engine
	owner   uuid.UUID
	storage *storage.MemoryObjectStorage
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	middleware.SetupValidator()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrate(db))

	log := zap.NewNop()
	registry, err := strategy.NewRegistryWithDefaults(0.8)
	require.NoError(t, err)
	objects := storage.NewMemoryObjectStorage()
	invoiceRepo := persistence.NewGormInvoiceRepository(db)

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(invoiceapp.NewInvoiceArchiveHandler(invoiceRepo, objects, log))

	rateCards := ratecardapp.NewRateCardService(persistence.NewGormRateItemRepository(db), log)
	clients := clientapp.NewClientService(persistence.NewGormClientRepository(db), log)
	settings := settingsapp.NewSettingsService(persistence.NewGormSettingsRepository(db),
		settingsapp.Defaults{Currency: "USD", PaymentTermsDays: 30}, log)
	invoices := invoiceapp.NewInvoiceService(invoiceRepo, log,
		invoiceapp.WithEventPublisher(bus),
		invoiceapp.WithExporter(export.NewXLSXExporter(log)),
	)
	drafts := draftapp.NewDraftService(rateCards, settings, clients, registry,
		cache.NewInMemoryDraftStore(), invoiceRepo, draftapp.DefaultConfig(), log,
		draftapp.WithIdempotencyStore(cache.NewInMemoryIdempotencyStore()),
		draftapp.WithEventPublisher(bus),
	)
	archived := invoiceapp.NewInvoiceService(invoiceRepo, log, invoiceapp.WithObjectStorage(objects))

	router := gin.New()
	router.Use(middleware.RequestID())
	api := router.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{Disabled: true}))

	rateItemHandler := NewRateItemHandler(rateCards)
	api.POST("/rate-items", rateItemHandler.Create)
	api.GET("/rate-items", rateItemHandler.List)
	api.GET("/rate-items/:id", rateItemHandler.GetByID)
	api.GET("/rate-items/:id/history", rateItemHandler.History)
	api.PUT("/rate-items/:id", rateItemHandler.Revise)
	api.DELETE("/rate-items/:id", rateItemHandler.Deactivate)

	clientHandler := NewClientHandler(clients)
	api.POST("/clients", clientHandler.Create)
	api.GET("/clients", clientHandler.List)
	api.GET("/clients/:id", clientHandler.GetByID)
	api.PUT("/clients/:id", clientHandler.Update)
	api.DELETE("/clients/:id", clientHandler.Delete)

	settingsHandler := NewSettingsHandler(settings)
	api.GET("/settings", settingsHandler.Get)
	api.PUT("/settings", settingsHandler.Update)

	draftHandler := NewDraftHandler(drafts)
	api.POST("/pricing/quote", draftHandler.Quote)
	api.POST("/drafts", draftHandler.Create)
	api.GET("/drafts/:id", draftHandler.Get)
	api.PUT("/drafts/:id/items", draftHandler.EditItems)
	api.POST("/drafts/:id/accept", draftHandler.Accept)
	api.POST("/drafts/:id/confirm", draftHandler.Confirm)
	api.DELETE("/drafts/:id", draftHandler.Discard)

	invoiceHandler := NewInvoiceHandler(invoices)
	api.GET("/invoices", invoiceHandler.List)
	api.GET("/invoices/export", invoiceHandler.Export)
	api.GET("/invoices/number/:number", invoiceHandler.GetByNumber)
	api.GET("/invoices/:id", invoiceHandler.GetByID)
	api.POST("/invoices/:id/send", invoiceHandler.Send)
	api.POST("/invoices/:id/payments", invoiceHandler.RecordPayment)
	api.GET("/invoices/:id/archive", NewInvoiceHandler(archived).Archive)

	return &apiEnv{router: router, owner: uuid.New(), storage: objects}
}

// do sends a request as the env owner
func (e *apiEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	return e.doAs(t, e.owner, method, path, body, headers...)
}

func (e *apiEnv) doAs(t *testing.T, owner uuid.UUID, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.DevUserHeader, owner.String())
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals the envelope and re-decodes its data into out
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

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode(t, w, nil)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seedRateCard stores the electrician rate card used across handler tests
func (e *apiEnv) seedRateCard(t *testing.T) map[string]ratecardapp.RateItemResponse {
	t.Helper()
	rows := []gin.H{
		{"name": "troubleshooting", "category": "labor", "unit_price": "85.00", "unit": "hour", "aliases": []string{"diagnostic"}},
		{"name": "30-amp breaker", "category": "materials", "unit_price": "45.00", "unit": "each"},
		{"name": "travel", "category": "other", "unit_price": "50.00", "unit": "hour"},
	}
	out := make(map[string]ratecardapp.RateItemResponse, len(rows))
	for _, row := range rows {
		w := e.do(t, http.MethodPost, "/rate-items", row)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var item ratecardapp.RateItemResponse
		decode(t, w, &item)
		out[item.Name] = item
	}
	return out
}

// scenarioItems reproduces the electrician job: 3h troubleshooting, one breaker, 0.75h travel
func scenarioItems() []gin.H {
	return []gin.H{
		{"item_ref": "troubleshooting", "quantity": "3"},
		{"item_ref": "30-amp breaker", "quantity": "1"},
		{"item_ref": "travel", "quantity": "0.75"},
	}
}

// confirmedInvoice walks a scenario draft to an invoice
func (e *apiEnv) confirmedInvoice(t *testing.T) invoiceapp.InvoiceResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/drafts", gin.H{"items": scenarioItems()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var draft draftapp.DraftResponse
	decode(t, w, &draft)

	w = e.do(t, http.MethodPost, "/drafts/"+draft.ID.String()+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/drafts/"+draft.ID.String()+"/confirm", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv invoiceapp.InvoiceResponse
	decode(t, w, &inv)
	return inv
}
