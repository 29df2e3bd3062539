package router

import (
	"github.com/smartinvoice/backend/internal/interfaces/http/handler"
)

// Handlers are the resource handlers served under the API prefix
type Handlers struct {
	System    *handler.SystemHandler
	RateItems *handler.RateItemHandler
	Clients   *handler.ClientHandler
	Settings  *handler.SettingsHandler
	Drafts    *handler.DraftHandler
	Invoices  *handler.InvoiceHandler
}

// APIGroups returns one route group per resource
func APIGroups(h Handlers) []RouteRegistrar {
	rateItems := NewDomainGroup("rate-items", "/rate-items").
		POST("", h.RateItems.Create).
		GET("", h.RateItems.List).
		GET("/:id", h.RateItems.GetByID).
		GET("/:id/history", h.RateItems.History).
		PUT("/:id", h.RateItems.Revise).
		DELETE("/:id", h.RateItems.Deactivate)

	clients := NewDomainGroup("clients", "/clients").
		POST("", h.Clients.Create).
		GET("", h.Clients.List).
		GET("/:id", h.Clients.GetByID).
		PUT("/:id", h.Clients.Update).
		DELETE("/:id", h.Clients.Delete)

	settings := NewDomainGroup("settings", "/settings").
		GET("", h.Settings.Get).
		PUT("", h.Settings.Update)

	pricing := NewDomainGroup("pricing", "/pricing").
		POST("/quote", h.Drafts.Quote)

	drafts := NewDomainGroup("drafts", "/drafts").
		POST("", h.Drafts.Create).
		GET("/:id", h.Drafts.Get).
		PUT("/:id/items", h.Drafts.EditItems).
		POST("/:id/accept", h.Drafts.Accept).
		POST("/:id/confirm", h.Drafts.Confirm).
		DELETE("/:id", h.Drafts.Discard)

	// static segments are registered next to :id, which gin resolves by priority
	invoices := NewDomainGroup("invoices", "/invoices").
		GET("", h.Invoices.List).
		GET("/export", h.Invoices.Export).
		GET("/number/:number", h.Invoices.GetByNumber).
		GET("/:id", h.Invoices.GetByID).
		GET("/:id/archive", h.Invoices.Archive).
		POST("/:id/send", h.Invoices.Send).
		POST("/:id/payments", h.Invoices.RecordPayment)

	system := NewDomainGroup("system", "/system").
		GET("/health", h.System.Health).
		GET("/info", h.System.GetSystemInfo)

	return []RouteRegistrar{rateItems, clients, settings, pricing, drafts, invoices, system}
}
