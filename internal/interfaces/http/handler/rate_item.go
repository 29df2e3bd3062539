package handler

import (
	"github.com/gin-gonic/gin"
	ratecardapp "github.com/smartinvoice/backend/internal/application/ratecard"
)

// RateItemHandler serves the owner's rate card
type RateItemHandler struct {
	BaseHandler
	rateCardService *ratecardapp.RateCardService
}

// NewRateItemHandler creates a new RateItemHandler
func NewRateItemHandler(rateCardService *ratecardapp.RateCardService) *RateItemHandler {
	return &RateItemHandler{rateCardService: rateCardService}
}

// Create handles POST /rate-items
func (h *RateItemHandler) Create(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}
	var req ratecardapp.CreateRateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.rateCardService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// List handles GET /rate-items
func (h *RateItemHandler) List(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}
	var filter ratecardapp.RateItemListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 50
	}

	items, total, err := h.rateCardService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetByID handles GET /rate-items/:id
func (h *RateItemHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	item, err := h.rateCardService.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// History handles GET /rate-items/:id/history, oldest revision first
func (h *RateItemHandler) History(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	items, err := h.rateCardService.History(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Revise handles PUT /rate-items/:id. The stored row is superseded by a new
// revision, so invoices priced against the old one keep their numbers.
func (h *RateItemHandler) Revise(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req ratecardapp.ReviseRateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.rateCardService.Revise(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Deactivate handles DELETE /rate-items/:id
func (h *RateItemHandler) Deactivate(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.rateCardService.Deactivate(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
