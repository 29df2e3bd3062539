package handler

import (
	"github.com/gin-gonic/gin"
	draftapp "github.com/smartinvoice/backend/internal/application/draft"
)

// IdempotencyKeyHeader lets clients retry a confirmation safely
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// DraftHandler drives the draft review workflow and stateless quotes
type DraftHandler struct {
	BaseHandler
	draftService *draftapp.DraftService
}

// NewDraftHandler creates a new DraftHandler
func NewDraftHandler(draftService *draftapp.DraftService) *DraftHandler {
	return &DraftHandler{draftService: draftService}
}

// Create handles POST /drafts. Explicit items skip extraction; otherwise the
// work description goes to the extractor.
func (h *DraftHandler) Create(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}
	var req draftapp.CreateDraftRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if len(req.Items) == 0 && req.WorkDescription == "" {
		h.BadRequest(c, "Either work_description or items is required")
		return
	}

	draft, err := h.draftService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, draft)
}

// Get handles GET /drafts/:id
func (h *DraftHandler) Get(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	draft, err := h.draftService.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, draft)
}

// EditItems handles PUT /drafts/:id/items
func (h *DraftHandler) EditItems(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req draftapp.EditDraftRequest
	if !h.bindJSON(c, &req) {
		return
	}

	draft, err := h.draftService.Edit(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, draft)
}

// Accept handles POST /drafts/:id/accept
func (h *DraftHandler) Accept(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	draft, err := h.draftService.Accept(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, draft)
}

// Confirm handles POST /drafts/:id/confirm. Repeating the call returns the
// invoice created by the first one.
func (h *DraftHandler) Confirm(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.BadRequest(c, "Idempotency-Key must be at most 128 characters")
		return
	}
	var req draftapp.ConfirmDraftRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.draftService.Confirm(c.Request.Context(), ownerID, id, req, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// Discard handles DELETE /drafts/:id
func (h *DraftHandler) Discard(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.draftService.Discard(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Quote handles POST /pricing/quote. Nothing is stored.
func (h *DraftHandler) Quote(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}
	var req draftapp.QuoteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	priced, err := h.draftService.Quote(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, priced)
}
