package handler

import (
	"github.com/gin-gonic/gin"
	settingsapp "github.com/smartinvoice/backend/internal/application/settings"
)

// SettingsHandler exposes the owner's business settings and tax configuration
type SettingsHandler struct {
	BaseHandler
	settingsService *settingsapp.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *settingsapp.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// Get handles GET /settings. Owners without stored settings get the defaults.
func (h *SettingsHandler) Get(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}

	settings, err := h.settingsService.Get(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}

// Update handles PUT /settings
func (h *SettingsHandler) Update(c *gin.Context) {
	ownerID, ok := h.getOwnerID(c)
	if !ok {
		return
	}
	var req settingsapp.UpdateSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}
