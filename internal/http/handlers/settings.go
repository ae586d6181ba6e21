package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deckforge/deckforge-backend/internal/http/response"
	"github.com/deckforge/deckforge-backend/internal/services"
)

type SettingsHandler struct {
	settings services.SettingsService
}

func NewSettingsHandler(settings services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GET /api/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context(), nil)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, settings)
}

type setOpenAIKeyRequest struct {
	OpenAIAPIKey string `json:"openAIApiKey"`
}

// PUT /api/settings/openai-key
func (h *SettingsHandler) SetOpenAIKey(c *gin.Context) {
	var req setOpenAIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	settings, err := h.settings.SetOpenAIKey(c.Request.Context(), nil, req.OpenAIAPIKey)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, settings)
}

// DELETE /api/settings/openai-key
func (h *SettingsHandler) ClearOpenAIKey(c *gin.Context) {
	settings, err := h.settings.ClearOpenAIKey(c.Request.Context(), nil)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, settings)
}
