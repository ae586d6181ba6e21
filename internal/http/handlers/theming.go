package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/deckforge/deckforge-backend/internal/http/response"
	"github.com/deckforge/deckforge-backend/internal/services"
)

type ThemingHandler struct {
	theming    services.ThemingService
	images     services.ThemedImageService
	composites services.CompositeService
}

func NewThemingHandler(theming services.ThemingService, images services.ThemedImageService, composites services.CompositeService) *ThemingHandler {
	return &ThemingHandler{theming: theming, images: images, composites: composites}
}

type startThemingRequest struct {
	ThemeUniverse          string `json:"themeUniverse"`
	ArtStyleBrief          string `json:"artStyleBrief"`
	ConfirmDiscardPrevious bool   `json:"confirmDiscardPrevious"`
}

// POST /api/decks/:id/theme
func (h *ThemingHandler) StartTheming(c *gin.Context) {
	deckID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid-deck-id", err)
		return
	}
	var req startThemingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	result, err := h.theming.StartTheming(c.Request.Context(), services.ThemingStartInput{
		DeckID:                 deckID,
		ThemeUniverse:          req.ThemeUniverse,
		ArtStyleBrief:          req.ArtStyleBrief,
		ConfirmDiscardPrevious: req.ConfirmDiscardPrevious,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}

type generateImagesRequest struct {
	ForceRegenerate bool `json:"forceRegenerate"`
}

// POST /api/decks/:id/theme/images
func (h *ThemingHandler) GenerateImages(c *gin.Context) {
	deckID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid-deck-id", err)
		return
	}
	var req generateImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	result, err := h.images.GenerateAll(c.Request.Context(), deckID, req.ForceRegenerate)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}

type generateCardImageRequest struct {
	OriginalCardName  string `json:"originalCardName"`
	ThemedName        string `json:"themedName"`
	ThemedImagePrompt string `json:"themedImagePrompt"`
	ForceRegenerate   bool   `json:"forceRegenerate"`
}

// POST /api/decks/:id/theme/images/card
func (h *ThemingHandler) GenerateCardImage(c *gin.Context) {
	deckID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid-deck-id", err)
		return
	}
	var req generateCardImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	result, err := h.images.GenerateForCard(c.Request.Context(), services.SingleImageInput{
		DeckID:            deckID,
		OriginalCardName:  req.OriginalCardName,
		ThemedName:        req.ThemedName,
		ThemedImagePrompt: req.ThemedImagePrompt,
		ForceRegenerate:   req.ForceRegenerate,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}

type generateCompositeRequest struct {
	OriginalCardName string `json:"originalCardName"`
	ThemedName       string `json:"themedName"`
	ForceRegenerate  bool   `json:"forceRegenerate"`
}

// POST /api/decks/:id/theme/composites/card
func (h *ThemingHandler) GenerateCardComposite(c *gin.Context) {
	deckID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid-deck-id", err)
		return
	}
	var req generateCompositeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	result, err := h.composites.GenerateForCard(c.Request.Context(), services.CompositeInput{
		DeckID:           deckID,
		OriginalCardName: req.OriginalCardName,
		ThemedName:       req.ThemedName,
		ForceRegenerate:  req.ForceRegenerate,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}
