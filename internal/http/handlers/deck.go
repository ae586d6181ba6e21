package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/deckforge/deckforge-backend/internal/http/response"
	"github.com/deckforge/deckforge-backend/internal/services"
)

type DeckHandler struct {
	decks services.DeckService
}

func NewDeckHandler(decks services.DeckService) *DeckHandler {
	return &DeckHandler{decks: decks}
}

type createDeckRequest struct {
	Title        string `json:"title"`
	DecklistText string `json:"decklistText"`
}

// POST /api/decks
func (h *DeckHandler) CreateDeck(c *gin.Context) {
	var req createDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	result, err := h.decks.Create(c.Request.Context(), nil, req.Title, req.DecklistText)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, result)
}

// GET /api/decks
func (h *DeckHandler) ListDecks(c *gin.Context) {
	decks, err := h.decks.List(c.Request.Context(), nil)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"decks": decks})
}

// GET /api/decks/:id
func (h *DeckHandler) GetDeck(c *gin.Context) {
	deckID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid-deck-id", err)
		return
	}
	detail, err := h.decks.Get(c.Request.Context(), nil, deckID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

// DELETE /api/decks/:id
func (h *DeckHandler) DeleteDeck(c *gin.Context) {
	deckID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid-deck-id", err)
		return
	}
	if err := h.decks.Delete(c.Request.Context(), nil, deckID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deckId": deckID})
}
