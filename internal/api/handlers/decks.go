package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/pokefolio/backend/internal/models"
	"github.com/codyseavey/pokefolio/backend/internal/services"
)

type DeckHandler struct {
	decks *services.DeckService
}

func NewDeckHandler(decks *services.DeckService) *DeckHandler {
	return &DeckHandler{decks: decks}
}

func (h *DeckHandler) ListDecks(c *gin.Context) {
	decks, err := h.decks.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, decks)
}

func (h *DeckHandler) GetDeck(c *gin.Context) {
	deck, err := h.decks.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deckResponse(deck))
}

func (h *DeckHandler) CreateDeck(c *gin.Context) {
	var req models.DeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	deck, err := h.decks.Create(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deckResponse(deck))
}

func (h *DeckHandler) UpdateDeck(c *gin.Context) {
	var req models.DeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	deck, err := h.decks.Update(c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deckResponse(deck))
}

func (h *DeckHandler) DeleteDeck(c *gin.Context) {
	if err := h.decks.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deck deleted"})
}

func (h *DeckHandler) AddCard(c *gin.Context) {
	var req models.DeckCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	deck, err := h.decks.AddCard(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deckResponse(deck))
}

// SetCardQuantity handles PUT /decks/:id/cards/:cardId?category=main.
// A quantity of zero removes the line.
func (h *DeckHandler) SetCardQuantity(c *gin.Context) {
	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category := models.DeckCategory(c.DefaultQuery("category", string(models.DeckCategoryMain)))

	deck, err := h.decks.SetCardQuantity(c.Param("id"), c.Param("cardId"), category, *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deckResponse(deck))
}

func (h *DeckHandler) RemoveCard(c *gin.Context) {
	category := models.DeckCategory(c.DefaultQuery("category", string(models.DeckCategoryMain)))
	deck, err := h.decks.SetCardQuantity(c.Param("id"), c.Param("cardId"), category, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deckResponse(deck))
}

// ExportDecks returns every deck as a plain text list.
func (h *DeckHandler) ExportDecks(c *gin.Context) {
	decks, err := h.decks.List()
	if err != nil {
		respondError(c, err)
		return
	}
	if len(decks) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no decks"})
		return
	}
	body := services.ExportDeckList(decks)
	c.Header("Content-Disposition", "attachment; filename=pokefolio-decks.txt")
	c.Header("Content-Length", strconv.Itoa(len(body)))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

func deckResponse(deck *models.Deck) models.DeckResponse {
	return models.DeckResponse{Deck: *deck, Warnings: services.ValidateDeck(deck)}
}
