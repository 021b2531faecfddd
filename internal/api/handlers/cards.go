package handlers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/pokefolio/backend/internal/models"
	"github.com/codyseavey/pokefolio/backend/internal/services"
)

type CardHandler struct {
	search    *services.SearchService
	cards     *services.CardCache
	reference *services.ReferenceService
	ocr       *services.OCRMatcher
}

func NewCardHandler(search *services.SearchService, cards *services.CardCache, reference *services.ReferenceService, ocr *services.OCRMatcher) *CardHandler {
	return &CardHandler{
		search:    search,
		cards:     cards,
		reference: reference,
		ocr:       ocr,
	}
}

// SearchCards runs a filtered search. A search superseded by a newer one
// answers {"aborted": true}.
func (h *CardHandler) SearchCards(c *gin.Context) {
	var filter models.SearchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.search.Search(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *CardHandler) GetCard(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card id is required"})
		return
	}

	card, err := h.cards.CardDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"card":        card,
		"details_url": card.DetailsURL(),
	})
}

// GetReferenceData returns sets, series and the filter enumerations.
func (h *CardHandler) GetReferenceData(c *gin.Context) {
	var (
		data *models.ReferenceData
		err  error
	)
	if c.Query("refresh") == "true" {
		data, err = h.reference.Refresh(c.Request.Context())
	} else {
		data, err = h.reference.Get(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// IdentifyCard matches recognized card text. It accepts either a JSON body
// {"text": "..."} or a multipart "image" upload for the configured recognizer.
func (h *CardHandler) IdentifyCard(c *gin.Context) {
	var (
		result *services.ScanResult
		err    error
	)

	if file, ferr := c.FormFile("image"); ferr == nil {
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file"})
			return
		}
		defer src.Close()

		var buf bytes.Buffer
		if _, err := buf.ReadFrom(src); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		result, err = h.ocr.Identify(c.Request.Context(), buf.Bytes())
		if err != nil {
			respondError(c, err)
			return
		}
	} else {
		var req struct {
			Text string `json:"text" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "No text provided",
				"message": "Upload an image file or provide recognized text in the JSON body",
			})
			return
		}
		result, err = h.ocr.FindCards(c.Request.Context(), req.Text)
	}

	if err != nil {
		respondError(c, err)
		return
	}

	h.cards.RememberCards(result.Cards)
	c.JSON(http.StatusOK, result)
}
