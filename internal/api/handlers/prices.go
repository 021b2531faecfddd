package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/pokefolio/backend/internal/services"
)

type PriceHandler struct {
	priceWorker  *services.PriceWorker
	priceService *services.PriceService
}

func NewPriceHandler(priceWorker *services.PriceWorker, priceService *services.PriceService) *PriceHandler {
	return &PriceHandler{
		priceWorker:  priceWorker,
		priceService: priceService,
	}
}

// GetPriceStatus returns the refresh schedule and the last run
func (h *PriceHandler) GetPriceStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.priceWorker.GetStatus())
}

// RefreshAll refreshes every collection and wishlist price now.
func (h *PriceHandler) RefreshAll(c *gin.Context) {
	summary, err := h.priceService.RefreshAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RefreshCardPrice refreshes one card immediately, or queues it for the
// worker with ?async=true.
func (h *PriceHandler) RefreshCardPrice(c *gin.Context) {
	cardID := c.Param("id")
	if cardID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card id is required"})
		return
	}

	if c.Query("async") == "true" {
		position := h.priceWorker.QueueRefresh(cardID)
		c.JSON(http.StatusAccepted, gin.H{"queued": true, "position": position})
		return
	}

	summary, err := h.priceService.RefreshEntry(c.Request.Context(), cardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
