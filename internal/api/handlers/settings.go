package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/pokefolio/backend/internal/models"
	"github.com/codyseavey/pokefolio/backend/internal/services"
)

type SettingsHandler struct {
	settings  *services.SettingsService
	converter *services.CurrencyConverter
}

func NewSettingsHandler(settings *services.SettingsService, converter *services.CurrencyConverter) *SettingsHandler {
	return &SettingsHandler{settings: settings, converter: converter}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var upd models.SettingsUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	settings, err := h.settings.Update(upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) ResetSettings(c *gin.Context) {
	settings, err := h.settings.Reset()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// Convert handles GET /currency/convert?amount=&from=&to=.
func (h *SettingsHandler) Convert(c *gin.Context) {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a number"})
		return
	}
	from := models.NormalizeCurrency(c.DefaultQuery("from", models.CurrencyEUR))
	to := models.NormalizeCurrency(c.DefaultQuery("to", models.CurrencyEUR))

	converted, ok := h.converter.Convert(amount, from, to)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be finite"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"amount":    converted,
		"currency":  to,
		"formatted": services.FormatMoneyFloat(converted, to),
		"rates":     h.converter.Rates(),
	})
}
