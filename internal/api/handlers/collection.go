package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/pokefolio/backend/internal/models"
	"github.com/codyseavey/pokefolio/backend/internal/services"
)

type CollectionHandler struct {
	collection *services.CollectionService
	dashboard  *services.DashboardService
	snapshots  *services.SnapshotService
}

func NewCollectionHandler(collection *services.CollectionService, dashboard *services.DashboardService, snapshots *services.SnapshotService) *CollectionHandler {
	return &CollectionHandler{
		collection: collection,
		dashboard:  dashboard,
		snapshots:  snapshots,
	}
}

func (h *CollectionHandler) GetCollection(c *gin.Context) {
	items, err := h.collection.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *CollectionHandler) AddToCollection(c *gin.Context) {
	var req models.AddToCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.collection.Add(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *CollectionHandler) UpdateCollectionItem(c *gin.Context) {
	var req models.UpdateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.collection.Update(c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CollectionHandler) DeleteCollectionItem(c *gin.Context) {
	if err := h.collection.Remove(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}

// GetDashboard returns collection value, distributions, set progress and
// price alerts.
func (h *CollectionHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.dashboard.Build()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GetValueHistory returns collection value snapshots for charting
func (h *CollectionHandler) GetValueHistory(c *gin.Context) {
	period := c.DefaultQuery("period", "month")

	snapshots, err := h.snapshots.GetHistory(period)
	if err != nil {
		respondError(c, err)
		return
	}
	latest, err := h.snapshots.Latest()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ValueHistoryResponse{
		Snapshots: snapshots,
		Period:    period,
		Latest:    latest,
	})
}

// TakeSnapshot records today's value immediately.
func (h *CollectionHandler) TakeSnapshot(c *gin.Context) {
	snapshot, err := h.snapshots.TakeSnapshot()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}
