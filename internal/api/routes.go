package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codyseavey/pokefolio/backend/internal/api/handlers"
	"github.com/codyseavey/pokefolio/backend/internal/config"
	"github.com/codyseavey/pokefolio/backend/internal/metrics"
	"github.com/codyseavey/pokefolio/backend/internal/services"
)

// Services bundles everything the router needs.
type Services struct {
	Search     *services.SearchService
	Cards      *services.CardCache
	Reference  *services.ReferenceService
	OCR        *services.OCRMatcher
	Collection *services.CollectionService
	Wishlist   *services.WishlistService
	Decks      *services.DeckService
	Settings   *services.SettingsService
	Converter  *services.CurrencyConverter
	Dashboard  *services.DashboardService
	Snapshots  *services.SnapshotService
	Prices     *services.PriceService
	Worker     *services.PriceWorker
}

func SetupRouter(cfg config.ServerConfig, svc Services) *gin.Engine {
	router := gin.Default()
	router.Use(metricsMiddleware())

	frontendPath := cfg.FrontendDistPath
	serveFrontend := frontendPath != "" && dirExists(frontendPath)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = false
	router.Use(cors.New(corsConfig))

	cardHandler := handlers.NewCardHandler(svc.Search, svc.Cards, svc.Reference, svc.OCR)
	collectionHandler := handlers.NewCollectionHandler(svc.Collection, svc.Dashboard, svc.Snapshots)
	wishlistHandler := handlers.NewWishlistHandler(svc.Wishlist)
	deckHandler := handlers.NewDeckHandler(svc.Decks)
	settingsHandler := handlers.NewSettingsHandler(svc.Settings, svc.Converter)
	priceHandler := handlers.NewPriceHandler(svc.Worker, svc.Prices)

	api := router.Group("/api")
	{
		cards := api.Group("/cards")
		{
			cards.GET("/search", cardHandler.SearchCards)
			cards.GET("/:id", cardHandler.GetCard)
			cards.POST("/identify", cardHandler.IdentifyCard)
			cards.POST("/:id/refresh-price", priceHandler.RefreshCardPrice)
		}

		api.GET("/reference", cardHandler.GetReferenceData)

		collection := api.Group("/collection")
		{
			collection.GET("", collectionHandler.GetCollection)
			collection.POST("", collectionHandler.AddToCollection)
			collection.PUT("/:id", collectionHandler.UpdateCollectionItem)
			collection.DELETE("/:id", collectionHandler.DeleteCollectionItem)
			collection.GET("/dashboard", collectionHandler.GetDashboard)
			collection.GET("/value-history", collectionHandler.GetValueHistory)
			collection.POST("/snapshot", collectionHandler.TakeSnapshot)
			collection.POST("/refresh-prices", priceHandler.RefreshAll)
		}

		wishlist := api.Group("/wishlist")
		{
			wishlist.GET("", wishlistHandler.GetWishlist)
			wishlist.POST("", wishlistHandler.AddToWishlist)
			wishlist.PUT("/:id", wishlistHandler.UpdateWishlistItem)
			wishlist.DELETE("/:id", wishlistHandler.DeleteWishlistItem)
			wishlist.POST("/:id/move-to-collection", wishlistHandler.MoveToCollection)
		}

		decks := api.Group("/decks")
		{
			decks.GET("", deckHandler.ListDecks)
			decks.POST("", deckHandler.CreateDeck)
			decks.GET("/export", deckHandler.ExportDecks)
			decks.GET("/:id", deckHandler.GetDeck)
			decks.PUT("/:id", deckHandler.UpdateDeck)
			decks.DELETE("/:id", deckHandler.DeleteDeck)
			decks.POST("/:id/cards", deckHandler.AddCard)
			decks.PUT("/:id/cards/:cardId", deckHandler.SetCardQuantity)
			decks.DELETE("/:id/cards/:cardId", deckHandler.RemoveCard)
		}

		settings := api.Group("/settings")
		{
			settings.GET("", settingsHandler.GetSettings)
			settings.PUT("", settingsHandler.UpdateSettings)
			settings.POST("/reset", settingsHandler.ResetSettings)
		}
		api.GET("/currency/convert", settingsHandler.Convert)

		prices := api.Group("/prices")
		{
			prices.GET("/status", priceHandler.GetPriceStatus)
		}
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if serveFrontend {
		indexPath := filepath.Join(frontendPath, "index.html")

		router.Static("/assets", filepath.Join(frontendPath, "assets"))
		router.GET("/", func(c *gin.Context) {
			c.File(indexPath)
		})

		// SPA fallback - serve index.html for all non-API routes
		router.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.File(indexPath)
		})
	}

	return router
}

// metricsMiddleware records request counts and latency per route template.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
