package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/codyseavey/pokefolio/backend/internal/api"
	"github.com/codyseavey/pokefolio/backend/internal/config"
	"github.com/codyseavey/pokefolio/backend/internal/database"
	"github.com/codyseavey/pokefolio/backend/internal/models"
	"github.com/codyseavey/pokefolio/backend/internal/services"
)

func main() {
	// A missing .env is fine; real environment variables still apply
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load(os.Getenv("POKEFOLIO_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	cardAPI := services.NewPokemonTCGService(services.PokemonTCGOptions{
		BaseURL:           cfg.API.BaseURL,
		APIKey:            cfg.API.Key,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
		Timeout:           cfg.API.Timeout,
	})
	if cfg.API.Key == "" {
		log.Println("No Pokemon TCG API key configured, using public rate limits")
	}

	cardCache := services.NewCardCache(cardAPI, db, cfg.Search.CardCacheMax)
	searchCache := services.NewSearchCache(cfg.Search.CacheEntries, cfg.Search.CacheTTL, time.Now)
	searchService := services.NewSearchService(cardAPI, searchCache, cardCache, cfg.Search.PageSize)
	referenceService := services.NewReferenceService(cardAPI)
	ocrMatcher := services.NewOCRMatcher(cardAPI, services.StaticRecognizer{}, cfg.Scan.MaxResults)

	aggregator := services.NewPriceAggregator(services.NewCurrencyConverter(), time.Now)
	settingsService := services.NewSettingsService(db, aggregator, models.Settings{
		Currency:          cfg.Settings.Currency,
		ValuationMode:     models.ValuationMode(cfg.Settings.ValuationMode),
		USDRate:           cfg.Settings.USDRate,
		GBPRate:           cfg.Settings.GBPRate,
		PriceIntervalDays: cfg.Settings.PriceIntervalDays,
	})
	if _, err := settingsService.Get(); err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	collectionService := services.NewCollectionService(db, cardCache, aggregator, settingsService)
	wishlistService := services.NewWishlistService(db, cardCache, aggregator, settingsService, collectionService)
	deckService := services.NewDeckService(db, cardCache)
	dashboardService := services.NewDashboardService(collectionService, wishlistService, settingsService)
	priceService := services.NewPriceService(db, cardCache, aggregator, settingsService)
	priceWorker := services.NewPriceWorker(priceService, settingsService)
	snapshotService := services.NewSnapshotService(db, dashboardService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start price worker in background with panic recovery
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("PANIC in price worker: %v - restarting in 30 seconds", r)
					}
				}()
				priceWorker.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return
			case <-time.After(30 * time.Second):
				log.Println("Price worker restarting after panic recovery...")
			}
		}
	}()

	go snapshotService.Start(ctx)

	// Warm the reference data so the first search form renders quickly
	go func() {
		if _, err := referenceService.Get(ctx); err != nil {
			log.Printf("Reference data warmup failed: %v", err)
		}
	}()

	router := api.SetupRouter(cfg.Server, api.Services{
		Search:     searchService,
		Cards:      cardCache,
		Reference:  referenceService,
		OCR:        ocrMatcher,
		Collection: collectionService,
		Wishlist:   wishlistService,
		Decks:      deckService,
		Settings:   settingsService,
		Converter:  aggregator.Converter(),
		Dashboard:  dashboardService,
		Snapshots:  snapshotService,
		Prices:     priceService,
		Worker:     priceWorker,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel the context to stop the background workers
	cancel()
	searchService.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
