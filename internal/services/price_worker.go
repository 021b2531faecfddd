package services

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

const defaultCheckInterval = time.Hour

type PriceWorker struct {
	priceService  *PriceService
	settings      *SettingsService
	checkInterval time.Duration
	now           func() time.Time
	mu            sync.RWMutex

	// Priority queue for user-requested refreshes
	urgentQueue []string
	urgentMu    sync.Mutex

	lastRun     time.Time
	lastSummary *RefreshSummary
	lastError   string
}

type PriceStatus struct {
	LastPriceUpdate   *time.Time      `json:"last_price_update"`
	NextPriceUpdate   *time.Time      `json:"next_price_update,omitempty"`
	PriceIntervalDays int             `json:"price_interval_days"`
	QueueSize         int             `json:"queue_size"`
	LastRun           time.Time       `json:"last_run,omitempty"`
	LastSummary       *RefreshSummary `json:"last_summary,omitempty"`
	LastError         string          `json:"last_error,omitempty"`
}

func NewPriceWorker(priceService *PriceService, settings *SettingsService) *PriceWorker {
	return &PriceWorker{
		priceService:  priceService,
		settings:      settings,
		checkInterval: defaultCheckInterval,
		now:           time.Now,
	}
}

// QueueRefresh adds a card to the high-priority refresh queue and returns
// its 1-indexed position.
func (w *PriceWorker) QueueRefresh(cardID string) int {
	w.urgentMu.Lock()
	defer w.urgentMu.Unlock()

	if i := slices.Index(w.urgentQueue, cardID); i >= 0 {
		return i + 1
	}
	w.urgentQueue = append(w.urgentQueue, cardID)
	log.Printf("Price worker: queued refresh for card %s (queue size: %d)", cardID, len(w.urgentQueue))
	return len(w.urgentQueue)
}

func (w *PriceWorker) GetQueueSize() int {
	w.urgentMu.Lock()
	defer w.urgentMu.Unlock()
	return len(w.urgentQueue)
}

// Start runs queued refreshes and the scheduled full refresh until ctx is done.
func (w *PriceWorker) Start(ctx context.Context) {
	log.Printf("Price worker started: checking every %v", w.checkInterval)

	w.Tick(ctx)

	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Price worker stopping...")
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick drains the urgent queue, then runs a full refresh if one is due.
func (w *PriceWorker) Tick(ctx context.Context) {
	w.urgentMu.Lock()
	urgent := w.urgentQueue
	w.urgentQueue = nil
	w.urgentMu.Unlock()

	if len(urgent) > 0 {
		log.Printf("Price worker: processing %d urgent refresh requests", len(urgent))
	}
	for _, id := range urgent {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.priceService.RefreshEntry(ctx, id); err != nil {
			log.Printf("Price worker: refresh of %s failed: %v", id, err)
		}
	}

	settings, err := w.settings.Get()
	if err != nil {
		log.Printf("Price worker: failed to load settings: %v", err)
		return
	}
	if !DueForRefresh(settings, w.now()) {
		return
	}

	summary, err := w.priceService.RefreshAll(ctx)
	w.mu.Lock()
	w.lastRun = w.now()
	w.lastSummary = summary
	w.lastError = ""
	if err != nil {
		w.lastError = err.Error()
	}
	w.mu.Unlock()

	if err != nil {
		log.Printf("Price worker: scheduled refresh failed: %v", err)
	}
}

// GetStatus returns current worker status
func (w *PriceWorker) GetStatus() PriceStatus {
	status := PriceStatus{QueueSize: w.GetQueueSize()}

	w.mu.RLock()
	status.LastRun = w.lastRun
	status.LastSummary = w.lastSummary
	status.LastError = w.lastError
	w.mu.RUnlock()

	settings, err := w.settings.Get()
	if err != nil {
		return status
	}
	status.PriceIntervalDays = settings.PriceIntervalDays
	status.LastPriceUpdate = settings.LastPriceUpdate
	status.NextPriceUpdate = nextPriceUpdate(settings)
	return status
}

func nextPriceUpdate(settings *models.Settings) *time.Time {
	if settings.LastPriceUpdate == nil {
		return nil
	}
	next := settings.LastPriceUpdate.AddDate(0, 0, settings.PriceIntervalDays)
	return &next
}
