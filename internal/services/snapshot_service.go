package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

const (
	// Automatic snapshots are taken at or after this hour.
	defaultSnapshotHour   = 23
	snapshotCheckInterval = 15 * time.Minute
	defaultHistoryPeriod  = "month"
)

// historyWindows maps a history period to the oldest date it includes.
// "all" has no lower bound.
var historyWindows = map[string]func(time.Time) time.Time{
	"week":   func(t time.Time) time.Time { return t.AddDate(0, 0, -7) },
	"month":  func(t time.Time) time.Time { return t.AddDate(0, -1, 0) },
	"3month": func(t time.Time) time.Time { return t.AddDate(0, -3, 0) },
	"year":   func(t time.Time) time.Time { return t.AddDate(-1, 0, 0) },
}

// SnapshotService records one value snapshot per day.
type SnapshotService struct {
	db        *gorm.DB
	dashboard *DashboardService
	now       func() time.Time
	hour      int

	mu sync.Mutex
}

func NewSnapshotService(db *gorm.DB, dashboard *DashboardService) *SnapshotService {
	return &SnapshotService{db: db, dashboard: dashboard, now: time.Now, hour: defaultSnapshotHour}
}

// Start checks every quarter hour until ctx is done.
func (s *SnapshotService) Start(ctx context.Context) {
	log.Printf("Snapshots: daily value snapshot after %02d:00", s.hour)
	s.snapshotIfDue()

	ticker := time.NewTicker(snapshotCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Snapshots: stopped")
			return
		case <-ticker.C:
			s.snapshotIfDue()
		}
	}
}

func (s *SnapshotService) snapshotIfDue() {
	now := s.now()
	if now.Hour() < s.hour {
		return
	}

	done, err := s.recordedOn(now)
	if err != nil {
		log.Printf("Snapshots: %v", err)
		return
	}
	if done {
		return
	}
	if _, err := s.TakeSnapshot(); err != nil {
		log.Printf("Snapshots: automatic snapshot failed: %v", err)
	}
}

func (s *SnapshotService) recordedOn(day time.Time) (bool, error) {
	from := startOfDay(day)

	var count int64
	err := s.db.Model(&models.CollectionValueSnapshot{}).
		Where("snapshot_date >= ? AND snapshot_date < ?", from, from.AddDate(0, 0, 1)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up snapshot for %s: %w", from.Format(time.DateOnly), err)
	}
	return count > 0, nil
}

// TakeSnapshot records today's collection value in the settings currency.
// A second snapshot on the same day replaces the first.
func (s *SnapshotService) TakeSnapshot() (*models.CollectionValueSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dashboard, err := s.dashboard.Build()
	if err != nil {
		return nil, err
	}

	now := s.now()
	day := models.CollectionValueSnapshot{SnapshotDate: startOfDay(now), CreatedAt: now}
	values := models.CollectionValueSnapshot{
		TotalCards:    dashboard.CardsOwned,
		UniqueCards:   dashboard.UniqueCards,
		TotalValue:    dashboard.CollectionValue,
		WishlistValue: dashboard.WishlistValue,
		Currency:      dashboard.Currency,
		ValuationMode: dashboard.ValuationMode,
	}

	err = s.db.Where("snapshot_date = ?", day.SnapshotDate).Assign(values).FirstOrCreate(&day).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	log.Printf("Snapshots: %s recorded at %s for %d cards",
		day.SnapshotDate.Format(time.DateOnly), dashboard.FormattedValue, dashboard.CardsOwned)
	return &day, nil
}

// GetHistory lists snapshots oldest first. Unknown periods fall back to a month.
func (s *SnapshotService) GetHistory(period string) ([]models.CollectionValueSnapshot, error) {
	query := s.db.Order("snapshot_date ASC")
	if period != "all" {
		window, ok := historyWindows[period]
		if !ok {
			window = historyWindows[defaultHistoryPeriod]
		}
		query = query.Where("snapshot_date >= ?", window(s.now()))
	}

	history := []models.CollectionValueSnapshot{}
	if err := query.Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to load value history: %w", err)
	}
	return history, nil
}

// Latest returns the newest snapshot, or nil when none was taken yet.
func (s *SnapshotService) Latest() (*models.CollectionValueSnapshot, error) {
	var latest models.CollectionValueSnapshot
	err := s.db.Order("snapshot_date DESC").First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	return &latest, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
