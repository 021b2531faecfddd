package database

import (
	"fmt"
	"log"

	"github.com/codyseavey/pokefolio/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the SQLite database at dbPath and brings the schema up
// to date. Use ":memory:" for a throwaway database.
func Open(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes
	// writers, which SQLite wants anyway.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	log.Println("Database connected successfully")

	if err := cleanupDuplicateSnapshots(db); err != nil {
		return nil, fmt.Errorf("cleanup snapshots: %w", err)
	}

	err = db.AutoMigrate(
		&models.Card{},
		&models.CollectionItem{},
		&models.WishlistItem{},
		&models.Deck{},
		&models.Settings{},
		&models.CollectionValueSnapshot{},
	)
	if err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	log.Println("Database migration completed")
	return db, nil
}
