package database

import (
	"log"

	"gorm.io/gorm"
)

// cleanupDuplicateSnapshots removes duplicate snapshot days before the unique
// index on snapshot_date is created. Runs BEFORE AutoMigrate.
func cleanupDuplicateSnapshots(db *gorm.DB) error {
	if !db.Migrator().HasTable("collection_value_snapshots") {
		return nil
	}

	// Keep the newest row per day
	result := db.Exec(`
		DELETE FROM collection_value_snapshots
		WHERE id NOT IN (
			SELECT MAX(id)
			FROM collection_value_snapshots
			GROUP BY date(snapshot_date)
		)
	`)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d duplicate collection_value_snapshots entries", result.RowsAffected)
	}
	return nil
}

// RunMigrations backfills values that older rows may lack. Safe to run on
// every start.
func RunMigrations(db *gorm.DB) error {
	if err := backfillCollectionDefaults(db); err != nil {
		return err
	}
	return backfillWishlistDefaults(db)
}

func backfillCollectionDefaults(db *gorm.DB) error {
	updates := []string{
		`UPDATE collection_items SET quantity = 1 WHERE quantity IS NULL OR quantity < 1`,
		`UPDATE collection_items SET condition = 'nearMint' WHERE condition IS NULL OR condition = ''`,
		`UPDATE collection_items SET language = 'English' WHERE language IS NULL OR language = ''`,
		`UPDATE collection_items SET edition = 'standard' WHERE edition IS NULL OR edition = ''`,
		`UPDATE collection_items SET priority = 'medium' WHERE priority IS NULL OR priority = ''`,
	}
	for _, stmt := range updates {
		result := db.Exec(stmt)
		if result.Error != nil {
			log.Printf("Warning: collection backfill failed: %v", result.Error)
			return result.Error
		}
		if result.RowsAffected > 0 {
			log.Printf("Backfilled %d collection_items rows", result.RowsAffected)
		}
	}
	return nil
}

func backfillWishlistDefaults(db *gorm.DB) error {
	updates := []string{
		`UPDATE wishlist_items SET quantity = 1 WHERE quantity IS NULL OR quantity < 1`,
		`UPDATE wishlist_items SET priority = 'medium' WHERE priority IS NULL OR priority = ''`,
	}
	for _, stmt := range updates {
		if err := db.Exec(stmt).Error; err != nil {
			log.Printf("Warning: wishlist backfill failed: %v", err)
			return err
		}
	}
	return nil
}
