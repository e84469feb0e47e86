package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yeremiapane/periodic-tables/models"
	"github.com/yeremiapane/periodic-tables/utils"
)

// Migrate creates or updates the reservations and tables schema. The unique
// index on tables.reservation_id keeps a reservation at one table at most.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Reservation{}, &models.Table{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if !db.Migrator().HasIndex(&models.Table{}, "ReservationID") {
		return fmt.Errorf("auto migrate: unique index on tables.reservation_id is missing")
	}

	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

// SeedTables inserts the default floor plan when no table exists yet.
func SeedTables(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Table{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count tables: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []models.Table{
		{TableName: "Bar #1", Capacity: 1},
		{TableName: "Bar #2", Capacity: 1},
		{TableName: "#1", Capacity: 6},
		{TableName: "#2", Capacity: 6},
	}
	if err := db.Create(&defaults).Error; err != nil {
		return fmt.Errorf("seed tables: %w", err)
	}
	utils.InfoLogger.Printf("Seeded %d tables", len(defaults))
	return nil
}
