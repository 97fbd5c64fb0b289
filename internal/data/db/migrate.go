package db

import (
	"fmt"

	"github.com/yungbote/contracts-backend/internal/domain/sales"
	"github.com/yungbote/contracts-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

// AutoMigrateAll creates the sales tables. Order matters: referenced tables
// come before the tables holding foreign keys to them.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&sales.Product{},
		&sales.Contract{},
		&sales.Delivery{},
		&sales.LineItem{},
		&sales.DeliveryLineItem{},
	)
}

// EnsureSalesIndexes adds indexes the struct tags cannot express. The
// statements are valid on both Postgres and SQLite.
func EnsureSalesIndexes(db *gorm.DB) error {
	// Load path: join rows of one contract in assignment order.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_delivery_line_item_contract_position
		ON delivery_line_item (contract_id, position);
	`).Error; err != nil {
		return fmt.Errorf("create idx_delivery_line_item_contract_position: %w", err)
	}

	// Case-insensitive product lookup by name.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_product_name_lower
		ON product (lower(name));
	`).Error; err != nil {
		return fmt.Errorf("create idx_product_name_lower: %w", err)
	}

	return nil
}

func migrate(db *gorm.DB, log *logger.Logger) error {
	log.Info("Auto migrating sales tables...")
	if err := AutoMigrateAll(db); err != nil {
		log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureSalesIndexes(db); err != nil {
		log.Error("Sales index migration failed", "error", err)
		return err
	}
	return nil
}
