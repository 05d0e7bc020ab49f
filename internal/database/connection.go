// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/settly-kr/settly-backend/internal/config"
	"github.com/settly-kr/settly-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"pgcrypto\"").Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Store{},
		&models.MarketplaceSetting{},
		&models.InventoryItem{},
		&models.SettlementHeader{},
		&models.SettlementLine{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)",

		// Product indexes. Barcode is the settlement join key so duplicates
		// are rejected at the database level; blank barcodes stay allowed.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_user_barcode ON products(user_id, barcode) WHERE barcode <> '' AND deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_products_user_active ON products(user_id, active)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Store indexes
		"CREATE INDEX IF NOT EXISTS idx_stores_user_name ON stores(user_id, name)",

		// Inventory indexes
		"CREATE INDEX IF NOT EXISTS idx_inventory_items_store ON inventory_items(store_id)",

		// Settlement indexes
		"CREATE INDEX IF NOT EXISTS idx_settlement_headers_user_period ON settlement_headers(user_id, period_month DESC)",
		"CREATE INDEX IF NOT EXISTS idx_settlement_headers_status ON settlement_headers(status)",
		"CREATE INDEX IF NOT EXISTS idx_settlement_lines_settlement ON settlement_lines(settlement_id)",
		"CREATE INDEX IF NOT EXISTS idx_settlement_lines_product ON settlement_lines(product_id)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// SeedInitialData creates a development owner account when none exists.
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	var ownerCount int64
	db.Model(&models.User{}).Where("user_type = ?", models.UserTypeOwner).Count(&ownerCount)

	if ownerCount == 0 {
		owner := &models.User{
			Username:     "demo",
			Email:        "demo@settly.kr",
			UserType:     models.UserTypeOwner,
			Status:       models.UserStatusActive,
			BusinessName: "데모 공방",
		}

		if err := owner.SetPassword("Demo123!@#"); err != nil {
			return fmt.Errorf("failed to set demo password: %w", err)
		}

		if err := db.Create(owner).Error; err != nil {
			return fmt.Errorf("failed to create demo user: %w", err)
		}

		log.Println("Demo owner account created successfully")
	}

	log.Println("Initial data seeding completed")
	return nil
}
