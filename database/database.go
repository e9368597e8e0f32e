package database

import (
	"fmt"

	"marketplace-app/internal/domain/access"
	"marketplace-app/internal/domain/auctions"
	"marketplace-app/internal/domain/billing"
	"marketplace-app/internal/domain/cart"
	"marketplace-app/internal/domain/commissions"
	"marketplace-app/internal/domain/notifications"
	"marketplace-app/internal/domain/orders"
	"marketplace-app/internal/domain/works"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres and migrates the schema.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_URL not set")
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// REQUIRED for UUID generation
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return nil, fmt.Errorf("enable pgcrypto extension: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// catalogue
		&works.Artwork{},
		&auctions.Auction{},
		&auctions.Bid{},

		// sales
		&orders.Order{},
		&orders.OrderItem{},
		&cart.CartItem{},
		&access.DigitalAssetAccess{},

		// commissions
		&commissions.Commission{},
		&commissions.Proposal{},
		&commissions.Project{},
		&commissions.ProjectUpdate{},
		&commissions.ProjectUpdateFile{},

		// money
		&billing.PendingPayment{},
		&billing.PendingPaymentItem{},
		&billing.CommissionPayment{},
		&billing.ArtistEarning{},

		&notifications.Notification{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
