package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hanythrift/internal/models"
)

// Connect opens the Postgres database used in production. Tests open an
// in-memory SQLite database directly instead.
func Connect(dsn string) (*gorm.DB, error) {
	// TranslateError surfaces unique index violations as gorm.ErrDuplicatedKey,
	// which the repositories map to conflicts.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema for every aggregate.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderEvent{},
		&models.Dispute{},
		&models.WithdrawalToken{},
		&models.RefreshToken{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}
