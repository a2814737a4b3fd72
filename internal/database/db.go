package database

import (
	"context"

	"hwops-backend/internal/logging"
	"hwops-backend/internal/model"
	"hwops-backend/internal/repository"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Customer{},
		&model.Shop{},
		&model.Category{},
		&model.Brand{},
		&model.Supplier{},
		&model.Product{},
		&model.Location{},
		&model.Order{},
		&model.OrderItem{},
		&model.LoadingSheet{},
		&model.LoadingSheetEntry{},
		&model.StockMovement{},
		&model.CommissionRule{},
		&model.AuditLog{},
	)
	if err != nil {
		logging.WithModule("database").WithError(err).Warn("failed to auto-migrate models")
	}

	return db, nil
}

// Seed ensures the reference rows the engine expects at boot. The main
// warehouse is created here but gets no special treatment afterwards.
func Seed(db *gorm.DB) error {
	catalog := repository.NewCatalogRepository(db)
	_, err := catalog.EnsureLocation(context.Background(), model.MainWarehouseName)
	return err
}
