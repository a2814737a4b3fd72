package repository

import (
	"context"

	"hwops-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository covers the small reference entities the engine reads:
// locations, categories, suppliers and customers. Full CRUD for these lives
// in the settings layer; the engine only needs lookups plus the seed path.
type CatalogRepository interface {
	FindLocation(ctx context.Context, id uuid.UUID) (*model.Location, error)
	FindLocationByName(ctx context.Context, name string) (*model.Location, error)
	ListLocations(ctx context.Context) ([]model.Location, error)
	EnsureLocation(ctx context.Context, name string) (*model.Location, error)
	FindSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	FindCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	FindCategoryByName(ctx context.Context, name string) (*model.Category, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) FindLocation(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	var loc model.Location
	if err := GetDB(ctx, r.db).First(&loc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *catalogRepository) FindLocationByName(ctx context.Context, name string) (*model.Location, error) {
	var loc model.Location
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&loc).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *catalogRepository) ListLocations(ctx context.Context) ([]model.Location, error) {
	var locs []model.Location
	if err := GetDB(ctx, r.db).Order("name ASC").Find(&locs).Error; err != nil {
		return nil, err
	}
	return locs, nil
}

func (r *catalogRepository) EnsureLocation(ctx context.Context, name string) (*model.Location, error) {
	var loc model.Location
	if err := GetDB(ctx, r.db).Where(model.Location{Name: name}).FirstOrCreate(&loc).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *catalogRepository) FindSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := GetDB(ctx, r.db).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *catalogRepository) FindCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).Preload("Shops").First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *catalogRepository) FindCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
