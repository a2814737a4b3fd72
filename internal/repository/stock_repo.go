package repository

import (
	"context"
	"errors"

	"hwops-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocationBalance is the derived current balance of a product at one location.
type LocationBalance struct {
	LocationID   uuid.UUID `json:"location_id"`
	LocationName string    `json:"location_name"`
	Balance      int       `json:"balance"`
}

// StockMovementRepository is the append-only ledger store. There is
// deliberately no update or delete method.
type StockMovementRepository interface {
	Append(ctx context.Context, movement *model.StockMovement) error
	// LastForUpdate returns the most recent movement of the (product, location)
	// pair, locking the row for the duration of the enclosing transaction so
	// concurrent appends to the same pair serialize. Returns (nil, nil) when
	// the pair has no movements yet.
	LastForUpdate(ctx context.Context, productID, locationID uuid.UUID) (*model.StockMovement, error)
	History(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)
	// BalancesByProduct returns the latest balance per location for a product.
	BalancesByProduct(ctx context.Context, productID uuid.UUID) ([]LocationBalance, error)
	// SalesByReference returns the SALE movements recorded for a reference
	// (order id); used to build compensating RETURN movements.
	SalesByReference(ctx context.Context, referenceID uuid.UUID) ([]model.StockMovement, error)
}

type stockMovementRepository struct {
	db *gorm.DB
}

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) Append(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *stockMovementRepository) LastForUpdate(ctx context.Context, productID, locationID uuid.UUID) (*model.StockMovement, error) {
	var movement model.StockMovement
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND location_id = ?", productID, locationID).
		Order("created_at DESC, id DESC").
		First(&movement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &movement, nil
}

func (r *stockMovementRepository) History(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMovement{}).Where("product_id = ?", productID)
	if locationID != nil {
		db = db.Where("location_id = ?", *locationID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Location").
		Order("created_at ASC, id ASC").
		Offset(offset).Limit(limit).
		Find(&movements).Error; err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

func (r *stockMovementRepository) BalancesByProduct(ctx context.Context, productID uuid.UUID) ([]LocationBalance, error) {
	var balances []LocationBalance
	// DISTINCT ON keeps only the newest movement per location (postgres).
	err := GetDB(ctx, r.db).Raw(`
		SELECT sub.location_id, locations.name AS location_name, sub.balance_after AS balance
		FROM (
			SELECT DISTINCT ON (location_id) location_id, balance_after
			FROM stock_movements
			WHERE product_id = ?
			ORDER BY location_id, created_at DESC, id DESC
		) sub
		JOIN locations ON locations.id = sub.location_id
		ORDER BY locations.name`, productID).
		Scan(&balances).Error
	if err != nil {
		return nil, err
	}
	return balances, nil
}

func (r *stockMovementRepository) SalesByReference(ctx context.Context, referenceID uuid.UUID) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := GetDB(ctx, r.db).
		Where("reference_id = ? AND type = ?", referenceID, model.MovementSale).
		Order("created_at ASC").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}
