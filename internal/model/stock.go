package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementType constants: the only stock-affecting event kinds the ledger accepts.
const (
	MovementSale       = "SALE"
	MovementPurchase   = "PURCHASE"
	MovementReturn     = "RETURN"
	MovementDamage     = "DAMAGE"
	MovementAdjustment = "ADJUSTMENT"
)

// SignedMovementQuantity applies the sign convention for a movement type.
// Sale and Damage decrease stock, Purchase and Return increase it; quantities
// for those types must be positive. Adjustment carries an explicit signed
// quantity and is the only type that may state its own direction.
func SignedMovementQuantity(movType string, qty int) (int, error) {
	switch movType {
	case MovementSale, MovementDamage:
		if qty <= 0 {
			return 0, fmt.Errorf("%s quantity must be positive, got %d", movType, qty)
		}
		return -qty, nil
	case MovementPurchase, MovementReturn:
		if qty <= 0 {
			return 0, fmt.Errorf("%s quantity must be positive, got %d", movType, qty)
		}
		return qty, nil
	case MovementAdjustment:
		if qty == 0 {
			return 0, fmt.Errorf("adjustment quantity must be non-zero")
		}
		return qty, nil
	}
	return 0, fmt.Errorf("unknown movement type %q", movType)
}

// Location is a stock-keeping place. The "Main Warehouse" is seeded on startup
// and protected from deletion by the settings layer; the ledger itself treats
// it like any other location.
type Location struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Address   string         `gorm:"type:text" json:"address"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MainWarehouseName is the distinguished default location.
const MainWarehouseName = "Main Warehouse"

// StockMovement is one append-only ledger record for a (product, location)
// pair. BalanceAfter chains off the previous movement of the same pair; rows
// are never updated or deleted; corrections are new Adjustment movements.
type StockMovement struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_product_location" json:"product_id"`
	Product        *Product   `gorm:"foreignKey:ProductID" json:"-"`
	LocationID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_product_location" json:"location_id"`
	Location       *Location  `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Type           string     `gorm:"type:varchar(20);not null;index" json:"type"`
	Quantity       int        `gorm:"type:int;not null" json:"quantity"` // signed delta
	BalanceAfter   int        `gorm:"type:int;not null" json:"balance_after"`
	CounterpartyID *uuid.UUID `gorm:"type:uuid;index" json:"counterparty_id"` // customer or supplier
	ReferenceID    *uuid.UUID `gorm:"type:uuid;index" json:"reference_id"`    // order / purchase id
	Note           string     `gorm:"type:text" json:"note"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}
