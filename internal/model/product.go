package model

import (
	"time"

	"hwops-backend/pkg/money"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog item. Stock is never stored on the product row; it is
// always derived from the ledger, per location.
type Product struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU        string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	CategoryID *uuid.UUID     `gorm:"type:uuid;index" json:"category_id"`
	Category   *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	BrandID    *uuid.UUID     `gorm:"type:uuid;index" json:"brand_id"`
	Brand      *Brand         `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	SupplierID *uuid.UUID     `gorm:"type:uuid;index" json:"supplier_id"`
	Supplier   *Supplier      `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	UnitPrice  money.Amount   `gorm:"type:bigint;not null;default:0" json:"unit_price"` // minor units
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// Category groups products for commission resolution and catalog browsing.
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Brand is a manufacturer label on a product.
type Brand struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Supplier is a vendor that products are sourced from; commission rules are
// keyed by supplier.
type Supplier struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	ContactPerson string         `gorm:"type:varchar(255)" json:"contact_person"`
	Phone         string         `gorm:"type:varchar(50)" json:"phone"`
	Email         string         `gorm:"type:varchar(255)" json:"email"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
