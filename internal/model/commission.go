package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryScopeAll is the wire/database representation of the general rule
// that applies to every category of a supplier.
const CategoryScopeAll = "ALL"

// CategoryScope is the category a commission rule applies to: either one
// specific category by name, or all categories of the supplier. The zero
// value means all categories; the stored format stays the string "ALL" so
// existing data and clients keep working.
type CategoryScope struct {
	name string
}

// AllCategories returns the scope matching every category.
func AllCategories() CategoryScope {
	return CategoryScope{}
}

// SpecificCategory returns the scope matching exactly the named category.
func SpecificCategory(name string) CategoryScope {
	if name == "" || name == CategoryScopeAll {
		return CategoryScope{}
	}
	return CategoryScope{name: name}
}

// IsAll reports whether the scope covers every category.
func (s CategoryScope) IsAll() bool {
	return s.name == ""
}

// Category returns the specific category name, or "" for the all-scope.
func (s CategoryScope) Category() string {
	return s.name
}

// String renders the stored wire format: the category name, or "ALL".
func (s CategoryScope) String() string {
	if s.IsAll() {
		return CategoryScopeAll
	}
	return s.name
}

// Value implements driver.Valuer so the scope persists as its wire string.
func (s CategoryScope) Value() (driver.Value, error) {
	return s.String(), nil
}

// Scan implements sql.Scanner for reading the wire string back.
func (s *CategoryScope) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SpecificCategory(v)
	case []byte:
		*s = SpecificCategory(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CategoryScope", src)
	}
	return nil
}

// MarshalJSON keeps the wire format identical to the stored string.
func (s CategoryScope) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON parses the wire string, treating "ALL" as the general scope.
func (s *CategoryScope) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	*s = SpecificCategory(raw)
	return nil
}

// CommissionRule maps a (supplier, category scope) pair to a payout rate.
// At most one rule may exist per exact pair; the unique index backs the
// duplicate check done at write time.
type CommissionRule struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplierID uuid.UUID       `gorm:"type:uuid;not null;index:idx_supplier_scope,unique" json:"supplier_id"`
	Supplier   *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Scope      CategoryScope   `gorm:"type:varchar(255);not null;index:idx_supplier_scope,unique" json:"category"`
	Rate       decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"rate"` // percentage, 0-100
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
