package model

import (
	"time"

	"hwops-backend/pkg/money"

	"github.com/google/uuid"
)

// LoadingSheetStatus constants
const (
	LoadStatusInTransit = "IN_TRANSIT"
	LoadStatusCompleted = "COMPLETED"
)

// LoadingSheet is a dispatch load: a batch of orders assigned to one vehicle,
// driver and date. Each bound order's value is snapshotted at assignment time
// (OriginalAmount) and reconciled against the value at delivery/return time
// (FinalAmount). Once COMPLETED the sheet is immutable except through the
// audited administrative-correction path.
type LoadingSheet struct {
	ID            uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SheetNo       string              `gorm:"type:varchar(50);uniqueIndex;not null" json:"sheet_no"`
	ScheduledDate time.Time           `gorm:"type:date;not null;index" json:"scheduled_date"`
	VehicleNo     string              `gorm:"type:varchar(50);not null" json:"vehicle_no"`
	DriverName    string              `gorm:"type:varchar(255);not null" json:"driver_name"`
	HelperName    string              `gorm:"type:varchar(255)" json:"helper_name"`
	LocationID    uuid.UUID           `gorm:"type:uuid;not null;index" json:"location_id"` // warehouse the goods leave from
	Location      *Location           `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Status        string              `gorm:"type:varchar(20);not null;default:'IN_TRANSIT';index" json:"status"`
	Version       int                 `gorm:"type:int;not null;default:1" json:"version"`
	Entries       []LoadingSheetEntry `gorm:"foreignKey:SheetID;constraint:OnDelete:CASCADE" json:"entries"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// LoadingSheetEntry binds one order to a sheet with its dispatch-time and
// reconciliation-time values. FinalAmount stays nil until the order is
// delivered or returned; reconciliation falls back to OriginalAmount then.
type LoadingSheetEntry struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SheetID        uuid.UUID     `gorm:"type:uuid;not null;index:idx_sheet_order,unique" json:"sheet_id"`
	OrderID        uuid.UUID     `gorm:"type:uuid;not null;index:idx_sheet_order,unique" json:"order_id"`
	Order          *Order        `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	OriginalAmount money.Amount  `gorm:"type:bigint;not null" json:"original_amount"` // minor units, snapshot at load time
	FinalAmount    *money.Amount `gorm:"type:bigint" json:"final_amount"`             // minor units, set at delivery/return
	Position       int           `gorm:"type:int;not null;default:0" json:"position"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
