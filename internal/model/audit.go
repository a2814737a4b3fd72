package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateOrder      = "CREATE_ORDER"
	ActionOrderTransition  = "ORDER_TRANSITION"
	ActionEditOrderItems   = "EDIT_ORDER_ITEMS"
	ActionCreateProduct    = "CREATE_PRODUCT"
	ActionUpdateProduct    = "UPDATE_PRODUCT"
	ActionDeleteProduct    = "DELETE_PRODUCT"
	ActionRecordMovement   = "RECORD_STOCK_MOVEMENT"
	ActionCreateLoad       = "CREATE_LOADING_SHEET"
	ActionUpdateLoad       = "UPDATE_LOADING_SHEET"
	ActionRemoveFromLoad   = "REMOVE_ORDER_FROM_LOAD"
	ActionCreateCommission = "CREATE_COMMISSION_RULE"
	ActionDeleteCommission = "DELETE_COMMISSION_RULE"
	ActionAdminSheetEdit   = "ADMIN_SHEET_CORRECTION"
	ActionSetPaymentStatus = "SET_PAYMENT_STATUS"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
