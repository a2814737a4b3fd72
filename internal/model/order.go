package model

import (
	"time"

	"hwops-backend/pkg/money"

	"github.com/google/uuid"
)

// OrderStatus constants: the fulfillment progression an order moves through.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusChecking   = "CHECKING"
	OrderStatusLoading    = "LOADING"
	OrderStatusInTransit  = "IN_TRANSIT"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// PaymentStatus constants, tracked independently of fulfillment status.
const (
	PaymentStatusPaid    = "PAID"
	PaymentStatusUnpaid  = "UNPAID"
	PaymentStatusPartial = "PARTIAL"
)

// orderStatusChain is the forward progression of the fulfillment state machine.
// A transition is legal only if it is adjacent-forward in this chain, or a
// cancellation permitted by CanCancelFrom.
var orderStatusChain = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusChecking,
	OrderStatusLoading,
	OrderStatusInTransit,
	OrderStatusDelivered,
}

// NextOrderStatus returns the adjacent-forward status for the given one.
// The second return is false for terminal or unknown statuses.
func NextOrderStatus(current string) (string, bool) {
	for i, s := range orderStatusChain {
		if s == current && i+1 < len(orderStatusChain) {
			return orderStatusChain[i+1], true
		}
	}
	return "", false
}

// IsTerminalOrderStatus reports whether no further transition is allowed.
func IsTerminalOrderStatus(s string) bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanCancelFrom reports whether an order in the given status may be cancelled.
// Cancellation from IN_TRANSIT is the return path: it reverses any recorded
// sale movements rather than simply flipping the status.
func CanCancelFrom(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusChecking,
		OrderStatusLoading, OrderStatusInTransit:
		return true
	}
	return false
}

// OrderItemsEditable reports whether line items may still be modified.
// Editing is locked once the order has left CHECKING.
func OrderItemsEditable(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusChecking:
		return true
	}
	return false
}

// ValidOrderStatus reports whether s names a known order status.
func ValidOrderStatus(s string) bool {
	if s == OrderStatusCancelled {
		return true
	}
	for _, known := range orderStatusChain {
		if s == known {
			return true
		}
	}
	return false
}

// Order is a customer order moving through the fulfillment pipeline.
// Status changes go through the order service exclusively; the Version column
// backs optimistic concurrency on every mutation.
type Order struct {
	ID            uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNo       string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"order_no"`
	InvoiceNo     *string      `gorm:"type:varchar(50);uniqueIndex" json:"invoice_no"` // assigned when the order reaches LOADING
	CustomerID    *uuid.UUID   `gorm:"type:uuid;index" json:"customer_id"`
	Customer      *Customer    `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ShopID        *uuid.UUID   `gorm:"type:uuid;index" json:"shop_id"`
	Shop          *Shop        `gorm:"foreignKey:ShopID" json:"shop,omitempty"`
	SalesRepID    *uuid.UUID   `gorm:"type:uuid;index" json:"sales_rep_id"`
	SalesRep      *User        `gorm:"foreignKey:SalesRepID" json:"sales_rep,omitempty"`
	Status        string       `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	PaymentStatus string       `gorm:"type:varchar(20);not null;default:'UNPAID';index" json:"payment_status"`
	ItemCount     int          `gorm:"type:int;not null;default:0" json:"item_count"`
	TotalAmount   money.Amount `gorm:"type:bigint;not null;default:0" json:"total_amount"` // minor units
	Version       int          `gorm:"type:int;not null;default:1" json:"version"`
	Items         []OrderItem  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// OrderItem is a single product line on an order.
type OrderItem struct {
	ID        uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID    `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   Product      `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  int          `gorm:"type:int;not null" json:"quantity"`
	UnitPrice money.Amount `gorm:"type:bigint;not null" json:"unit_price"` // minor units
}

// RecalculateTotals re-derives TotalAmount and ItemCount from the line items.
// Must be called after any line item edit so the stored totals never drift.
func (o *Order) RecalculateTotals() {
	var total money.Amount
	for _, it := range o.Items {
		total += money.Line(it.UnitPrice, it.Quantity)
	}
	o.TotalAmount = total
	o.ItemCount = len(o.Items)
}
