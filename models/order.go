package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// ValidOrderStatus reports whether s is one of the known wire status values.
// Values are case-sensitive.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted,
		OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

type Order struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber     string     `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	TotalAmount     float64    `gorm:"not null" json:"total_amount"`
	CustomerName    string     `gorm:"not null" json:"customer_name"`
	CustomerEmail   string     `gorm:"not null" json:"customer_email"`
	CustomerPhone   string     `json:"customer_phone,omitempty"`
	ShippingAddress string     `json:"shipping_address,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	AdminNotes      string     `json:"admin_notes,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	OrderItems      []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
}

// OrderItem snapshots the catalog price at checkout time. UnitPrice and
// Subtotal stay fixed even if the book's price changes later.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	BookID    uuid.UUID `gorm:"type:uuid;not null" json:"book_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	Subtotal  float64   `gorm:"not null" json:"subtotal"`
}
