package model

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus is the order state machine:
// pending → accepted → received, or pending → declined (terminal).
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderAccepted OrderStatus = "accepted"
	OrderDeclined OrderStatus = "declined"
	OrderReceived OrderStatus = "received"
)

// Valid reports whether s is one of the four known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderAccepted, OrderDeclined, OrderReceived:
		return true
	}
	return false
}

// Resolved reports whether s is a seller decision outcome.
func (s OrderStatus) Resolved() bool {
	return s == OrderAccepted || s == OrderDeclined
}

// Order is a customer's request to buy a quantity of one item. Orders are
// created pending, resolved exactly once by the selling employee, and never
// deleted.
type Order struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrderNo    string `gorm:"size:64;uniqueIndex;not null" json:"order_no"`
	CustomerID int64  `gorm:"not null;index" json:"customer_id"`
	// EmployeeID is copied from the item at placement so the order keeps
	// its addressee even if the listing is later reassigned.
	EmployeeID int64       `gorm:"not null;index" json:"employee_id"`
	ItemID     uint        `gorm:"not null;index" json:"item_id"`
	Quantity   int         `gorm:"not null;default:1" json:"quantity"`
	Status     OrderStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
}

func (Order) TableName() string { return "orders" }
