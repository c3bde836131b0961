package model

import "time"

// Transaction is the permanent record of a resolved order. Rows are inserted
// exactly once, when the pending decision is consumed, and never updated or
// deleted. The unique order_id index is the storage-level duplicate guard.
type Transaction struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OrderID    uint        `gorm:"not null;uniqueIndex" json:"order_id"`
	CustomerID int64       `gorm:"not null;index" json:"customer_id"`
	ItemID     uint        `gorm:"not null;index" json:"item_id"`
	Quantity   int         `gorm:"not null" json:"quantity"`
	Status     OrderStatus `gorm:"size:16;not null" json:"status"` // accepted or declined
}

func (Transaction) TableName() string { return "transactions" }
