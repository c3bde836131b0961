package model

import (
	"time"

	"gorm.io/gorm"
)

// Item is an employee's listing: name, remaining quantity, unit price.
type Item struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name string `gorm:"size:128;not null" json:"name"`
	// EmployeeID is the seller. A listing without a seller is a data
	// integrity error and is rejected at reservation time.
	EmployeeID int64 `gorm:"index" json:"employee_id"`
	Quantity   int   `gorm:"not null;default:0" json:"quantity"`
	Price      int64 `gorm:"not null" json:"price"` // cents
}

func (Item) TableName() string { return "items" }

// StockCompensation marks a placement attempt whose reservation has been
// restocked. The unique order_no keeps the compensation from running twice
// for the same attempt.
type StockCompensation struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OrderNo  string `gorm:"size:64;uniqueIndex;not null" json:"order_no"`
	ItemID   uint   `gorm:"not null;index" json:"item_id"`
	Quantity int    `gorm:"not null" json:"quantity"`
}

func (StockCompensation) TableName() string { return "stock_compensations" }
