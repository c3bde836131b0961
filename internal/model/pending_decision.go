package model

import "time"

// PendingDecision is the one open accept/decline record for a pending order,
// addressed to the selling employee. It is created in the same transaction
// as the order and hard-deleted when the employee resolves it, so a live row
// here means the order is still pending. No soft delete: resolution must
// actually remove the row.
type PendingDecision struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OrderID    uint  `gorm:"not null;uniqueIndex" json:"order_id"`
	EmployeeID int64 `gorm:"not null;index" json:"employee_id"`

	// Display snapshot, captured at placement so the employee's feed does
	// not depend on later catalog or account changes.
	ItemName      string `gorm:"size:128;not null" json:"item_name"`
	Quantity      int    `gorm:"not null" json:"quantity"`
	CustomerName  string `gorm:"size:128" json:"customer_name"`
	CustomerEmail string `gorm:"size:128" json:"customer_email"`
}

func (PendingDecision) TableName() string { return "pending_decisions" }
