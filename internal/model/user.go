package model

import (
	"time"

	"gorm.io/gorm"
)

// User covers both customers and item-selling employees. Authentication is
// handled upstream; the core only needs the display fields.
type User struct {
	ID        int64          `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name  string `gorm:"size:128;not null" json:"name"`
	Email string `gorm:"size:128;uniqueIndex;not null" json:"email"`
}

func (User) TableName() string { return "users" }
