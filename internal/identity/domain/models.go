package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	UserTypeOwner       = "owner"
	UserTypeDeliveryMan = "delivery_man"
	UserTypeCustomer    = "customer"
)

// User is the person identity behind every role in the system.
// Rows are never hard-deleted; IsActive is the soft-delete flag.
type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Phone     string       `gorm:"not null;uniqueIndex" json:"phone"`
	UserType  string       `gorm:"not null;index" json:"user_type"`
	IsActive  bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string { return "users" }
