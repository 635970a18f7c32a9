package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Customer links a person identity to a delivery round. The rate and
// usual quantity here are defaults; every delivery record snapshots
// the rate at write time.
type Customer struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	UserID        snowflake.ID    `gorm:"not null;index" json:"user_id"`
	Address       string          `gorm:"not null" json:"address"`
	Area          string          `json:"area"`
	UsualQuantity decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"usual_quantity"`
	RatePerLiter  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"rate_per_liter"`
	DeliveryManID snowflake.ID    `gorm:"not null;index" json:"delivery_man_id"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

// Profile is a customer joined with its person identity.
type Profile struct {
	ID            snowflake.ID    `json:"id"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	Area          string          `json:"area"`
	UsualQuantity decimal.Decimal `json:"usual_quantity"`
	RatePerLiter  decimal.Decimal `json:"rate_per_liter"`
	DeliveryManID snowflake.ID    `json:"delivery_man_id"`
}

// AgentCustomer is one row of a delivery agent's round listing,
// including today's delivery status.
type AgentCustomer struct {
	ID            snowflake.ID     `json:"id"`
	Name          string           `json:"name"`
	Phone         string           `json:"phone"`
	Address       string           `json:"address"`
	Area          string           `json:"area"`
	UsualQuantity decimal.Decimal  `json:"usual_quantity"`
	RatePerLiter  decimal.Decimal  `json:"rate_per_liter"`
	TodayQuantity *decimal.Decimal `json:"today_quantity"`
	TodayStatus   string           `json:"today_status"`
}

// Delivery statuses for a customer's day slot.
const (
	StatusComplete = "complete"
	StatusPending  = "pending"
)

// ActiveRate is the rate lookup the delivery ledger performs at write
// time. UserID is carried so the ledger can notify the customer.
type ActiveRate struct {
	CustomerID   snowflake.ID
	UserID       snowflake.ID
	RatePerLiter decimal.Decimal
}
