package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// DeliveryRecord is one delivery fact per (customer, calendar day).
// RatePerLiter is a snapshot of the customer's rate at write time and
// never changes afterwards; TotalAmount is always recomputed as
// round(quantity x rate, 2) on write, never supplied by callers.
type DeliveryRecord struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	CustomerID    snowflake.ID    `gorm:"not null;uniqueIndex:idx_deliveries_customer_date,priority:1" json:"customer_id"`
	DeliveryManID snowflake.ID    `gorm:"not null;index" json:"delivery_man_id"`
	Quantity      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	RatePerLiter  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"rate_per_liter"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	DeliveryDate  time.Time       `gorm:"type:date;not null;uniqueIndex:idx_deliveries_customer_date,priority:2" json:"delivery_date"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (DeliveryRecord) TableName() string { return "deliveries" }

// AgentDelivery is a ledger row joined with customer identity, as
// listed on a delivery agent's daily screen.
type AgentDelivery struct {
	DeliveryRecord
	CustomerName string `json:"customer_name"`
	Area         string `json:"area"`
}

// DateOnly truncates a timestamp to its UTC calendar day. Every
// delivery_date written or queried goes through this so the
// (customer, day) key is well defined.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthWindow returns the [from, to) bounds of a (month, year)
// aggregation window in UTC.
func MonthWindow(month, year int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}
