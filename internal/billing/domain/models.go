package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// MonthlyBill is the reconciled total for one (customer, month, year)
// window. Totals are always recomputed from the delivery ledger on
// (re)generation; they are never accumulated on top of a prior bill.
type MonthlyBill struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	CustomerID    snowflake.ID    `gorm:"not null;uniqueIndex:idx_monthly_bills_customer_window,priority:1" json:"customer_id"`
	Month         int             `gorm:"not null;uniqueIndex:idx_monthly_bills_customer_window,priority:2" json:"month"`
	Year          int             `gorm:"not null;uniqueIndex:idx_monthly_bills_customer_window,priority:3" json:"year"`
	TotalQuantity decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_quantity"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	IsGenerated   bool            `gorm:"not null;default:false" json:"is_generated"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

func (MonthlyBill) TableName() string { return "monthly_bills" }

// CustomerBill is a bill joined with customer identity for responses.
type CustomerBill struct {
	MonthlyBill
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerAddress string `json:"customer_address"`
	DeliveryDays    int    `json:"delivery_days,omitempty"`
}

// Summary describes one reconciliation run.
type Summary struct {
	TotalCustomers int             `json:"total_customers"`
	TotalQuantity  decimal.Decimal `json:"total_quantity"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Month          int             `json:"month"`
	Year           int             `json:"year"`
}
