package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// TodayStats is the dashboard-wide rollup for one day. All values are
// best-effort "as of now" reads; they may race benignly with in-flight
// delivery writes.
type TodayStats struct {
	TotalMilkDelivered  float64 `json:"totalMilkDelivered"`
	TotalRevenue        float64 `json:"totalRevenue"`
	TotalCustomers      int     `json:"totalCustomers"`
	CompletedDeliveries int     `json:"completedDeliveries"`
	// PendingDeliveries is clamped at zero: a delivery recorded for a
	// customer deactivated or reassigned mid-day can push completed
	// past the active-customer count, which would otherwise go
	// negative. The clamp can mask an undercount in that case.
	PendingDeliveries int `json:"pendingDeliveries"`
	ActiveDeliveryMen int `json:"activeDeliveryMen"`
}

// DeliveryManStats is one agent's row on the owner dashboard.
type DeliveryManStats struct {
	ID            snowflake.ID `json:"id"`
	Name          string       `json:"name"`
	Area          string       `json:"area"`
	Customers     int          `json:"customers"`
	Completed     int          `json:"completed"`
	Pending       int          `json:"pending"`
	MilkDelivered float64      `json:"milkDelivered"`
}

// Activity is one recent-delivery line on the owner dashboard.
type Activity struct {
	ID              snowflake.ID `json:"id"`
	Type            string       `json:"type"`
	CustomerName    string       `json:"customer_name"`
	DeliveryManName string       `json:"delivery_man_name"`
	Quantity        float64      `json:"quantity"`
	Area            string       `json:"area"`
	Time            string       `json:"time"`
}

type OwnerSnapshot struct {
	TodayStats       TodayStats         `json:"todayStats"`
	DeliveryMenStats []DeliveryManStats `json:"deliveryMenStats"`
	RecentActivity   []Activity         `json:"recentActivity"`
}

// AgentCustomerStatus is one customer's day-slot state on an agent's
// daily snapshot.
type AgentCustomerStatus struct {
	CustomerID snowflake.ID `json:"customer_id"`
	Name       string       `json:"name"`
	Area       string       `json:"area"`
	Quantity   *float64     `json:"quantity"`
	Status     string       `json:"status"`
}

type AgentTotals struct {
	Customers     int     `json:"customers"`
	Completed     int     `json:"completed"`
	Pending       int     `json:"pending"`
	MilkDelivered float64 `json:"milkDelivered"`
}

type AgentSnapshot struct {
	Customers []AgentCustomerStatus `json:"customers"`
	Totals    AgentTotals           `json:"totals"`
}

type OwnerSnapshotRequest struct {
	// Date is an optional YYYY-MM-DD day, defaulting to today.
	Date string
}

type AgentSnapshotRequest struct {
	DeliveryManID string
	Date          string
}

type Service interface {
	OwnerSnapshot(context.Context, OwnerSnapshotRequest) (OwnerSnapshot, error)
	AgentSnapshot(context.Context, AgentSnapshotRequest) (AgentSnapshot, error)
}

var (
	ErrInvalidDate          = errors.New("invalid_date")
	ErrInvalidDeliveryManID = errors.New("invalid_delivery_man_id")
)
