package domain

import (
	"context"
	"errors"
)

type RecordDeliveryRequest struct {
	CustomerID    string
	DeliveryManID string
	Quantity      *float64
	// DeliveryDate is an optional YYYY-MM-DD day; it defaults to the
	// current day when empty.
	DeliveryDate string
}

type ListByAgentDateRequest struct {
	DeliveryManID string
	// Date is an optional YYYY-MM-DD day; it defaults to the current
	// day when empty.
	Date string
}

type ListByCustomerMonthRequest struct {
	CustomerID string
	Month      int
	Year       int
}

type Service interface {
	// Record upserts the unique delivery record for (customer, day).
	// A second call for the same day replaces the prior record
	// entirely; it is never an error.
	Record(context.Context, RecordDeliveryRequest) (DeliveryRecord, error)
	ListByAgentDate(context.Context, ListByAgentDateRequest) ([]AgentDelivery, error)
	ListByCustomerMonth(context.Context, ListByCustomerMonthRequest) ([]DeliveryRecord, error)
}

var (
	ErrInvalidCustomerID    = errors.New("invalid_customer_id")
	ErrInvalidDeliveryManID = errors.New("invalid_delivery_man_id")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrInvalidDate          = errors.New("invalid_delivery_date")
	ErrInvalidMonth         = errors.New("invalid_month")
)
