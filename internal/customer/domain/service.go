package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type OnboardCustomerRequest struct {
	Name          string
	Phone         string
	Address       string
	Area          string
	UsualQuantity *float64
	RatePerLiter  *float64
	DeliveryManID string
}

type UpdateCustomerRequest struct {
	ID            string
	Name          *string
	Phone         *string
	Address       *string
	Area          *string
	UsualQuantity *float64
	RatePerLiter  *float64
}

type ListByAgentRequest struct {
	DeliveryManID string
	Date          time.Time
}

type GetCustomerRequest struct {
	ID string
}

type MonthDelivery struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
	Amount   float64   `json:"amount"`
	Rate     float64   `json:"rate_per_liter"`
}

type CustomerDetail struct {
	Customer   Profile         `json:"customer"`
	Deliveries []MonthDelivery `json:"deliveries"`
}

type Service interface {
	Onboard(context.Context, OnboardCustomerRequest) (Profile, error)
	Update(context.Context, UpdateCustomerRequest) (Profile, error)
	ListByAgent(context.Context, ListByAgentRequest) ([]AgentCustomer, error)
	Detail(context.Context, GetCustomerRequest) (CustomerDetail, error)
	Deactivate(context.Context, GetCustomerRequest) error

	// ResolveActiveRate returns the current rate for an active
	// customer. It is called by the delivery ledger at write time so
	// rate changes never apply retroactively.
	ResolveActiveRate(ctx context.Context, customerID snowflake.ID) (ActiveRate, error)
}

var (
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidPhone         = errors.New("invalid_phone")
	ErrInvalidAddress       = errors.New("invalid_address")
	ErrInvalidQuantity      = errors.New("invalid_usual_quantity")
	ErrInvalidRate          = errors.New("invalid_rate_per_liter")
	ErrInvalidDeliveryManID = errors.New("invalid_delivery_man_id")
	ErrInvalidID            = errors.New("invalid_id")
	ErrNotFound             = errors.New("not_found")
)
