package domain

import (
	"context"
	"errors"
)

type GenerateBillsRequest struct {
	// Month and Year default to the current window when zero.
	Month int
	Year  int
}

type GenerateBillsResponse struct {
	Bills   []CustomerBill `json:"bills"`
	Summary Summary        `json:"summary"`
}

type ListBillsRequest struct {
	Month      int
	Year       int
	CustomerID string
}

type Service interface {
	// Generate reconciles the (month, year) window: every active
	// customer with delivered quantity in the window gets exactly one
	// bill, created or overwritten. Re-running converges to the same
	// totals for the same underlying ledger.
	Generate(context.Context, GenerateBillsRequest) (GenerateBillsResponse, error)
	List(context.Context, ListBillsRequest) ([]CustomerBill, error)
}

var (
	ErrInvalidMonth      = errors.New("invalid_month")
	ErrInvalidCustomerID = errors.New("invalid_customer_id")
)
