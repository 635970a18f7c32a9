package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	billingdomain "github.com/milkbook/milkbook/internal/billing/domain"
)

type generateBillsRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

type billResponse struct {
	ID              snowflake.ID `json:"id"`
	CustomerID      snowflake.ID `json:"customer_id"`
	CustomerName    string       `json:"customer_name"`
	CustomerPhone   string       `json:"customer_phone"`
	CustomerAddress string       `json:"customer_address"`
	Month           int          `json:"month"`
	Year            int          `json:"year"`
	TotalQuantity   float64      `json:"total_quantity"`
	TotalAmount     float64      `json:"total_amount"`
	DeliveryDays    int          `json:"delivery_days,omitempty"`
	IsGenerated     bool         `json:"is_generated"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

type billSummaryResponse struct {
	TotalCustomers int     `json:"total_customers"`
	TotalQuantity  float64 `json:"total_quantity"`
	TotalAmount    float64 `json:"total_amount"`
	Month          int     `json:"month"`
	Year           int     `json:"year"`
}

func toBillResponse(b billingdomain.CustomerBill) billResponse {
	return billResponse{
		ID:              b.ID,
		CustomerID:      b.CustomerID,
		CustomerName:    b.CustomerName,
		CustomerPhone:   b.CustomerPhone,
		CustomerAddress: b.CustomerAddress,
		Month:           b.Month,
		Year:            b.Year,
		TotalQuantity:   b.TotalQuantity.InexactFloat64(),
		TotalAmount:     b.TotalAmount.InexactFloat64(),
		DeliveryDays:    b.DeliveryDays,
		IsGenerated:     b.IsGenerated,
		GeneratedAt:     b.GeneratedAt,
	}
}

func toBillResponses(bills []billingdomain.CustomerBill) []billResponse {
	out := make([]billResponse, 0, len(bills))
	for _, bill := range bills {
		out = append(out, toBillResponse(bill))
	}
	return out
}

// GenerateBills runs billing reconciliation for one month window.
// Re-running the same window overwrites each bill with freshly
// recomputed totals.
func (s *Server) GenerateBills(c *gin.Context) {
	var req generateBillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.billingSvc.Generate(c.Request.Context(), billingdomain.GenerateBillsRequest{
		Month: req.Month,
		Year:  req.Year,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bills": toBillResponses(result.Bills),
		"summary": billSummaryResponse{
			TotalCustomers: result.Summary.TotalCustomers,
			TotalQuantity:  result.Summary.TotalQuantity.InexactFloat64(),
			TotalAmount:    result.Summary.TotalAmount.InexactFloat64(),
			Month:          result.Summary.Month,
			Year:           result.Summary.Year,
		},
		"message": "Bills generated successfully",
	})
}

func (s *Server) ListBills(c *gin.Context) {
	month, err := intQuery(c, "month")
	if err != nil {
		AbortWithError(c, newValidationError("month", "invalid_month", "must be a number"))
		return
	}
	year, err := intQuery(c, "year")
	if err != nil {
		AbortWithError(c, newValidationError("year", "invalid_month", "must be a number"))
		return
	}

	bills, err := s.billingSvc.List(c.Request.Context(), billingdomain.ListBillsRequest{
		Month:      month,
		Year:       year,
		CustomerID: c.Query("customer_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bills": toBillResponses(bills)})
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
