package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	deliverydomain "github.com/milkbook/milkbook/internal/delivery/domain"
)

type recordDeliveryRequest struct {
	CustomerID    string   `json:"customer_id"`
	DeliveryManID string   `json:"delivery_man_id"`
	Quantity      *float64 `json:"quantity"`
	DeliveryDate  string   `json:"delivery_date"`
}

type deliveryResponse struct {
	ID            snowflake.ID `json:"id"`
	CustomerID    snowflake.ID `json:"customer_id"`
	DeliveryManID snowflake.ID `json:"delivery_man_id"`
	Quantity      float64      `json:"quantity"`
	RatePerLiter  float64      `json:"rate_per_liter"`
	TotalAmount   float64      `json:"total_amount"`
	DeliveryDate  string       `json:"delivery_date"`
	CreatedAt     time.Time    `json:"created_at"`
}

type agentDeliveryResponse struct {
	deliveryResponse
	CustomerName string `json:"customer_name"`
	Area         string `json:"area"`
}

func toDeliveryResponse(d deliverydomain.DeliveryRecord) deliveryResponse {
	return deliveryResponse{
		ID:            d.ID,
		CustomerID:    d.CustomerID,
		DeliveryManID: d.DeliveryManID,
		Quantity:      d.Quantity.InexactFloat64(),
		RatePerLiter:  d.RatePerLiter.InexactFloat64(),
		TotalAmount:   d.TotalAmount.InexactFloat64(),
		DeliveryDate:  d.DeliveryDate.Format(time.DateOnly),
		CreatedAt:     d.CreatedAt,
	}
}

// RecordDelivery writes the single delivery fact for a (customer, day)
// slot. Recording twice for the same day replaces the earlier record.
func (s *Server) RecordDelivery(c *gin.Context) {
	var req recordDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.deliverySvc.Record(c.Request.Context(), deliverydomain.RecordDeliveryRequest{
		CustomerID:    req.CustomerID,
		DeliveryManID: req.DeliveryManID,
		Quantity:      req.Quantity,
		DeliveryDate:  req.DeliveryDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"delivery": toDeliveryResponse(record),
		"message":  "Delivery recorded successfully",
	})
}

// ListDeliveries returns an agent's deliveries for one day, newest
// first. With a customer_id it switches to that customer's month
// history, oldest first.
func (s *Server) ListDeliveries(c *gin.Context) {
	if customerID := c.Query("customer_id"); customerID != "" {
		s.listCustomerMonth(c, customerID)
		return
	}

	records, err := s.deliverySvc.ListByAgentDate(c.Request.Context(), deliverydomain.ListByAgentDateRequest{
		DeliveryManID: c.Query("delivery_man_id"),
		Date:          c.Query("date"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	deliveries := make([]agentDeliveryResponse, 0, len(records))
	for _, record := range records {
		deliveries = append(deliveries, agentDeliveryResponse{
			deliveryResponse: toDeliveryResponse(record.DeliveryRecord),
			CustomerName:     record.CustomerName,
			Area:             record.Area,
		})
	}

	c.JSON(http.StatusOK, gin.H{"deliveries": deliveries})
}

func (s *Server) listCustomerMonth(c *gin.Context, customerID string) {
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

	records, err := s.deliverySvc.ListByCustomerMonth(c.Request.Context(), deliverydomain.ListByCustomerMonthRequest{
		CustomerID: customerID,
		Month:      month,
		Year:       year,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	deliveries := make([]deliveryResponse, 0, len(records))
	for _, record := range records {
		deliveries = append(deliveries, toDeliveryResponse(record))
	}

	c.JSON(http.StatusOK, gin.H{"deliveries": deliveries})
}
