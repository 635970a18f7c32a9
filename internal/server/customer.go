package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	customerdomain "github.com/milkbook/milkbook/internal/customer/domain"
)

type onboardCustomerRequest struct {
	Name          string   `json:"name"`
	Phone         string   `json:"phone"`
	Address       string   `json:"address"`
	Area          string   `json:"area"`
	UsualQuantity *float64 `json:"usual_quantity"`
	RatePerLiter  *float64 `json:"rate_per_liter"`
	DeliveryManID string   `json:"delivery_man_id"`
}

type updateCustomerRequest struct {
	Name          *string  `json:"name"`
	Phone         *string  `json:"phone"`
	Address       *string  `json:"address"`
	Area          *string  `json:"area"`
	UsualQuantity *float64 `json:"usual_quantity"`
	RatePerLiter  *float64 `json:"rate_per_liter"`
}

type customerResponse struct {
	ID            snowflake.ID `json:"id"`
	Name          string       `json:"name"`
	Phone         string       `json:"phone"`
	Address       string       `json:"address"`
	Area          string       `json:"area"`
	UsualQuantity float64      `json:"usual_quantity"`
	RatePerLiter  float64      `json:"rate_per_liter"`
	DeliveryManID snowflake.ID `json:"delivery_man_id"`
}

type agentCustomerResponse struct {
	ID            snowflake.ID `json:"id"`
	Name          string       `json:"name"`
	Phone         string       `json:"phone"`
	Address       string       `json:"address"`
	Area          string       `json:"area"`
	UsualQuantity float64      `json:"usual_quantity"`
	RatePerLiter  float64      `json:"rate_per_liter"`
	TodayQuantity *float64     `json:"today_quantity"`
	TodayStatus   string       `json:"today_status"`
}

func toCustomerResponse(p customerdomain.Profile) customerResponse {
	return customerResponse{
		ID:            p.ID,
		Name:          p.Name,
		Phone:         p.Phone,
		Address:       p.Address,
		Area:          p.Area,
		UsualQuantity: p.UsualQuantity.InexactFloat64(),
		RatePerLiter:  p.RatePerLiter.InexactFloat64(),
		DeliveryManID: p.DeliveryManID,
	}
}

// ListCustomers returns a delivery agent's round with each customer's
// status for today.
func (s *Server) ListCustomers(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			AbortWithError(c, newValidationError("date", "invalid_date", "must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	customers, err := s.customerSvc.ListByAgent(c.Request.Context(), customerdomain.ListByAgentRequest{
		DeliveryManID: c.Query("delivery_man_id"),
		Date:          date,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows := make([]agentCustomerResponse, 0, len(customers))
	for _, customer := range customers {
		row := agentCustomerResponse{
			ID:            customer.ID,
			Name:          customer.Name,
			Phone:         customer.Phone,
			Address:       customer.Address,
			Area:          customer.Area,
			UsualQuantity: customer.UsualQuantity.InexactFloat64(),
			RatePerLiter:  customer.RatePerLiter.InexactFloat64(),
			TodayStatus:   customer.TodayStatus,
		}
		if customer.TodayQuantity != nil {
			quantity := customer.TodayQuantity.InexactFloat64()
			row.TodayQuantity = &quantity
		}
		rows = append(rows, row)
	}

	c.JSON(http.StatusOK, gin.H{"customers": rows})
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req onboardCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	profile, err := s.customerSvc.Onboard(c.Request.Context(), customerdomain.OnboardCustomerRequest{
		Name:          req.Name,
		Phone:         req.Phone,
		Address:       req.Address,
		Area:          req.Area,
		UsualQuantity: req.UsualQuantity,
		RatePerLiter:  req.RatePerLiter,
		DeliveryManID: req.DeliveryManID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"customer": toCustomerResponse(profile),
		"message":  "Customer added successfully",
	})
}

// GetCustomerByID returns a customer profile with the current month's
// delivery history.
func (s *Server) GetCustomerByID(c *gin.Context) {
	detail, err := s.customerSvc.Detail(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer":   toCustomerResponse(detail.Customer),
		"deliveries": detail.Deliveries,
	})
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	var req updateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	profile, err := s.customerSvc.Update(c.Request.Context(), customerdomain.UpdateCustomerRequest{
		ID:            c.Param("id"),
		Name:          req.Name,
		Phone:         req.Phone,
		Address:       req.Address,
		Area:          req.Area,
		UsualQuantity: req.UsualQuantity,
		RatePerLiter:  req.RatePerLiter,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer": toCustomerResponse(profile),
		"message":  "Customer updated successfully",
	})
}

// DeactivateCustomer soft-deletes by flipping the identity inactive;
// the delivery ledger and bills keep their history.
func (s *Server) DeactivateCustomer(c *gin.Context) {
	err := s.customerSvc.Deactivate(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer deactivated successfully"})
}
