package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	dashboarddomain "github.com/milkbook/milkbook/internal/dashboard/domain"
)

// GetOwnerDashboard returns the owner's whole-operation snapshot for
// one day.
func (s *Server) GetOwnerDashboard(c *gin.Context) {
	snapshot, err := s.dashboardSvc.OwnerSnapshot(c.Request.Context(), dashboarddomain.OwnerSnapshotRequest{
		Date: c.Query("date"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"todayStats":       snapshot.TodayStats,
		"deliveryMenStats": snapshot.DeliveryMenStats,
		"recentActivity":   snapshot.RecentActivity,
	})
}

// GetAgentSummary returns one agent's round progress for a day.
func (s *Server) GetAgentSummary(c *gin.Context) {
	snapshot, err := s.dashboardSvc.AgentSnapshot(c.Request.Context(), dashboarddomain.AgentSnapshotRequest{
		DeliveryManID: c.Query("delivery_man_id"),
		Date:          c.Query("date"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customers": snapshot.Customers,
		"totals":    snapshot.Totals,
	})
}
