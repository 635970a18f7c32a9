package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkbook/milkbook/internal/clock"
	"github.com/milkbook/milkbook/internal/dashboard/domain"
	deliverydomain "github.com/milkbook/milkbook/internal/delivery/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const recentActivityLimit = 10

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("dashboard.service"),
		clock: p.Clock,
	}
}

type todayStatsRow struct {
	TotalMilkDelivered  float64 `gorm:"column:total_milk_delivered"`
	TotalRevenue        float64 `gorm:"column:total_revenue"`
	CompletedDeliveries int     `gorm:"column:completed_deliveries"`
	TotalCustomers      int     `gorm:"column:total_customers"`
}

type agentStatsRow struct {
	ID                 snowflake.ID `gorm:"column:id"`
	Name               string       `gorm:"column:name"`
	TotalCustomers     int          `gorm:"column:total_customers"`
	CompletedToday     int          `gorm:"column:completed_today"`
	MilkDeliveredToday float64      `gorm:"column:milk_delivered_today"`
}

type areaRow struct {
	DeliveryManID snowflake.ID `gorm:"column:delivery_man_id"`
	Area          string       `gorm:"column:area"`
}

type activityRow struct {
	ID              snowflake.ID `gorm:"column:id"`
	Quantity        float64      `gorm:"column:quantity"`
	CreatedAt       time.Time    `gorm:"column:created_at"`
	CustomerName    string       `gorm:"column:customer_name"`
	DeliveryManName string       `gorm:"column:delivery_man_name"`
	Area            string       `gorm:"column:area"`
}

func (s *Service) OwnerSnapshot(ctx context.Context, req domain.OwnerSnapshotRequest) (domain.OwnerSnapshot, error) {
	date, err := s.resolveDate(req.Date)
	if err != nil {
		return domain.OwnerSnapshot{}, err
	}

	var today todayStatsRow
	err = s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(d.quantity), 0) AS total_milk_delivered,
		        COALESCE(SUM(d.total_amount), 0) AS total_revenue,
		        COUNT(DISTINCT d.customer_id) AS completed_deliveries,
		        COUNT(DISTINCT c.id) AS total_customers
		 FROM customers c
		 JOIN users u ON c.user_id = u.id
		 LEFT JOIN deliveries d ON c.id = d.customer_id AND d.delivery_date = ?
		 WHERE u.is_active = true`,
		date,
	).Scan(&today).Error
	if err != nil {
		return domain.OwnerSnapshot{}, err
	}

	var agents []agentStatsRow
	err = s.db.WithContext(ctx).Raw(
		`SELECT u.id, u.name,
		        COUNT(DISTINCT c.id) AS total_customers,
		        COUNT(DISTINCT d.customer_id) AS completed_today,
		        COALESCE(SUM(d.quantity), 0) AS milk_delivered_today
		 FROM users u
		 LEFT JOIN customers c ON u.id = c.delivery_man_id
		 LEFT JOIN deliveries d ON c.id = d.customer_id AND d.delivery_date = ?
		 WHERE u.user_type = 'delivery_man' AND u.is_active = true
		 GROUP BY u.id, u.name
		 ORDER BY u.name`,
		date,
	).Scan(&agents).Error
	if err != nil {
		return domain.OwnerSnapshot{}, err
	}

	areas, err := s.agentAreas(ctx)
	if err != nil {
		return domain.OwnerSnapshot{}, err
	}

	var activity []activityRow
	err = s.db.WithContext(ctx).Raw(
		`SELECT d.id, d.quantity, d.created_at,
		        u.name AS customer_name, dm.name AS delivery_man_name, c.area
		 FROM deliveries d
		 JOIN customers c ON d.customer_id = c.id
		 JOIN users u ON c.user_id = u.id
		 JOIN users dm ON d.delivery_man_id = dm.id
		 WHERE d.delivery_date = ?
		 ORDER BY d.created_at DESC
		 LIMIT ?`,
		date,
		recentActivityLimit,
	).Scan(&activity).Error
	if err != nil {
		return domain.OwnerSnapshot{}, err
	}

	snapshot := domain.OwnerSnapshot{
		TodayStats: domain.TodayStats{
			TotalMilkDelivered:  today.TotalMilkDelivered,
			TotalRevenue:        today.TotalRevenue,
			TotalCustomers:      today.TotalCustomers,
			CompletedDeliveries: today.CompletedDeliveries,
			PendingDeliveries:   max(0, today.TotalCustomers-today.CompletedDeliveries),
			ActiveDeliveryMen:   len(agents),
		},
		DeliveryMenStats: make([]domain.DeliveryManStats, 0, len(agents)),
		RecentActivity:   make([]domain.Activity, 0, len(activity)),
	}

	for _, agent := range agents {
		snapshot.DeliveryMenStats = append(snapshot.DeliveryMenStats, domain.DeliveryManStats{
			ID:            agent.ID,
			Name:          agent.Name,
			Area:          areas[agent.ID],
			Customers:     agent.TotalCustomers,
			Completed:     agent.CompletedToday,
			Pending:       agent.TotalCustomers - agent.CompletedToday,
			MilkDelivered: agent.MilkDeliveredToday,
		})
	}
	for _, row := range activity {
		snapshot.RecentActivity = append(snapshot.RecentActivity, domain.Activity{
			ID:              row.ID,
			Type:            "delivery",
			CustomerName:    row.CustomerName,
			DeliveryManName: row.DeliveryManName,
			Quantity:        row.Quantity,
			Area:            row.Area,
			Time:            row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return snapshot, nil
}

func (s *Service) AgentSnapshot(ctx context.Context, req domain.AgentSnapshotRequest) (domain.AgentSnapshot, error) {
	agentID, err := snowflake.ParseString(strings.TrimSpace(req.DeliveryManID))
	if err != nil || agentID == 0 {
		return domain.AgentSnapshot{}, domain.ErrInvalidDeliveryManID
	}
	date, err := s.resolveDate(req.Date)
	if err != nil {
		return domain.AgentSnapshot{}, err
	}

	var rows []struct {
		CustomerID snowflake.ID `gorm:"column:customer_id"`
		Name       string       `gorm:"column:name"`
		Area       string       `gorm:"column:area"`
		Quantity   *float64     `gorm:"column:quantity"`
	}
	err = s.db.WithContext(ctx).Raw(
		`SELECT c.id AS customer_id, u.name, c.area, d.quantity
		 FROM customers c
		 JOIN users u ON c.user_id = u.id
		 LEFT JOIN deliveries d ON c.id = d.customer_id AND d.delivery_date = ?
		 WHERE c.delivery_man_id = ? AND u.is_active = true
		 ORDER BY c.area, u.name`,
		date,
		agentID,
	).Scan(&rows).Error
	if err != nil {
		return domain.AgentSnapshot{}, err
	}

	snapshot := domain.AgentSnapshot{
		Customers: make([]domain.AgentCustomerStatus, 0, len(rows)),
	}
	for _, row := range rows {
		status := domain.AgentCustomerStatus{
			CustomerID: row.CustomerID,
			Name:       row.Name,
			Area:       row.Area,
			Quantity:   row.Quantity,
			Status:     "pending",
		}
		snapshot.Totals.Customers++
		if row.Quantity != nil {
			status.Status = "complete"
			snapshot.Totals.Completed++
			snapshot.Totals.MilkDelivered += *row.Quantity
		}
		snapshot.Customers = append(snapshot.Customers, status)
	}
	snapshot.Totals.Pending = snapshot.Totals.Customers - snapshot.Totals.Completed

	return snapshot, nil
}

// agentAreas returns a human-readable union of each agent's customer
// areas, aggregated in Go because string aggregation differs across
// the supported dialects.
func (s *Service) agentAreas(ctx context.Context) (map[snowflake.ID]string, error) {
	var rows []areaRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT DISTINCT c.delivery_man_id, c.area
		 FROM customers c
		 JOIN users u ON c.user_id = u.id
		 WHERE u.is_active = true AND c.area <> ''
		 ORDER BY c.delivery_man_id, c.area`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	areas := make(map[snowflake.ID]string, len(rows))
	for _, row := range rows {
		if existing, ok := areas[row.DeliveryManID]; ok {
			areas[row.DeliveryManID] = existing + ", " + row.Area
		} else {
			areas[row.DeliveryManID] = row.Area
		}
	}
	return areas, nil
}

func (s *Service) resolveDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return deliverydomain.DateOnly(s.clock.Now()), nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, domain.ErrInvalidDate
	}
	return deliverydomain.DateOnly(parsed), nil
}
