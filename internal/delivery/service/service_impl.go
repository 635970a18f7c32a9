package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkbook/milkbook/internal/actorcontext"
	"github.com/milkbook/milkbook/internal/clock"
	customerdomain "github.com/milkbook/milkbook/internal/customer/domain"
	"github.com/milkbook/milkbook/internal/delivery/domain"
	"github.com/milkbook/milkbook/internal/notification"
	obsmetrics "github.com/milkbook/milkbook/internal/observability/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	CustomerSvc customerdomain.Service
	Notifier    notification.Notifier
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	customersvc customerdomain.Service
	notifier    notification.Notifier
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("delivery.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		customersvc: p.CustomerSvc,
		notifier:    p.Notifier,
		metrics:     p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordDeliveryRequest) (domain.DeliveryRecord, error) {
	actor, ok := actorcontext.FromContext(ctx)
	if !ok {
		return domain.DeliveryRecord{}, actorcontext.ErrNoActor
	}
	if !actor.CanRecordDeliveries() {
		return domain.DeliveryRecord{}, actorcontext.ErrForbidden
	}

	customerID, err := parseID(req.CustomerID, domain.ErrInvalidCustomerID)
	if err != nil {
		return domain.DeliveryRecord{}, err
	}
	agentID, err := parseID(req.DeliveryManID, domain.ErrInvalidDeliveryManID)
	if err != nil {
		return domain.DeliveryRecord{}, err
	}
	if req.Quantity == nil || math.IsNaN(*req.Quantity) || math.IsInf(*req.Quantity, 0) {
		return domain.DeliveryRecord{}, domain.ErrInvalidQuantity
	}
	quantity := decimal.NewFromFloat(*req.Quantity)
	if !quantity.IsPositive() {
		return domain.DeliveryRecord{}, domain.ErrInvalidQuantity
	}

	date, err := s.resolveDate(req.DeliveryDate)
	if err != nil {
		return domain.DeliveryRecord{}, err
	}

	// Rate is resolved at call time, never cached: customers whose
	// rate changed yesterday get today's rate today.
	rate, err := s.customersvc.ResolveActiveRate(ctx, customerID)
	if err != nil {
		return domain.DeliveryRecord{}, err
	}

	record := domain.DeliveryRecord{
		ID:            s.genID.Generate(),
		CustomerID:    customerID,
		DeliveryManID: agentID,
		Quantity:      quantity,
		RatePerLiter:  rate.RatePerLiter,
		TotalAmount:   rate.RatePerLiter.Mul(quantity).Round(2),
		DeliveryDate:  date,
		CreatedAt:     s.clock.Now(),
	}

	// Single atomic upsert on the (customer_id, delivery_date) key.
	// Two racing calls for the same day serialize at the storage
	// layer; the loser's values win the row (last write wins).
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_id"}, {Name: "delivery_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity", "rate_per_liter", "total_amount", "delivery_man_id",
		}),
	}).Create(&record).Error
	if err != nil {
		return domain.DeliveryRecord{}, err
	}

	// Re-read by natural key: on conflict the stored row keeps its
	// original id and created_at.
	var stored domain.DeliveryRecord
	err = s.db.WithContext(ctx).
		Where("customer_id = ? AND delivery_date = ?", customerID, date).
		First(&stored).Error
	if err != nil {
		return domain.DeliveryRecord{}, err
	}

	s.notifier.Notify(rate.UserID, notification.KindDeliveryRecorded, map[string]any{
		"customer_id":   stored.CustomerID.String(),
		"delivery_date": stored.DeliveryDate.Format("2006-01-02"),
		"quantity":      stored.Quantity.InexactFloat64(),
		"total_amount":  stored.TotalAmount.InexactFloat64(),
	})
	s.metrics.RecordDelivery()

	s.log.Info("delivery recorded",
		zap.String("customer_id", stored.CustomerID.String()),
		zap.String("delivery_man_id", stored.DeliveryManID.String()),
		zap.String("delivery_date", stored.DeliveryDate.Format("2006-01-02")),
		zap.String("quantity", stored.Quantity.String()),
	)

	return stored, nil
}

func (s *Service) ListByAgentDate(ctx context.Context, req domain.ListByAgentDateRequest) ([]domain.AgentDelivery, error) {
	agentID, err := parseID(req.DeliveryManID, domain.ErrInvalidDeliveryManID)
	if err != nil {
		return nil, err
	}
	date, err := s.resolveDate(req.Date)
	if err != nil {
		return nil, err
	}

	var deliveries []domain.AgentDelivery
	err = s.db.WithContext(ctx).Raw(
		`SELECT d.*, u.name AS customer_name, c.area
		 FROM deliveries d
		 JOIN customers c ON d.customer_id = c.id
		 JOIN users u ON c.user_id = u.id
		 WHERE d.delivery_man_id = ? AND d.delivery_date = ?
		 ORDER BY d.created_at DESC`,
		agentID,
		date,
	).Scan(&deliveries).Error
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (s *Service) ListByCustomerMonth(ctx context.Context, req domain.ListByCustomerMonthRequest) ([]domain.DeliveryRecord, error) {
	customerID, err := parseID(req.CustomerID, domain.ErrInvalidCustomerID)
	if err != nil {
		return nil, err
	}
	if req.Month < 1 || req.Month > 12 || req.Year < 1 {
		return nil, domain.ErrInvalidMonth
	}

	from, to := domain.MonthWindow(req.Month, req.Year)
	var records []domain.DeliveryRecord
	err = s.db.WithContext(ctx).
		Where("customer_id = ? AND delivery_date >= ? AND delivery_date < ?", customerID, from, to).
		Order("delivery_date asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) resolveDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.DateOnly(s.clock.Now()), nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, domain.ErrInvalidDate
	}
	return domain.DateOnly(parsed), nil
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
