package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/milkbook/milkbook/internal/actorcontext"
	"github.com/milkbook/milkbook/internal/billing/domain"
	"github.com/milkbook/milkbook/internal/clock"
	deliverydomain "github.com/milkbook/milkbook/internal/delivery/domain"
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

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Notifier notification.Notifier
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	notifier notification.Notifier
	metrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("billing.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		notifier: p.Notifier,
		metrics:  p.Metrics,
	}
}

// windowAggregate is one active customer's ledger total for a window.
type windowAggregate struct {
	CustomerID    snowflake.ID    `gorm:"column:customer_id"`
	UserID        snowflake.ID    `gorm:"column:user_id"`
	CustomerName  string          `gorm:"column:customer_name"`
	Phone         string          `gorm:"column:phone"`
	Address       string          `gorm:"column:address"`
	TotalQuantity decimal.Decimal `gorm:"column:total_quantity"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount"`
	DeliveryDays  int             `gorm:"column:delivery_days"`
}

func (s *Service) Generate(ctx context.Context, req domain.GenerateBillsRequest) (domain.GenerateBillsResponse, error) {
	actor, ok := actorcontext.FromContext(ctx)
	if !ok {
		return domain.GenerateBillsResponse{}, actorcontext.ErrNoActor
	}
	if !actor.CanGenerateBills() {
		return domain.GenerateBillsResponse{}, actorcontext.ErrForbidden
	}

	month, year, err := s.resolveWindow(req.Month, req.Year)
	if err != nil {
		return domain.GenerateBillsResponse{}, err
	}
	from, to := deliverydomain.MonthWindow(month, year)

	// One pass over the ledger: customers with zero delivered
	// quantity in the window are filtered out here and never get a
	// bill row.
	var aggregates []windowAggregate
	err = s.db.WithContext(ctx).Raw(
		`SELECT c.id AS customer_id, c.user_id, u.name AS customer_name, u.phone, c.address,
		        COALESCE(SUM(d.quantity), 0) AS total_quantity,
		        COALESCE(SUM(d.total_amount), 0) AS total_amount,
		        COUNT(d.id) AS delivery_days
		 FROM customers c
		 JOIN users u ON c.user_id = u.id
		 LEFT JOIN deliveries d ON c.id = d.customer_id
		        AND d.delivery_date >= ? AND d.delivery_date < ?
		 WHERE u.is_active = true
		 GROUP BY c.id, c.user_id, u.name, u.phone, c.address
		 HAVING COALESCE(SUM(d.quantity), 0) > 0
		 ORDER BY u.name`,
		from,
		to,
	).Scan(&aggregates).Error
	if err != nil {
		return domain.GenerateBillsResponse{}, err
	}

	now := s.clock.Now()
	bills := make([]domain.CustomerBill, 0, len(aggregates))
	summaryQuantity := decimal.Zero
	summaryAmount := decimal.Zero

	for _, agg := range aggregates {
		bill := domain.MonthlyBill{
			ID:            s.genID.Generate(),
			CustomerID:    agg.CustomerID,
			Month:         month,
			Year:          year,
			TotalQuantity: agg.TotalQuantity.Round(2),
			TotalAmount:   agg.TotalAmount.Round(2),
			IsGenerated:   true,
			GeneratedAt:   now,
		}

		// Atomic upsert on (customer_id, month, year): regeneration
		// overwrites totals, it never stacks them.
		err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_id"}, {Name: "month"}, {Name: "year"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_quantity", "total_amount", "is_generated", "generated_at",
			}),
		}).Create(&bill).Error
		if err != nil {
			return domain.GenerateBillsResponse{}, err
		}

		var stored domain.MonthlyBill
		err = s.db.WithContext(ctx).
			Where("customer_id = ? AND month = ? AND year = ?", agg.CustomerID, month, year).
			First(&stored).Error
		if err != nil {
			return domain.GenerateBillsResponse{}, err
		}

		bills = append(bills, domain.CustomerBill{
			MonthlyBill:     stored,
			CustomerName:    agg.CustomerName,
			CustomerPhone:   agg.Phone,
			CustomerAddress: agg.Address,
			DeliveryDays:    agg.DeliveryDays,
		})
		summaryQuantity = summaryQuantity.Add(stored.TotalQuantity)
		summaryAmount = summaryAmount.Add(stored.TotalAmount)

		s.notifier.Notify(agg.UserID, notification.KindBillGenerated, map[string]any{
			"customer_id":  agg.CustomerID.String(),
			"month":        month,
			"year":         year,
			"total_amount": stored.TotalAmount.InexactFloat64(),
		})
	}

	s.metrics.RecordBillsGenerated(len(bills))
	s.log.Info("monthly bills generated",
		zap.Int("month", month),
		zap.Int("year", year),
		zap.Int("customers", len(bills)),
		zap.String("total_amount", summaryAmount.String()),
	)

	return domain.GenerateBillsResponse{
		Bills: bills,
		Summary: domain.Summary{
			TotalCustomers: len(bills),
			TotalQuantity:  summaryQuantity,
			TotalAmount:    summaryAmount,
			Month:          month,
			Year:           year,
		},
	}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListBillsRequest) ([]domain.CustomerBill, error) {
	month, year, err := s.resolveWindow(req.Month, req.Year)
	if err != nil {
		return nil, err
	}

	query := `SELECT mb.*, u.name AS customer_name, u.phone AS customer_phone, c.address AS customer_address
	          FROM monthly_bills mb
	          JOIN customers c ON mb.customer_id = c.id
	          JOIN users u ON c.user_id = u.id
	          WHERE mb.month = ? AND mb.year = ?`
	args := []any{month, year}

	if trimmed := strings.TrimSpace(req.CustomerID); trimmed != "" {
		customerID, err := snowflake.ParseString(trimmed)
		if err != nil || customerID == 0 {
			return nil, domain.ErrInvalidCustomerID
		}
		query += ` AND mb.customer_id = ?`
		args = append(args, customerID)
	}
	query += ` ORDER BY u.name`

	var bills []domain.CustomerBill
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

func (s *Service) resolveWindow(month, year int) (int, int, error) {
	now := s.clock.Now()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 || year < 1 {
		return 0, 0, domain.ErrInvalidMonth
	}
	return month, year, nil
}
