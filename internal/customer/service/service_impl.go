package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/milkbook/milkbook/internal/clock"
	"github.com/milkbook/milkbook/internal/customer/domain"
	deliverydomain "github.com/milkbook/milkbook/internal/delivery/domain"
	identitydomain "github.com/milkbook/milkbook/internal/identity/domain"
	"github.com/milkbook/milkbook/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	defaultUsualQuantity = decimal.NewFromFloat(1.0)
	defaultRatePerLiter  = decimal.NewFromFloat(60.0)
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Onboard(ctx context.Context, req domain.OnboardCustomerRequest) (domain.Profile, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Profile{}, domain.ErrInvalidName
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return domain.Profile{}, domain.ErrInvalidPhone
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return domain.Profile{}, domain.ErrInvalidAddress
	}
	agentID, err := snowflake.ParseString(strings.TrimSpace(req.DeliveryManID))
	if err != nil || agentID == 0 {
		return domain.Profile{}, domain.ErrInvalidDeliveryManID
	}

	usualQuantity := defaultUsualQuantity
	if req.UsualQuantity != nil {
		usualQuantity = decimal.NewFromFloat(*req.UsualQuantity)
		if usualQuantity.IsNegative() {
			return domain.Profile{}, domain.ErrInvalidQuantity
		}
	}
	rate := defaultRatePerLiter
	if req.RatePerLiter != nil {
		rate = decimal.NewFromFloat(*req.RatePerLiter)
		if !rate.IsPositive() {
			return domain.Profile{}, domain.ErrInvalidRate
		}
	}

	now := s.clock.Now()
	user := identitydomain.User{
		ID:        s.genID.Generate(),
		Name:      name,
		Phone:     phone,
		UserType:  identitydomain.UserTypeCustomer,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	customer := domain.Customer{
		ID:            s.genID.Generate(),
		UserID:        user.ID,
		Address:       address,
		Area:          strings.TrimSpace(req.Area),
		UsualQuantity: usualQuantity,
		RatePerLiter:  rate,
		DeliveryManID: agentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, &user, &customer); err != nil {
		// Phone is the login identity; a second registration with the
		// same phone is a caller mistake, not a server fault.
		if db.IsDuplicateKeyErr(err) {
			return domain.Profile{}, domain.ErrInvalidPhone
		}
		return domain.Profile{}, err
	}

	return domain.Profile{
		ID:            customer.ID,
		Name:          user.Name,
		Phone:         user.Phone,
		Address:       customer.Address,
		Area:          customer.Area,
		UsualQuantity: customer.UsualQuantity,
		RatePerLiter:  customer.RatePerLiter,
		DeliveryManID: customer.DeliveryManID,
	}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Profile, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Profile{}, err
	}

	userFields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Profile{}, domain.ErrInvalidName
		}
		userFields["name"] = name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return domain.Profile{}, domain.ErrInvalidPhone
		}
		userFields["phone"] = phone
	}

	customerFields := map[string]any{}
	if req.Address != nil {
		address := strings.TrimSpace(*req.Address)
		if address == "" {
			return domain.Profile{}, domain.ErrInvalidAddress
		}
		customerFields["address"] = address
	}
	if req.Area != nil {
		customerFields["area"] = strings.TrimSpace(*req.Area)
	}
	if req.UsualQuantity != nil {
		quantity := decimal.NewFromFloat(*req.UsualQuantity)
		if quantity.IsNegative() {
			return domain.Profile{}, domain.ErrInvalidQuantity
		}
		customerFields["usual_quantity"] = quantity
	}
	if req.RatePerLiter != nil {
		rate := decimal.NewFromFloat(*req.RatePerLiter)
		if !rate.IsPositive() {
			return domain.Profile{}, domain.ErrInvalidRate
		}
		customerFields["rate_per_liter"] = rate
	}

	existing, err := s.repo.FindProfileByID(ctx, s.db, id)
	if err != nil {
		return domain.Profile{}, err
	}
	if existing == nil {
		return domain.Profile{}, domain.ErrNotFound
	}

	if len(userFields) > 0 || len(customerFields) > 0 {
		now := s.clock.Now()
		if len(userFields) > 0 {
			userFields["updated_at"] = now
		}
		if len(customerFields) > 0 {
			customerFields["updated_at"] = now
		}
		if err := s.repo.UpdatePartial(ctx, s.db, id, userFields, customerFields); err != nil {
			return domain.Profile{}, err
		}
	}

	updated, err := s.repo.FindProfileByID(ctx, s.db, id)
	if err != nil {
		return domain.Profile{}, err
	}
	if updated == nil {
		return domain.Profile{}, domain.ErrNotFound
	}
	return *updated, nil
}

func (s *Service) ListByAgent(ctx context.Context, req domain.ListByAgentRequest) ([]domain.AgentCustomer, error) {
	agentID, err := snowflake.ParseString(strings.TrimSpace(req.DeliveryManID))
	if err != nil || agentID == 0 {
		return nil, domain.ErrInvalidDeliveryManID
	}

	date := req.Date
	if date.IsZero() {
		date = s.clock.Now()
	}
	return s.repo.ListByAgent(ctx, s.db, agentID, deliverydomain.DateOnly(date))
}

func (s *Service) Detail(ctx context.Context, req domain.GetCustomerRequest) (domain.CustomerDetail, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.CustomerDetail{}, err
	}

	profile, err := s.repo.FindProfileByID(ctx, s.db, id)
	if err != nil {
		return domain.CustomerDetail{}, err
	}
	if profile == nil {
		return domain.CustomerDetail{}, domain.ErrNotFound
	}

	now := s.clock.Now()
	from, to := deliverydomain.MonthWindow(int(now.Month()), now.Year())
	deliveries, err := s.repo.ListMonthDeliveries(ctx, s.db, id, from, to)
	if err != nil {
		return domain.CustomerDetail{}, err
	}

	return domain.CustomerDetail{
		Customer:   *profile,
		Deliveries: deliveries,
	}, nil
}

func (s *Service) Deactivate(ctx context.Context, req domain.GetCustomerRequest) error {
	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	existing, err := s.repo.FindProfileByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	return s.repo.Deactivate(ctx, s.db, id)
}

func (s *Service) ResolveActiveRate(ctx context.Context, customerID snowflake.ID) (domain.ActiveRate, error) {
	rate, err := s.repo.FindActiveRate(ctx, s.db, customerID)
	if err != nil {
		return domain.ActiveRate{}, err
	}
	if rate == nil {
		return domain.ActiveRate{}, domain.ErrNotFound
	}
	return *rate, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
