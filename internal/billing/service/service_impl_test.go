package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkbook/milkbook/internal/actorcontext"
	"github.com/milkbook/milkbook/internal/billing/domain"
	"github.com/milkbook/milkbook/internal/clock"
	customerdomain "github.com/milkbook/milkbook/internal/customer/domain"
	deliverydomain "github.com/milkbook/milkbook/internal/delivery/domain"
	identitydomain "github.com/milkbook/milkbook/internal/identity/domain"
	"github.com/milkbook/milkbook/pkg/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type notifierStub struct {
	mu    sync.Mutex
	kinds []string
}

func (n *notifierStub) Notify(userID snowflake.ID, kind string, payload map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
}

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clk   *clock.FakeClock
	bills domain.Service
	agent snowflake.ID
}

func setupBilling(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&identitydomain.User{},
		&customerdomain.Customer{},
		&deliverydomain.DeliveryRecord{},
		&domain.MonthlyBill{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC))

	bills := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Notifier: &notifierStub{},
	})

	return &fixture{
		db:    conn,
		node:  node,
		clk:   clk,
		bills: bills,
		agent: node.Generate(),
	}
}

func (f *fixture) seedCustomer(t *testing.T, name string, active bool) customerdomain.Customer {
	t.Helper()
	user := identitydomain.User{
		ID:       f.node.Generate(),
		Name:     name,
		Phone:    "98" + f.node.Generate().String(),
		UserType: identitydomain.UserTypeCustomer,
		IsActive: active,
	}
	require.NoError(t, f.db.Create(&user).Error)

	customer := customerdomain.Customer{
		ID:            f.node.Generate(),
		UserID:        user.ID,
		Address:       "12 Main Road",
		Area:          "North",
		UsualQuantity: decimal.NewFromInt(1),
		RatePerLiter:  decimal.NewFromInt(60),
		DeliveryManID: f.agent,
	}
	require.NoError(t, f.db.Create(&customer).Error)
	return customer
}

func (f *fixture) seedDelivery(t *testing.T, customer customerdomain.Customer, day string, quantity, rate float64) {
	t.Helper()
	date, err := time.ParseInLocation("2006-01-02", day, time.UTC)
	require.NoError(t, err)

	q := decimal.NewFromFloat(quantity)
	r := decimal.NewFromFloat(rate)
	record := deliverydomain.DeliveryRecord{
		ID:            f.node.Generate(),
		CustomerID:    customer.ID,
		DeliveryManID: f.agent,
		Quantity:      q,
		RatePerLiter:  r,
		TotalAmount:   r.Mul(q).Round(2),
		DeliveryDate:  date,
		CreatedAt:     f.clk.Now(),
	}
	require.NoError(t, f.db.Create(&record).Error)
}

func ownerContext(node *snowflake.Node) context.Context {
	return actorcontext.WithActor(context.Background(), actorcontext.Actor{
		ID:   node.Generate(),
		Role: actorcontext.RoleOwner,
	})
}

func TestGenerateBillsAggregatesWindow(t *testing.T) {
	f := setupBilling(t)
	customer := f.seedCustomer(t, "Ramesh", true)
	f.seedDelivery(t, customer, "2025-03-01", 1.5, 60)
	f.seedDelivery(t, customer, "2025-03-02", 1.5, 60)
	// Outside the window, must not count.
	f.seedDelivery(t, customer, "2025-04-01", 5, 60)

	result, err := f.bills.Generate(ownerContext(f.node), domain.GenerateBillsRequest{Month: 3, Year: 2025})
	require.NoError(t, err)

	require.Len(t, result.Bills, 1)
	bill := result.Bills[0]
	require.True(t, bill.TotalQuantity.Equal(decimal.RequireFromString("3")), "quantity %s", bill.TotalQuantity)
	require.True(t, bill.TotalAmount.Equal(decimal.RequireFromString("180")), "amount %s", bill.TotalAmount)
	require.Equal(t, 2, bill.DeliveryDays)
	require.Equal(t, "Ramesh", bill.CustomerName)
	require.True(t, bill.IsGenerated)

	require.Equal(t, 1, result.Summary.TotalCustomers)
	require.True(t, result.Summary.TotalAmount.Equal(decimal.RequireFromString("180")))
	require.Equal(t, 3, result.Summary.Month)
	require.Equal(t, 2025, result.Summary.Year)
}

func TestRegenerateOverwritesInsteadOfAccumulating(t *testing.T) {
	f := setupBilling(t)
	customer := f.seedCustomer(t, "Ramesh", true)
	f.seedDelivery(t, customer, "2025-03-01", 1.5, 60)
	f.seedDelivery(t, customer, "2025-03-02", 1.5, 60)
	ctx := ownerContext(f.node)

	first, err := f.bills.Generate(ctx, domain.GenerateBillsRequest{Month: 3, Year: 2025})
	require.NoError(t, err)
	require.Len(t, first.Bills, 1)
	require.True(t, first.Bills[0].TotalAmount.Equal(decimal.RequireFromString("180")))

	// A correction lands after the first run; the rerun must converge
	// on the new ledger totals, not add to the old bill.
	f.seedDelivery(t, customer, "2025-03-03", 1, 60)

	second, err := f.bills.Generate(ctx, domain.GenerateBillsRequest{Month: 3, Year: 2025})
	require.NoError(t, err)
	require.Len(t, second.Bills, 1)
	require.True(t, second.Bills[0].TotalQuantity.Equal(decimal.RequireFromString("4")), "quantity %s", second.Bills[0].TotalQuantity)
	require.True(t, second.Bills[0].TotalAmount.Equal(decimal.RequireFromString("240")), "amount %s", second.Bills[0].TotalAmount)
	require.Equal(t, first.Bills[0].ID, second.Bills[0].ID, "bill row must be reused")

	var count int64
	require.NoError(t, f.db.Model(&domain.MonthlyBill{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestGenerateSkipsCustomersWithoutDeliveries(t *testing.T) {
	f := setupBilling(t)
	delivered := f.seedCustomer(t, "Ramesh", true)
	f.seedCustomer(t, "Suresh", true)
	f.seedDelivery(t, delivered, "2025-03-10", 2, 60)

	result, err := f.bills.Generate(ownerContext(f.node), domain.GenerateBillsRequest{Month: 3, Year: 2025})
	require.NoError(t, err)
	require.Len(t, result.Bills, 1)
	require.Equal(t, delivered.ID, result.Bills[0].CustomerID)

	var count int64
	require.NoError(t, f.db.Model(&domain.MonthlyBill{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestGenerateIgnoresInactiveCustomers(t *testing.T) {
	f := setupBilling(t)
	inactive := f.seedCustomer(t, "Gone", false)
	f.seedDelivery(t, inactive, "2025-03-10", 2, 60)

	result, err := f.bills.Generate(ownerContext(f.node), domain.GenerateBillsRequest{Month: 3, Year: 2025})
	require.NoError(t, err)
	require.Empty(t, result.Bills)
}

func TestGenerateDefaultsToCurrentWindow(t *testing.T) {
	f := setupBilling(t)
	customer := f.seedCustomer(t, "Ramesh", true)
	// Clock sits in April 2025.
	f.seedDelivery(t, customer, "2025-04-01", 2, 60)

	result, err := f.bills.Generate(ownerContext(f.node), domain.GenerateBillsRequest{})
	require.NoError(t, err)
	require.Equal(t, 4, result.Summary.Month)
	require.Equal(t, 2025, result.Summary.Year)
	require.Len(t, result.Bills, 1)
}

func TestGenerateRejectsBadWindow(t *testing.T) {
	f := setupBilling(t)
	_, err := f.bills.Generate(ownerContext(f.node), domain.GenerateBillsRequest{Month: 13, Year: 2025})
	require.ErrorIs(t, err, domain.ErrInvalidMonth)
}

func TestGenerateIsOwnerOnly(t *testing.T) {
	f := setupBilling(t)

	_, err := f.bills.Generate(context.Background(), domain.GenerateBillsRequest{Month: 3, Year: 2025})
	require.ErrorIs(t, err, actorcontext.ErrNoActor)

	agentCtx := actorcontext.WithActor(context.Background(), actorcontext.Actor{
		ID:   f.agent,
		Role: actorcontext.RoleDeliveryMan,
	})
	_, err = f.bills.Generate(agentCtx, domain.GenerateBillsRequest{Month: 3, Year: 2025})
	require.ErrorIs(t, err, actorcontext.ErrForbidden)
}

func TestListBillsFiltersByCustomer(t *testing.T) {
	f := setupBilling(t)
	one := f.seedCustomer(t, "Ramesh", true)
	two := f.seedCustomer(t, "Suresh", true)
	f.seedDelivery(t, one, "2025-03-01", 1, 60)
	f.seedDelivery(t, two, "2025-03-01", 2, 60)

	_, err := f.bills.Generate(ownerContext(f.node), domain.GenerateBillsRequest{Month: 3, Year: 2025})
	require.NoError(t, err)

	all, err := f.bills.List(context.Background(), domain.ListBillsRequest{Month: 3, Year: 2025})
	require.NoError(t, err)
	require.Len(t, all, 2)

	only, err := f.bills.List(context.Background(), domain.ListBillsRequest{
		Month:      3,
		Year:       2025,
		CustomerID: two.ID.String(),
	})
	require.NoError(t, err)
	require.Len(t, only, 1)
	require.Equal(t, two.ID, only[0].CustomerID)

	_, err = f.bills.List(context.Background(), domain.ListBillsRequest{
		Month:      3,
		Year:       2025,
		CustomerID: "not-a-number",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCustomerID)
}
