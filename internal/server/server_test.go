package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/milkbook/milkbook/internal/actorcontext"
	billingdomain "github.com/milkbook/milkbook/internal/billing/domain"
	billingservice "github.com/milkbook/milkbook/internal/billing/service"
	"github.com/milkbook/milkbook/internal/clock"
	"github.com/milkbook/milkbook/internal/config"
	customerdomain "github.com/milkbook/milkbook/internal/customer/domain"
	customerrepository "github.com/milkbook/milkbook/internal/customer/repository"
	customerservice "github.com/milkbook/milkbook/internal/customer/service"
	dashboardservice "github.com/milkbook/milkbook/internal/dashboard/service"
	deliverydomain "github.com/milkbook/milkbook/internal/delivery/domain"
	deliveryservice "github.com/milkbook/milkbook/internal/delivery/service"
	identitydomain "github.com/milkbook/milkbook/internal/identity/domain"
	"github.com/milkbook/milkbook/internal/notification"
	"github.com/milkbook/milkbook/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type noopNotifier struct{}

func (noopNotifier) Notify(userID snowflake.ID, kind string, payload map[string]any) {}

type fixture struct {
	srv  *Server
	db   *gorm.DB
	node *snowflake.Node
	clk  *clock.FakeClock
}

func setupServer(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = conn.AutoMigrate(
		&identitydomain.User{},
		&customerdomain.Customer{},
		&deliverydomain.DeliveryRecord{},
		&billingdomain.MonthlyBill{},
		&notification.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(5)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2025, time.March, 15, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	customers := customerservice.New(customerservice.Params{
		DB:    conn,
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  customerrepository.Provide(),
	})
	deliveries := deliveryservice.New(deliveryservice.Params{
		DB:          conn,
		Log:         log,
		GenID:       node,
		Clock:       clk,
		CustomerSvc: customers,
		Notifier:    noopNotifier{},
	})
	bills := billingservice.New(billingservice.Params{
		DB:       conn,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Notifier: noopNotifier{},
	})
	dashboards := dashboardservice.New(dashboardservice.Params{
		DB:    conn,
		Log:   log,
		Clock: clk,
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:          engine,
		Cfg:          config.Config{},
		DB:           conn,
		Log:          log,
		GenID:        node,
		CustomerSvc:  customers,
		DeliverySvc:  deliveries,
		BillingSvc:   bills,
		DashboardSvc: dashboards,
	})
	srv.RegisterAPIRoutes()

	return &fixture{srv: srv, db: conn, node: node, clk: clk}
}

func (f *fixture) request(t *testing.T, method, path string, body any, actorID snowflake.ID, role string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Actor-Id", actorID.String())
		req.Header.Set("X-Actor-Role", role)
	}
	rec := httptest.NewRecorder()
	f.srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return body
}

func (f *fixture) seedCustomer(t *testing.T, agentID snowflake.ID) snowflake.ID {
	t.Helper()
	user := identitydomain.User{
		ID:       f.node.Generate(),
		Name:     "Ramesh",
		Phone:    "98" + f.node.Generate().String(),
		UserType: identitydomain.UserTypeCustomer,
		IsActive: true,
	}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	customer := customerdomain.Customer{
		ID:            f.node.Generate(),
		UserID:        user.ID,
		Address:       "12 Main Road",
		Area:          "North",
		UsualQuantity: decimal.NewFromInt(1),
		RatePerLiter:  decimal.NewFromInt(60),
		DeliveryManID: agentID,
	}
	if err := f.db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer.ID
}

func TestRecordDeliveryEndpoint(t *testing.T) {
	f := setupServer(t)
	agentID := f.node.Generate()
	customerID := f.seedCustomer(t, agentID)

	rec := f.request(t, http.MethodPost, "/api/delivery/record", map[string]any{
		"customer_id":     customerID.String(),
		"delivery_man_id": agentID.String(),
		"quantity":        1.5,
	}, agentID, actorcontext.RoleDeliveryMan)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "Delivery recorded successfully" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	delivery, ok := body["delivery"].(map[string]any)
	if !ok {
		t.Fatalf("missing delivery object: %s", rec.Body.String())
	}
	if delivery["total_amount"] != 90.0 {
		t.Fatalf("expected amount 90, got %v", delivery["total_amount"])
	}
	if delivery["delivery_date"] != "2025-03-15" {
		t.Fatalf("unexpected date: %v", delivery["delivery_date"])
	}
}

func TestRecordDeliveryRequiresActor(t *testing.T) {
	f := setupServer(t)
	agentID := f.node.Generate()
	customerID := f.seedCustomer(t, agentID)

	payload := map[string]any{
		"customer_id":     customerID.String(),
		"delivery_man_id": agentID.String(),
		"quantity":        1.5,
	}

	rec := f.request(t, http.MethodPost, "/api/delivery/record", payload, 0, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.request(t, http.MethodPost, "/api/delivery/record", payload, customerID, actorcontext.RoleCustomer)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRecordDeliveryValidationAndNotFound(t *testing.T) {
	f := setupServer(t)
	agentID := f.node.Generate()
	customerID := f.seedCustomer(t, agentID)

	rec := f.request(t, http.MethodPost, "/api/delivery/record", map[string]any{
		"customer_id":     customerID.String(),
		"delivery_man_id": agentID.String(),
		"quantity":        0,
	}, agentID, actorcontext.RoleDeliveryMan)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]any)
	if !ok || errObj["type"] != "validation_error" {
		t.Fatalf("expected validation_error, got %s", rec.Body.String())
	}

	rec = f.request(t, http.MethodPost, "/api/delivery/record", map[string]any{
		"customer_id":     f.node.Generate().String(),
		"delivery_man_id": agentID.String(),
		"quantity":        1.0,
	}, agentID, actorcontext.RoleDeliveryMan)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGenerateBillsEndpointOwnerOnly(t *testing.T) {
	f := setupServer(t)
	agentID := f.node.Generate()
	customerID := f.seedCustomer(t, agentID)

	rec := f.request(t, http.MethodPost, "/api/delivery/record", map[string]any{
		"customer_id":     customerID.String(),
		"delivery_man_id": agentID.String(),
		"quantity":        2.0,
	}, agentID, actorcontext.RoleDeliveryMan)
	if rec.Code != http.StatusOK {
		t.Fatalf("record: expected 200, got %d", rec.Code)
	}

	rec = f.request(t, http.MethodPost, "/api/bills/generate", map[string]any{
		"month": 3,
		"year":  2025,
	}, agentID, actorcontext.RoleDeliveryMan)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("agent generate: expected 403, got %d", rec.Code)
	}

	ownerID := f.node.Generate()
	rec = f.request(t, http.MethodPost, "/api/bills/generate", map[string]any{
		"month": 3,
		"year":  2025,
	}, ownerID, actorcontext.RoleOwner)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner generate: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	summary, ok := body["summary"].(map[string]any)
	if !ok {
		t.Fatalf("missing summary: %s", rec.Body.String())
	}
	if summary["total_customers"] != 1.0 {
		t.Fatalf("expected 1 billed customer, got %v", summary["total_customers"])
	}
	if summary["total_amount"] != 120.0 {
		t.Fatalf("expected total 120, got %v", summary["total_amount"])
	}
}

func TestOwnerDashboardEndpoint(t *testing.T) {
	f := setupServer(t)
	agentID := f.node.Generate()
	f.seedCustomer(t, agentID)

	rec := f.request(t, http.MethodGet, "/api/owner/dashboard", nil, f.node.Generate(), actorcontext.RoleOwner)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	for _, key := range []string{"todayStats", "deliveryMenStats", "recentActivity"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("missing %q in response: %s", key, rec.Body.String())
		}
	}
}

func TestCustomerEndpointsRoundTrip(t *testing.T) {
	f := setupServer(t)
	agentID := f.node.Generate()

	rec := f.request(t, http.MethodPost, "/api/delivery/customers", map[string]any{
		"name":            "Ramesh",
		"phone":           "9812345678",
		"address":         "12 Main Road",
		"area":            "North",
		"delivery_man_id": agentID.String(),
	}, f.node.Generate(), actorcontext.RoleOwner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)
	customer, ok := created["customer"].(map[string]any)
	if !ok {
		t.Fatalf("missing customer: %s", rec.Body.String())
	}
	customerID, _ := customer["id"].(string)
	if customerID == "" {
		t.Fatalf("missing customer id: %s", rec.Body.String())
	}

	rec = f.request(t, http.MethodGet, "/api/delivery/customers/"+customerID, nil, agentID, actorcontext.RoleDeliveryMan)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.request(t, http.MethodPut, "/api/delivery/customers/"+customerID, map[string]any{
		"rate_per_liter": 70,
	}, f.node.Generate(), actorcontext.RoleOwner)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody(t, rec)
	profile := updated["customer"].(map[string]any)
	if profile["rate_per_liter"] != 70.0 {
		t.Fatalf("expected rate 70, got %v", profile["rate_per_liter"])
	}

	rec = f.request(t, http.MethodDelete, "/api/delivery/customers/"+customerID, nil, f.node.Generate(), actorcontext.RoleOwner)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.request(t, http.MethodGet, "/api/delivery/customers?delivery_man_id="+agentID.String(), nil, agentID, actorcontext.RoleDeliveryMan)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	listed := decodeBody(t, rec)
	customers, ok := listed["customers"].([]any)
	if !ok {
		t.Fatalf("missing customers: %s", rec.Body.String())
	}
	if len(customers) != 0 {
		t.Fatalf("expected deactivated customer hidden, got %d", len(customers))
	}
}
