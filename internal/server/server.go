package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	billingdomain "github.com/milkbook/milkbook/internal/billing/domain"
	"github.com/milkbook/milkbook/internal/config"
	customerdomain "github.com/milkbook/milkbook/internal/customer/domain"
	dashboarddomain "github.com/milkbook/milkbook/internal/dashboard/domain"
	deliverydomain "github.com/milkbook/milkbook/internal/delivery/domain"
	"github.com/milkbook/milkbook/internal/observability"
	obslogger "github.com/milkbook/milkbook/internal/observability/logger"
	obsmetrics "github.com/milkbook/milkbook/internal/observability/metrics"
	obstracing "github.com/milkbook/milkbook/internal/observability/tracing"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewEngine(log *zap.Logger, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log, obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	customerSvc  customerdomain.Service
	deliverySvc  deliverydomain.Service
	billingSvc   billingdomain.Service
	dashboardSvc dashboarddomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	CustomerSvc  customerdomain.Service
	DeliverySvc  deliverydomain.Service
	BillingSvc   billingdomain.Service
	DashboardSvc dashboarddomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log,
		genID:        p.GenID,
		customerSvc:  p.CustomerSvc,
		deliverySvc:  p.DeliverySvc,
		billingSvc:   p.BillingSvc,
		dashboardSvc: p.DashboardSvc,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RegisterAPIRoutes wires the ledger, billing and dashboard resources
// under /api. Every route runs behind the actor middleware; the
// services decide per capability which roles may call them.
func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(ActorMiddleware())

	// -------- Delivery ledger --------
	api.POST("/delivery/record", s.RecordDelivery)
	api.GET("/delivery/record", s.ListDeliveries)
	api.GET("/delivery/summary", s.GetAgentSummary)

	// -------- Customers --------
	api.GET("/delivery/customers", s.ListCustomers)
	api.POST("/delivery/customers", s.CreateCustomer)
	api.GET("/delivery/customers/:id", s.GetCustomerByID)
	api.PUT("/delivery/customers/:id", s.UpdateCustomer)
	api.DELETE("/delivery/customers/:id", s.DeactivateCustomer)

	// -------- Monthly bills --------
	api.POST("/bills/generate", s.GenerateBills)
	api.GET("/bills/generate", s.ListBills)

	// -------- Owner dashboard --------
	api.GET("/owner/dashboard", s.GetOwnerDashboard)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
