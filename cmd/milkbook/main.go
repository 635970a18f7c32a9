package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/milkbook/milkbook/internal/billing"
	"github.com/milkbook/milkbook/internal/clock"
	"github.com/milkbook/milkbook/internal/config"
	"github.com/milkbook/milkbook/internal/customer"
	"github.com/milkbook/milkbook/internal/dashboard"
	"github.com/milkbook/milkbook/internal/delivery"
	"github.com/milkbook/milkbook/internal/logger"
	"github.com/milkbook/milkbook/internal/migration"
	"github.com/milkbook/milkbook/internal/notification"
	"github.com/milkbook/milkbook/internal/observability"
	"github.com/milkbook/milkbook/internal/server"
	"github.com/milkbook/milkbook/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		notification.Module,
		customer.Module,
		delivery.Module,
		billing.Module,
		dashboard.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAPIRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
