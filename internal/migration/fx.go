package migration

import (
	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/milkbook/milkbook/internal/billing/domain"
	"github.com/milkbook/milkbook/internal/config"
	customerdomain "github.com/milkbook/milkbook/internal/customer/domain"
	deliverydomain "github.com/milkbook/milkbook/internal/delivery/domain"
	identitydomain "github.com/milkbook/milkbook/internal/identity/domain"
	"github.com/milkbook/milkbook/internal/notification"
	"github.com/milkbook/milkbook/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql/sqlite are dev targets; golang-migrate only
			// carries the postgres schema here.
			err := conn.AutoMigrate(
				&identitydomain.User{},
				&customerdomain.Customer{},
				&deliverydomain.DeliveryRecord{},
				&billingdomain.MonthlyBill{},
				&notification.Notification{},
			)
			if err != nil {
				return err
			}
		}

		return seed.EnsureOwner(conn, genID, cfg.DefaultOwnerName, cfg.DefaultOwnerPhone)
	}),
)
