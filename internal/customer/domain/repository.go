package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/milkbook/milkbook/internal/identity/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, user *identitydomain.User, customer *Customer) error
	FindProfileByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Profile, error)
	FindActiveRate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ActiveRate, error)
	ListByAgent(ctx context.Context, db *gorm.DB, agentID snowflake.ID, date time.Time) ([]AgentCustomer, error)
	UpdatePartial(ctx context.Context, db *gorm.DB, id snowflake.ID, userFields, customerFields map[string]any) error
	Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	ListMonthDeliveries(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to time.Time) ([]MonthDelivery, error)
}
