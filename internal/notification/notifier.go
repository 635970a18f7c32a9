package notification

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkbook/milkbook/internal/clock"
	obsmetrics "github.com/milkbook/milkbook/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event kinds queued for downstream push delivery.
const (
	KindDeliveryRecorded = "delivery_recorded"
	KindBillGenerated    = "bill_generated"
)

// Notification is one queued customer notification. This service only
// stores the row; transport to the customer's device is an external
// collaborator that drains unsent rows.
type Notification struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID      `gorm:"not null;index" json:"user_id"`
	Kind      string            `gorm:"not null" json:"kind"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"payload"`
	Sent      bool              `gorm:"not null;default:false" json:"sent"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// Notifier queues a notification for a user. Implementations are
// fire-and-forget: failures must never propagate to the caller's
// transaction.
type Notifier interface {
	Notify(userID snowflake.ID, kind string, payload map[string]any)
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Outbox struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *obsmetrics.Metrics
}

func NewOutbox(p Params) Notifier {
	return &Outbox{
		db:      p.DB,
		log:     p.Log.Named("notification.outbox"),
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

// Notify inserts the notification row on a background context so a
// slow or failing insert never blocks or fails the triggering write.
func (o *Outbox) Notify(userID snowflake.ID, kind string, payload map[string]any) {
	if userID == 0 {
		return
	}
	row := Notification{
		ID:        o.genID.Generate(),
		UserID:    userID,
		Kind:      kind,
		Payload:   datatypes.JSONMap(payload),
		CreatedAt: o.clock.Now(),
	}
	go func() {
		if err := o.db.WithContext(context.Background()).Create(&row).Error; err != nil {
			o.log.Warn("queue notification",
				zap.String("kind", kind),
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			return
		}
		o.metrics.RecordNotificationQueued()
	}()
}

var Module = fx.Module("notification",
	fx.Provide(NewOutbox),
)
