package actorcontext

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	// ErrNoActor is returned when a capability-guarded call arrives
	// without a caller identity.
	ErrNoActor = errors.New("no_actor")
	// ErrForbidden is returned when the caller's role does not grant
	// the capability.
	ErrForbidden = errors.New("forbidden")
)

// Role names match the user_type column on the identity table.
const (
	RoleOwner       = "owner"
	RoleDeliveryMan = "delivery_man"
	RoleCustomer    = "customer"
)

// Actor is the capability-scoped caller identity passed explicitly to
// every service call. Role switching in the clients is presentation
// only; the services trust only this context.
type Actor struct {
	ID   snowflake.ID
	Role string
}

type contextKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

func FromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(Actor)
	return actor, ok
}

// CanRecordDeliveries reports whether the actor may write to the
// delivery ledger.
func (a Actor) CanRecordDeliveries() bool {
	return a.Role == RoleOwner || a.Role == RoleDeliveryMan
}

// CanGenerateBills reports whether the actor may run billing
// reconciliation.
func (a Actor) CanGenerateBills() bool {
	return a.Role == RoleOwner
}
