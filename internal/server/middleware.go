package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/milkbook/milkbook/internal/actorcontext"
)

// ActorMiddleware binds the caller identity from the X-Actor-Id and
// X-Actor-Role headers into the request context. Requests without a
// usable identity pass through without an actor; capability checks in
// the services reject them where one is required.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Actor-Id"))
		role := strings.TrimSpace(c.GetHeader("X-Actor-Role"))
		if id == "" || !validRole(role) {
			c.Next()
			return
		}

		actorID, err := snowflake.ParseString(id)
		if err != nil {
			c.Next()
			return
		}

		ctx := actorcontext.WithActor(c.Request.Context(), actorcontext.Actor{
			ID:   actorID,
			Role: role,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func validRole(role string) bool {
	switch role {
	case actorcontext.RoleOwner, actorcontext.RoleDeliveryMan, actorcontext.RoleCustomer:
		return true
	default:
		return false
	}
}
