package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/milkbook/milkbook/internal/identity/domain"
	"gorm.io/gorm"
)

// EnsureOwner creates an owner identity when none exists so a fresh
// install can reach the owner dashboard and bill generation.
func EnsureOwner(conn *gorm.DB, genID *snowflake.Node, name, phone string) error {
	if phone == "" {
		return nil
	}

	var count int64
	err := conn.Model(&identitydomain.User{}).
		Where("user_type = ? AND is_active = true", identitydomain.UserTypeOwner).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	owner := identitydomain.User{
		ID:        genID.Generate(),
		Name:      name,
		Phone:     phone,
		UserType:  identitydomain.UserTypeOwner,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return conn.Create(&owner).Error
}
