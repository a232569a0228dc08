package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freightline/freightline-backend/pkg/enums"
)

// UserAccount is the single actor identity every authorization lookup keys
// on. Jobs reference the assigned operator and companies reference their
// admin by this ID only.
type UserAccount struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string             `gorm:"column:name;not null"`
	PlatformRole enums.PlatformRole `gorm:"column:platform_role;type:text;not null;default:'member'"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}
