package models

import (
	"time"

	"github.com/google/uuid"
)

// Company is the posting account a job was created under. Owned by the
// marketplace; referenced here for the guard's admin check and the ePOD
// header.
type Company struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	AdminUserID uuid.UUID `gorm:"column:admin_user_id;type:uuid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
