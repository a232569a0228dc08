package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freightline/freightline-backend/pkg/enums"
	"github.com/freightline/freightline-backend/pkg/types"
)

// JobStatusEvent is one accepted lifecycle transition. Rows are append-only:
// nothing in the codebase updates or deletes them, and corrections happen by
// recording a further transition.
type JobStatusEvent struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	JobID      uuid.UUID       `gorm:"column:job_id;type:uuid;not null;index"`
	Status     enums.JobStatus `gorm:"column:status;type:text;not null"`
	OccurredAt time.Time       `gorm:"column:occurred_at;not null"`
	ActorID    uuid.UUID       `gorm:"column:actor_id;type:uuid;not null"`
	Note       *string         `gorm:"column:note"`
	Coordinate *types.GeoPoint `gorm:"column:coordinate;type:text"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
