package models

import (
	"time"

	"github.com/google/uuid"
)

// PodDocument is one generated proof-of-delivery artifact. Regeneration
// inserts a new version and demotes the previous latest in the same
// transaction; the `uq_pod_documents_latest` partial unique index keeps at
// most one IsLatest row per job.
type PodDocument struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	JobID       uuid.UUID `gorm:"column:job_id;type:uuid;not null;index"`
	Version     int       `gorm:"column:version;not null"`
	ObjectKey   string    `gorm:"column:object_key;not null"`
	PageCount   int       `gorm:"column:page_count;not null"`
	GeneratedAt time.Time `gorm:"column:generated_at;not null"`
	IsLatest    bool      `gorm:"column:is_latest;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
