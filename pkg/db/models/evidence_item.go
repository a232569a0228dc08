package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freightline/freightline-backend/pkg/enums"
)

// EvidenceItem is a phase-tagged proof artifact attached to a job. Items are
// immutable after creation; removal is a soft delete (DeletedAt + DeletedBy)
// so the row survives for audit while disappearing from queries and ePODs.
type EvidenceItem struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	JobID        uuid.UUID           `gorm:"column:job_id;type:uuid;not null;index"`
	Kind         enums.EvidenceKind  `gorm:"column:kind;type:text;not null"`
	Phase        enums.EvidencePhase `gorm:"column:phase;type:text;not null"`
	ObjectKey    string              `gorm:"column:object_key;not null"`
	FileName     string              `gorm:"column:file_name;not null"`
	SizeBytes    int64               `gorm:"column:size_bytes;not null"`
	MediaType    string              `gorm:"column:media_type;not null"`
	UploaderID   *uuid.UUID          `gorm:"column:uploader_id;type:uuid"`
	ReceiverName *string             `gorm:"column:receiver_name"`
	// ReceiverSignatureKey points at a separately uploaded signature
	// artifact accompanying this item.
	ReceiverSignatureKey *string    `gorm:"column:receiver_signature_key"`
	Note                 *string    `gorm:"column:note"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime"`
	DeletedAt            *time.Time `gorm:"column:deleted_at"`
	DeletedBy            *uuid.UUID `gorm:"column:deleted_by;type:uuid"`
}
