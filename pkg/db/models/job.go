package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freightline/freightline-backend/pkg/enums"
)

// Job is the delivery job tracked by the lifecycle engine. Rows are created
// by the marketplace when a bid is awarded; this engine only mutates
// CurrentStatus (through the status engine's CAS write) and the two
// evidence indicator flags.
type Job struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReferenceNumber     string           `gorm:"column:reference_number;not null;unique"`
	PostingCompanyID    uuid.UUID        `gorm:"column:posting_company_id;type:uuid;not null"`
	AssignedOperatorID  *uuid.UUID       `gorm:"column:assigned_operator_id;type:uuid"`
	CurrentStatus       enums.JobStatus  `gorm:"column:current_status;type:text;not null;default:'allocated'"`
	HasPickupEvidence   bool             `gorm:"column:has_pickup_evidence;not null;default:false"`
	HasDeliveryEvidence bool             `gorm:"column:has_delivery_evidence;not null;default:false"`
	PickupAddress       string           `gorm:"column:pickup_address"`
	DeliveryAddress     string           `gorm:"column:delivery_address"`
	StatusEvents        []JobStatusEvent `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
