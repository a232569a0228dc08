package lifecycle

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightline/freightline-backend/pkg/db/models"
	"github.com/freightline/freightline-backend/pkg/enums"
)

// Repository defines persistence operations for jobs and their status events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	// UpdateJobStatusCAS conditions the write on the status the caller
	// observed and reports how many rows it touched. Zero on a live job
	// means another writer moved it first.
	UpdateJobStatusCAS(ctx context.Context, jobID uuid.UUID, from, to enums.JobStatus) (int64, error)
	CreateStatusEvent(ctx context.Context, event *models.JobStatusEvent) error
	ListStatusEvents(ctx context.Context, jobID uuid.UUID) ([]models.JobStatusEvent, error)
}
