package pod

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightline/freightline-backend/pkg/db/models"
)

// Repository defines persistence operations for proof-of-delivery
// documents plus the reads generation needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	ListStatusEvents(ctx context.Context, jobID uuid.UUID) ([]models.JobStatusEvent, error)
	ListActiveEvidence(ctx context.Context, jobID uuid.UUID) ([]models.EvidenceItem, error)
	CountActiveEvidence(ctx context.Context, jobID uuid.UUID) (int64, error)
	MaxDocumentVersion(ctx context.Context, jobID uuid.UUID) (int, error)
	DemoteLatestDocument(ctx context.Context, jobID uuid.UUID) error
	CreateDocument(ctx context.Context, doc *models.PodDocument) error
	FindLatestDocument(ctx context.Context, jobID uuid.UUID) (*models.PodDocument, error)
}
