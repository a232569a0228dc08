package evidence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightline/freightline-backend/pkg/db/models"
	"github.com/freightline/freightline-backend/pkg/enums"
	"github.com/freightline/freightline-backend/pkg/pagination"
)

// Filters narrows an evidence listing.
type Filters struct {
	Phase *enums.EvidencePhase
	Kind  *enums.EvidenceKind
}

// Repository defines persistence operations for evidence items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	CreateEvidenceItem(ctx context.Context, item *models.EvidenceItem) error
	FindEvidenceItem(ctx context.Context, id uuid.UUID) (*models.EvidenceItem, error)
	ListActiveEvidence(ctx context.Context, jobID uuid.UUID, filters Filters, page pagination.Params) ([]models.EvidenceItem, *pagination.Cursor, error)
	CountActiveEvidence(ctx context.Context, jobID uuid.UUID) (int64, error)
	MarkEvidenceDeleted(ctx context.Context, id uuid.UUID, actorID uuid.UUID, at time.Time) error
	SetJobEvidenceFlag(ctx context.Context, jobID uuid.UUID, column string) error
}
