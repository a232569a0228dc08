package evidence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightline/freightline-backend/pkg/db/models"
	"github.com/freightline/freightline-backend/pkg/pagination"
)

// evidence indicator columns on jobs
const (
	ColumnHasPickupEvidence   = "has_pickup_evidence"
	ColumnHasDeliveryEvidence = "has_delivery_evidence"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an evidence repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repository) CreateEvidenceItem(ctx context.Context, item *models.EvidenceItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindEvidenceItem(ctx context.Context, id uuid.UUID) (*models.EvidenceItem, error) {
	var item models.EvidenceItem
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListActiveEvidence(ctx context.Context, jobID uuid.UUID, filters Filters, page pagination.Params) ([]models.EvidenceItem, *pagination.Cursor, error) {
	fetch := pagination.FetchSize(page.Limit)
	size := pagination.Clamp(page.Limit)

	query := r.db.WithContext(ctx).
		Where("job_id = ? AND deleted_at IS NULL", jobID)
	if filters.Phase != nil {
		query = query.Where("phase = ?", *filters.Phase)
	}
	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if cursor, err := pagination.Decode(page.Cursor); err != nil {
		return nil, nil, err
	} else if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var items []models.EvidenceItem
	if err := query.Order("created_at ASC, id ASC").Limit(fetch).Find(&items).Error; err != nil {
		return nil, nil, err
	}

	if len(items) > size {
		items = items[:size]
		last := items[size-1]
		return items, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return items, nil, nil
}

func (r *repository) CountActiveEvidence(ctx context.Context, jobID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.EvidenceItem{}).
		Where("job_id = ? AND deleted_at IS NULL", jobID).
		Count(&count).Error
	return count, err
}

func (r *repository) MarkEvidenceDeleted(ctx context.Context, id uuid.UUID, actorID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.EvidenceItem{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{
			"deleted_at": at,
			"deleted_by": actorID,
		}).Error
}

func (r *repository) SetJobEvidenceFlag(ctx context.Context, jobID uuid.UUID, column string) error {
	if column != ColumnHasPickupEvidence && column != ColumnHasDeliveryEvidence {
		return fmt.Errorf("unknown evidence flag column %q", column)
	}
	return r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", jobID).
		Update(column, true).Error
}
