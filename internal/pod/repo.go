package pod

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightline/freightline-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pod repository bound to the provided DB.
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

func (r *repository) FindCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *repository) ListStatusEvents(ctx context.Context, jobID uuid.UUID) ([]models.JobStatusEvent, error) {
	var events []models.JobStatusEvent
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("occurred_at ASC, created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListActiveEvidence(ctx context.Context, jobID uuid.UUID) ([]models.EvidenceItem, error) {
	var items []models.EvidenceItem
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND deleted_at IS NULL", jobID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) CountActiveEvidence(ctx context.Context, jobID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.EvidenceItem{}).
		Where("job_id = ? AND deleted_at IS NULL", jobID).
		Count(&count).Error
	return count, err
}

func (r *repository) MaxDocumentVersion(ctx context.Context, jobID uuid.UUID) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&models.PodDocument{}).
		Select("MAX(version)").
		Where("job_id = ?", jobID).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *repository) DemoteLatestDocument(ctx context.Context, jobID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PodDocument{}).
		Where("job_id = ? AND is_latest", jobID).
		Update("is_latest", false).Error
}

func (r *repository) CreateDocument(ctx context.Context, doc *models.PodDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *repository) FindLatestDocument(ctx context.Context, jobID uuid.UUID) (*models.PodDocument, error) {
	var doc models.PodDocument
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND is_latest", jobID).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
