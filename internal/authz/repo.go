package authz

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freightline/freightline-backend/pkg/db/models"
)

// Repository defines the identity lookups the guard needs.
type Repository interface {
	FindUserAccount(ctx context.Context, id uuid.UUID) (*models.UserAccount, error)
	FindCompanyAdminID(ctx context.Context, companyID uuid.UUID) (uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an authz repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindUserAccount(ctx context.Context, id uuid.UUID) (*models.UserAccount, error) {
	var account models.UserAccount
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindCompanyAdminID(ctx context.Context, companyID uuid.UUID) (uuid.UUID, error) {
	var company models.Company
	err := r.db.WithContext(ctx).
		Select("admin_user_id").
		Where("id = ?", companyID).
		First(&company).Error
	if err != nil {
		return uuid.Nil, err
	}
	return company.AdminUserID, nil
}
