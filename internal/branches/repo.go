package branches

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a branches repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context, onlyActive bool) ([]models.Branch, error) {
	var branches []models.Branch
	q := r.db.WithContext(ctx).Order("name ASC")
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *repository) Create(ctx context.Context, branch *models.Branch) (*models.Branch, error) {
	if err := r.db.WithContext(ctx).Create(branch).Error; err != nil {
		return nil, err
	}
	return branch, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Branch{}).
		Where("id = ?", id).
		Updates(updates).Error
}
