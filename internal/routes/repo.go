package routes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a routes repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context, onlyActive bool) ([]models.DeliveryRoute, error) {
	var routes []models.DeliveryRoute
	q := r.db.WithContext(ctx).Order("name ASC")
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&routes).Error; err != nil {
		return nil, err
	}
	return routes, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.DeliveryRoute, error) {
	var route models.DeliveryRoute
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&route).Error; err != nil {
		return nil, err
	}
	return &route, nil
}

func (r *repository) Create(ctx context.Context, route *models.DeliveryRoute) (*models.DeliveryRoute, error) {
	if err := r.db.WithContext(ctx).Create(route).Error; err != nil {
		return nil, err
	}
	return route, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveryRoute{}).
		Where("id = ?", id).
		Updates(updates).Error
}
