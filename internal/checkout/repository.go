package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
)

// Repository is the persistence surface checkout needs: inserting the
// pending shipment and attaching the Stripe session afterwards.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateShipment(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error)
	UpdateShipment(ctx context.Context, id uuid.UUID, updates map[string]any) error
	TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateShipment(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error) {
	if err := r.db.WithContext(ctx).Create(shipment).Error; err != nil {
		return nil, err
	}
	return shipment, nil
}

func (r *repository) UpdateShipment(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("tracking_number = ?", trackingNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
