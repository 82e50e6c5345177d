package shipments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	"github.com/mypackmx/logistics-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shipments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&shipment).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) FindByTracking(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.WithContext(ctx).Where("tracking_number = ?", trackingNumber).First(&shipment).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Shipment, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit)
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var shipments []models.Shipment
	if err := q.Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

func (r *repository) ListByAssignmentStatus(ctx context.Context, statuses []enums.AssignmentStatus, limit int, cursor *pagination.Cursor) ([]models.Shipment, error) {
	q := r.db.WithContext(ctx).
		Where("assignment_status IN ?", statuses).
		// Only paid shipments are operationally actionable.
		Where("payment_status = ?", enums.PaymentStatusPaid).
		Order("created_at DESC").Order("id DESC").
		Limit(limit)
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var shipments []models.Shipment
	if err := q.Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

func (r *repository) FindUnpaidBefore(ctx context.Context, cutoff time.Time) ([]models.Shipment, error) {
	var shipments []models.Shipment
	err := r.db.WithContext(ctx).
		Where("payment_status = ?", enums.PaymentStatusPending).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&shipments).Error
	if err != nil {
		return nil, err
	}
	return shipments, nil
}

func (r *repository) UpdateVersioned(ctx context.Context, id uuid.UUID, version int, updates map[string]any) (bool, error) {
	patch := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		patch[k] = v
	}
	patch["version"] = version + 1

	res := r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("id = ? AND version = ?", id, version).
		Updates(patch)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) InsertStatusUpdate(ctx context.Context, record *models.StatusUpdate) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) ListStatusUpdates(ctx context.Context, shipmentID uuid.UUID) ([]models.StatusUpdate, error) {
	var updates []models.StatusUpdate
	err := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("occurred_at ASC").Order("created_at ASC").
		Find(&updates).Error
	if err != nil {
		return nil, err
	}
	return updates, nil
}

func (r *repository) FindRoute(ctx context.Context, id uuid.UUID) (*models.DeliveryRoute, error) {
	var route models.DeliveryRoute
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&route).Error; err != nil {
		return nil, err
	}
	return &route, nil
}
