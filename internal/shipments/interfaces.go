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

// Repository is the persistence surface for shipments and their history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Find(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	FindByTracking(ctx context.Context, trackingNumber string) (*models.Shipment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Shipment, error)
	ListByAssignmentStatus(ctx context.Context, statuses []enums.AssignmentStatus, limit int, cursor *pagination.Cursor) ([]models.Shipment, error)
	FindUnpaidBefore(ctx context.Context, cutoff time.Time) ([]models.Shipment, error)

	// UpdateVersioned applies the patch only if the row still carries the
	// given version, bumping it by one. Returns false when another writer
	// got there first.
	UpdateVersioned(ctx context.Context, id uuid.UUID, version int, updates map[string]any) (bool, error)

	InsertStatusUpdate(ctx context.Context, record *models.StatusUpdate) error
	ListStatusUpdates(ctx context.Context, shipmentID uuid.UUID) ([]models.StatusUpdate, error)

	FindRoute(ctx context.Context, id uuid.UUID) (*models.DeliveryRoute, error)
}
