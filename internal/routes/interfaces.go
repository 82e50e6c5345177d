package routes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
)

// Repository is the persistence surface for delivery routes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	List(ctx context.Context, onlyActive bool) ([]models.DeliveryRoute, error)
	Find(ctx context.Context, id uuid.UUID) (*models.DeliveryRoute, error)
	Create(ctx context.Context, route *models.DeliveryRoute) (*models.DeliveryRoute, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}
