package branches

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
)

// Repository is the persistence surface for branch offices.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	List(ctx context.Context, onlyActive bool) ([]models.Branch, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	Create(ctx context.Context, branch *models.Branch) (*models.Branch, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}
