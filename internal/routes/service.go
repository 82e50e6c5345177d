package routes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/mypackmx/logistics-backend/pkg/db"
	"github.com/mypackmx/logistics-backend/pkg/db/models"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
	"github.com/mypackmx/logistics-backend/pkg/logger"
)

// Service exposes the admin surface for delivery routes.
type Service interface {
	List(ctx context.Context, onlyActive bool) ([]models.DeliveryRoute, error)
	Get(ctx context.Context, id uuid.UUID) (*models.DeliveryRoute, error)
	Create(ctx context.Context, input RouteInput) (*models.DeliveryRoute, error)
	Update(ctx context.Context, id uuid.UUID, input RouteInput) (*models.DeliveryRoute, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the routes service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("routes repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) List(ctx context.Context, onlyActive bool) ([]models.DeliveryRoute, error) {
	routes, err := s.repo.List(ctx, onlyActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list routes")
	}
	return routes, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.DeliveryRoute, error) {
	return s.find(ctx, id)
}

func (s *service) Create(ctx context.Context, input RouteInput) (*models.DeliveryRoute, error) {
	if err := validateRouteInput(input); err != nil {
		return nil, err
	}
	route := &models.DeliveryRoute{
		Name:                strings.TrimSpace(input.Name),
		Description:         input.Description,
		States:              input.States,
		EstimatedDays:       input.EstimatedDays,
		OriginBranchID:      input.OriginBranchID,
		DestinationBranchID: input.DestinationBranchID,
		IsActive:            true,
	}
	created, err := s.repo.Create(ctx, route)
	if err != nil {
		if dbpkg.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a route with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create route")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input RouteInput) (*models.DeliveryRoute, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "route id required")
	}
	if err := validateRouteInput(input); err != nil {
		return nil, err
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	// In-flight shipments keep the state list snapshotted at assignment, so
	// editing the route never moves them.
	updates := map[string]any{
		"name":                  strings.TrimSpace(input.Name),
		"description":           input.Description,
		"states":                input.States,
		"estimated_days":        input.EstimatedDays,
		"origin_branch_id":      input.OriginBranchID,
		"destination_branch_id": input.DestinationBranchID,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		if dbpkg.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a route with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update route")
	}
	return s.find(ctx, id)
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "route id required")
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": active}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update route")
	}
	return nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.DeliveryRoute, error) {
	route, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "route not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load route")
	}
	return route, nil
}

func validateRouteInput(input RouteInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "route name required")
	}
	if err := input.States.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid route states")
	}
	if input.EstimatedDays != nil && *input.EstimatedDays <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "estimated days must be positive")
	}
	return nil
}
