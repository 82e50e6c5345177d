package branches

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

// Service exposes the admin surface for branch offices.
type Service interface {
	List(ctx context.Context, onlyActive bool) ([]models.Branch, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	Create(ctx context.Context, input BranchInput) (*models.Branch, error)
	Update(ctx context.Context, id uuid.UUID, input BranchInput) (*models.Branch, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the branches service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("branches repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) List(ctx context.Context, onlyActive bool) ([]models.Branch, error) {
	branches, err := s.repo.List(ctx, onlyActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list branches")
	}
	return branches, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	return s.find(ctx, id)
}

func (s *service) Create(ctx context.Context, input BranchInput) (*models.Branch, error) {
	if err := validateBranchInput(input); err != nil {
		return nil, err
	}
	branch := &models.Branch{
		Name:       strings.TrimSpace(input.Name),
		Street:     strings.TrimSpace(input.Street),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    normalizeCountry(input.Country),
		Phone:      input.Phone,
		IsActive:   true,
	}
	created, err := s.repo.Create(ctx, branch)
	if err != nil {
		if dbpkg.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a branch with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create branch")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input BranchInput) (*models.Branch, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id required")
	}
	if err := validateBranchInput(input); err != nil {
		return nil, err
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	updates := map[string]any{
		"name":        strings.TrimSpace(input.Name),
		"street":      strings.TrimSpace(input.Street),
		"city":        strings.TrimSpace(input.City),
		"state":       strings.TrimSpace(input.State),
		"postal_code": strings.TrimSpace(input.PostalCode),
		"country":     normalizeCountry(input.Country),
		"phone":       input.Phone,
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		if dbpkg.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a branch with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update branch")
	}
	return s.find(ctx, id)
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "branch id required")
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	// Routes keep referencing a deactivated branch; deactivation only hides
	// it from new route setups.
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": active}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update branch")
	}
	return nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	branch, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}
	return branch, nil
}

func normalizeCountry(country string) string {
	c := strings.ToUpper(strings.TrimSpace(country))
	if c == "" {
		return "MX"
	}
	return c
}

func validateBranchInput(input BranchInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "branch name required")
	}
	if strings.TrimSpace(input.Street) == "" ||
		strings.TrimSpace(input.City) == "" ||
		strings.TrimSpace(input.State) == "" ||
		strings.TrimSpace(input.PostalCode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "branch address is incomplete")
	}
	return nil
}
