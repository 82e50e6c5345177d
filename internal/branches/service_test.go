package branches

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
	"github.com/mypackmx/logistics-backend/pkg/logger"
)

type stubBranchRepo struct {
	branches  map[uuid.UUID]*models.Branch
	createErr error
	updates   map[uuid.UUID]map[string]any
}

func newStubBranchRepo() *stubBranchRepo {
	return &stubBranchRepo{
		branches: map[uuid.UUID]*models.Branch{},
		updates:  map[uuid.UUID]map[string]any{},
	}
}

func (s *stubBranchRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubBranchRepo) List(_ context.Context, onlyActive bool) ([]models.Branch, error) {
	var out []models.Branch
	for _, b := range s.branches {
		if onlyActive && !b.IsActive {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (s *stubBranchRepo) Find(_ context.Context, id uuid.UUID) (*models.Branch, error) {
	if b, ok := s.branches[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubBranchRepo) Create(_ context.Context, branch *models.Branch) (*models.Branch, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	branch.ID = uuid.New()
	s.branches[branch.ID] = branch
	return branch, nil
}

func (s *stubBranchRepo) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates[id] = updates
	branch, ok := s.branches[id]
	if !ok {
		return nil
	}
	if v, ok := updates["is_active"].(bool); ok {
		branch.IsActive = v
	}
	if v, ok := updates["city"].(string); ok {
		branch.City = v
	}
	return nil
}

func newTestService(t *testing.T) (Service, *stubBranchRepo) {
	t.Helper()
	repo := newStubBranchRepo()
	logg := logger.New(logger.Options{ServiceName: "branches-test"})
	svc, err := NewService(repo, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	var coded *pkgerrors.Error
	if !errors.As(err, &coded) {
		t.Fatalf("expected coded error, got %v", err)
	}
	if coded.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, coded.Code(), err)
	}
}

func validInput() BranchInput {
	phone := "+52 55 1234 5678"
	return BranchInput{
		Name:       "CDMX Centro",
		Street:     "Av. Juarez 100",
		City:       "Ciudad de Mexico",
		State:      "CDMX",
		PostalCode: "06000",
		Phone:      &phone,
	}
}

func TestCreateBranch(t *testing.T) {
	svc, repo := newTestService(t)

	branch, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if branch.ID == uuid.Nil {
		t.Fatal("expected id assigned")
	}
	if !branch.IsActive {
		t.Fatal("expected new branch to be active")
	}
	if branch.Country != "MX" {
		t.Fatalf("expected country to default to MX, got %q", branch.Country)
	}
	if len(repo.branches) != 1 {
		t.Fatalf("expected one stored branch, got %d", len(repo.branches))
	}
}

func TestCreateBranchRejectsIncompleteAddress(t *testing.T) {
	svc, _ := newTestService(t)
	input := validInput()
	input.City = "  "
	_, err := svc.Create(context.Background(), input)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateBranch(t *testing.T) {
	svc, repo := newTestService(t)
	branch, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	input := validInput()
	input.City = "Guadalajara"
	updated, err := svc.Update(context.Background(), branch.ID, input)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.City != "Guadalajara" {
		t.Fatalf("expected updated city, got %q", updated.City)
	}
	if _, ok := repo.updates[branch.ID]; !ok {
		t.Fatal("expected an update to be issued")
	}
}

func TestUpdateUnknownBranch(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Update(context.Background(), uuid.New(), validInput())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestSetActiveHidesBranchFromActiveList(t *testing.T) {
	svc, _ := newTestService(t)
	branch, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.SetActive(context.Background(), branch.ID, false); err != nil {
		t.Fatalf("set active: %v", err)
	}
	active, err := svc.List(context.Background(), true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active branches, got %d", len(active))
	}
	all, err := svc.List(context.Background(), false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected deactivated branch still listed, got %d", len(all))
	}
}
