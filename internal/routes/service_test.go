package routes

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
	"github.com/mypackmx/logistics-backend/pkg/logger"
	"github.com/mypackmx/logistics-backend/pkg/types"
)

type stubRouteRepo struct {
	routes map[uuid.UUID]*models.DeliveryRoute
}

func newStubRouteRepo() *stubRouteRepo {
	return &stubRouteRepo{routes: map[uuid.UUID]*models.DeliveryRoute{}}
}

func (s *stubRouteRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRouteRepo) List(ctx context.Context, onlyActive bool) ([]models.DeliveryRoute, error) {
	var out []models.DeliveryRoute
	for _, route := range s.routes {
		if onlyActive && !route.IsActive {
			continue
		}
		out = append(out, *route)
	}
	return out, nil
}

func (s *stubRouteRepo) Find(ctx context.Context, id uuid.UUID) (*models.DeliveryRoute, error) {
	route, ok := s.routes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *route
	return &copied, nil
}

func (s *stubRouteRepo) Create(ctx context.Context, route *models.DeliveryRoute) (*models.DeliveryRoute, error) {
	route.ID = uuid.New()
	s.routes[route.ID] = route
	return route, nil
}

func (s *stubRouteRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	route, ok := s.routes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if name, ok := updates["name"].(string); ok {
		route.Name = name
	}
	if states, ok := updates["states"].(types.RouteStates); ok {
		route.States = states
	}
	if active, ok := updates["is_active"].(bool); ok {
		route.IsActive = active
	}
	return nil
}

func newTestService(t *testing.T) (Service, *stubRouteRepo) {
	t.Helper()
	repo := newStubRouteRepo()
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "routes-test"}))
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

func TestCreateRoute(t *testing.T) {
	svc, repo := newTestService(t)

	route, err := svc.Create(context.Background(), RouteInput{
		Name:   "Texas - CDMX",
		States: types.RouteStates{"Recibido en Bodega", "En Transito", "Entregado"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !route.IsActive {
		t.Fatal("new routes must start active")
	}
	if _, ok := repo.routes[route.ID]; !ok {
		t.Fatal("route not persisted")
	}
}

func TestCreateRouteRejectsShortStateList(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), RouteInput{
		Name:   "Texas - CDMX",
		States: types.RouteStates{"Entregado"},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateRouteRejectsBlankState(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), RouteInput{
		Name:   "Texas - CDMX",
		States: types.RouteStates{"Recibido", "  "},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateRouteKeepsInvariant(t *testing.T) {
	svc, _ := newTestService(t)
	route, err := svc.Create(context.Background(), RouteInput{
		Name:   "Texas - CDMX",
		States: types.RouteStates{"Recibido", "Entregado"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Update(context.Background(), route.ID, RouteInput{
		Name:   "Texas - CDMX",
		States: types.RouteStates{"Entregado"},
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	updated, err := svc.Update(context.Background(), route.ID, RouteInput{
		Name:   "Texas - Monterrey",
		States: types.RouteStates{"Recibido", "En Transito", "Entregado"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Texas - Monterrey" || len(updated.States) != 3 {
		t.Fatalf("update not applied: %+v", updated)
	}
}

func TestSetActive(t *testing.T) {
	svc, repo := newTestService(t)
	route, err := svc.Create(context.Background(), RouteInput{
		Name:   "Texas - CDMX",
		States: types.RouteStates{"Recibido", "Entregado"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.SetActive(context.Background(), route.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if repo.routes[route.ID].IsActive {
		t.Fatal("route must be inactive")
	}

	err = svc.SetActive(context.Background(), uuid.New(), false)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestGetUnknownRoute(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}
