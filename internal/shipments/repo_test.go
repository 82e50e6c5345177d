package shipments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	"github.com/mypackmx/logistics-backend/pkg/pagination"
	"github.com/mypackmx/logistics-backend/pkg/types"
)

func setupShipmentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	shipments := `
CREATE TABLE IF NOT EXISTS shipments (
  id TEXT PRIMARY KEY,
  tracking_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  recipient_name TEXT NOT NULL,
  recipient_phone TEXT,
  street TEXT NOT NULL,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  weight_kg TEXT NOT NULL,
  dimensions TEXT NOT NULL,
  declared_value TEXT NOT NULL DEFAULT '0',
  insured INTEGER NOT NULL DEFAULT 0,
  service_type TEXT NOT NULL,
  service_cost TEXT NOT NULL,
  insurance_cost TEXT NOT NULL DEFAULT '0',
  total_cost TEXT NOT NULL,
  pricing_rule_id TEXT,
  insurance_rate_id TEXT,
  route_id TEXT,
  route_states TEXT,
  current_status TEXT,
  current_status_index INTEGER,
  assignment_status TEXT NOT NULL DEFAULT 'pending_assignment',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  stripe_session_id TEXT,
  qr_code_url TEXT,
  guide_pdf_url TEXT,
  version INTEGER NOT NULL DEFAULT 1,
  assigned_at DATETIME,
  estimated_delivery DATETIME,
  actual_delivery DATETIME,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	statusUpdates := `
CREATE TABLE IF NOT EXISTS status_updates (
  id TEXT PRIMARY KEY,
  shipment_id TEXT NOT NULL,
  status TEXT NOT NULL,
  location TEXT,
  notes TEXT,
  update_type TEXT NOT NULL,
  corrective INTEGER NOT NULL DEFAULT 0,
  recorded_by TEXT,
  occurred_at DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(shipments).Error)
	require.NoError(t, db.Exec(statusUpdates).Error)
	return db
}

func insertShipment(t *testing.T, db *gorm.DB, userID uuid.UUID, created time.Time, payment enums.PaymentStatus, assignment enums.AssignmentStatus) *models.Shipment {
	t.Helper()

	shipment := &models.Shipment{
		ID:             uuid.New(),
		TrackingNumber: "MPM" + uuid.NewString()[:12],
		UserID:         userID,
		RecipientName:  "Ana Torres",
		Street:         "Av. Reforma 100",
		City:           "Monterrey",
		State:          "Nuevo Leon",
		PostalCode:     "64000",
		WeightKg:       decimal.RequireFromString("2.500"),
		Dimensions: types.Dimensions{
			Length: decimal.NewFromInt(30),
			Width:  decimal.NewFromInt(20),
			Height: decimal.NewFromInt(10),
		},
		ServiceType:      enums.ServiceTypeRetail,
		ServiceCost:      decimal.RequireFromString("350.00"),
		TotalCost:        decimal.RequireFromString("350.00"),
		AssignmentStatus: assignment,
		PaymentStatus:    payment,
		Version:          1,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
	require.NoError(t, db.Create(shipment).Error)
	return shipment
}

func TestRepositoryListByUser_pagination(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	now := time.Now().UTC()
	older := insertShipment(t, db, userID, now.Add(-time.Hour), enums.PaymentStatusPaid, enums.AssignmentStatusPending)
	newer := insertShipment(t, db, userID, now, enums.PaymentStatusPending, enums.AssignmentStatusPending)
	insertShipment(t, db, uuid.New(), now, enums.PaymentStatusPaid, enums.AssignmentStatusPending)

	first, err := repo.ListByUser(context.Background(), userID, 1, nil)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, newer.ID, first[0].ID)

	cursor := &pagination.Cursor{CreatedAt: first[0].CreatedAt, ID: first[0].ID}
	second, err := repo.ListByUser(context.Background(), userID, 1, cursor)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, older.ID, second[0].ID)
}

func TestRepositoryListByAssignmentStatus(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	assigned := insertShipment(t, db, uuid.New(), now, enums.PaymentStatusPaid, enums.AssignmentStatusAssigned)
	active := insertShipment(t, db, uuid.New(), now.Add(-time.Minute), enums.PaymentStatusPaid, enums.AssignmentStatusActive)
	insertShipment(t, db, uuid.New(), now, enums.PaymentStatusPaid, enums.AssignmentStatusPending)
	insertShipment(t, db, uuid.New(), now, enums.PaymentStatusPending, enums.AssignmentStatusAssigned)

	statuses := []enums.AssignmentStatus{enums.AssignmentStatusActive, enums.AssignmentStatusAssigned}
	list, err := repo.ListByAssignmentStatus(context.Background(), statuses, 10, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, assigned.ID, list[0].ID)
	assert.Equal(t, active.ID, list[1].ID)
}

func TestRepositoryFindUnpaidBefore(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	stale := insertShipment(t, db, uuid.New(), now.Add(-96*time.Hour), enums.PaymentStatusPending, enums.AssignmentStatusPending)
	insertShipment(t, db, uuid.New(), now.Add(-96*time.Hour), enums.PaymentStatusPaid, enums.AssignmentStatusPending)
	insertShipment(t, db, uuid.New(), now, enums.PaymentStatusPending, enums.AssignmentStatusPending)

	list, err := repo.FindUnpaidBefore(context.Background(), now.Add(-72*time.Hour))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, stale.ID, list[0].ID)
}

func TestRepositoryUpdateVersioned(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)

	shipment := insertShipment(t, db, uuid.New(), time.Now().UTC(), enums.PaymentStatusPaid, enums.AssignmentStatusAssigned)

	ok, err := repo.UpdateVersioned(context.Background(), shipment.ID, shipment.Version, map[string]any{
		"assignment_status": enums.AssignmentStatusActive,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	// A writer holding the original version lost the race and must not win.
	ok, err = repo.UpdateVersioned(context.Background(), shipment.ID, shipment.Version, map[string]any{
		"assignment_status": enums.AssignmentStatusCompleted,
	})
	require.NoError(t, err)
	assert.False(t, ok)

	updated, err := repo.Find(context.Background(), shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AssignmentStatusActive, updated.AssignmentStatus)
	assert.Equal(t, shipment.Version+1, updated.Version)
}

func TestRepositoryStatusUpdatesOrdering(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)

	shipment := insertShipment(t, db, uuid.New(), time.Now().UTC(), enums.PaymentStatusPaid, enums.AssignmentStatusActive)

	now := time.Now().UTC()
	later := &models.StatusUpdate{
		ID:         uuid.New(),
		ShipmentID: shipment.ID,
		Status:     "Nuevo Leon",
		UpdateType: enums.UpdateTypeQRScan,
		OccurredAt: now,
	}
	earlier := &models.StatusUpdate{
		ID:         uuid.New(),
		ShipmentID: shipment.ID,
		Status:     "Texas",
		UpdateType: enums.UpdateTypeManual,
		OccurredAt: now.Add(-time.Hour),
	}
	require.NoError(t, repo.InsertStatusUpdate(context.Background(), later))
	require.NoError(t, repo.InsertStatusUpdate(context.Background(), earlier))

	updates, err := repo.ListStatusUpdates(context.Background(), shipment.ID)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, "Texas", updates[0].Status)
	assert.Equal(t, "Nuevo Leon", updates[1].Status)
}
