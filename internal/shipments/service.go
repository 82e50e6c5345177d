package shipments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
	"github.com/mypackmx/logistics-backend/pkg/logger"
	"github.com/mypackmx/logistics-backend/pkg/metrics"
	"github.com/mypackmx/logistics-backend/pkg/outbox"
	"github.com/mypackmx/logistics-backend/pkg/pagination"
	"github.com/mypackmx/logistics-backend/pkg/tracking"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns every shipment state transition. No other component writes
// assignment_status or the status columns.
type Service interface {
	GetForUser(ctx context.Context, userID, shipmentID uuid.UUID) (*ShipmentDetail, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params ListParams) (*ShipmentPage, error)
	Track(ctx context.Context, trackingNumber string) (*TrackingView, error)
	ListByAssignment(ctx context.Context, status enums.AssignmentStatus, params ListParams) (*ShipmentPage, error)

	AssignRoute(ctx context.Context, input AssignRouteInput) (*models.Shipment, error)
	AdvanceStatus(ctx context.Context, input AdvanceStatusInput) (*models.Shipment, error)
	BulkAdvanceStatus(ctx context.Context, input BulkAdvanceInput) (*BulkAdvanceResult, error)
	Scan(ctx context.Context, input ScanInput) (*models.Shipment, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
	metrics *metrics.ShipmentMetrics
	now     func() time.Time
}

// NewService wires the shipments service.
func NewService(repo Repository, tx txRunner, ob outboxPublisher, logg *logger.Logger, m *metrics.ShipmentMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  ob,
		logg:    logg,
		metrics: m,
		now:     time.Now,
	}, nil
}

func (s *service) GetForUser(ctx context.Context, userID, shipmentID uuid.UUID) (*ShipmentDetail, error) {
	shipment, err := s.findShipment(ctx, s.repo, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.UserID != userID {
		// Presented as absent rather than forbidden so ids cannot be probed.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
	}
	history, err := s.repo.ListStatusUpdates(ctx, shipment.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status history")
	}
	return &ShipmentDetail{Shipment: *shipment, History: history}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params ListParams) (*ShipmentPage, error) {
	limit, cursor, err := normalizeListParams(params)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByUser(ctx, userID, pagination.LimitWithBuffer(limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipments")
	}
	return buildPage(items, limit), nil
}

func (s *service) Track(ctx context.Context, trackingNumber string) (*TrackingView, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if !tracking.IsValid(trackingNumber) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tracking number")
	}
	shipment, err := s.repo.FindByTracking(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	history, err := s.repo.ListStatusUpdates(ctx, shipment.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status history")
	}

	events := make([]TrackingEvent, 0, len(history))
	for _, record := range history {
		events = append(events, TrackingEvent{
			Status:     record.Status,
			Location:   record.Location,
			Corrective: record.Corrective,
			OccurredAt: record.OccurredAt,
		})
	}
	return &TrackingView{
		TrackingNumber:     shipment.TrackingNumber,
		AssignmentStatus:   shipment.AssignmentStatus.String(),
		CurrentStatus:      shipment.CurrentStatus,
		CurrentStatusIndex: shipment.CurrentStatusIndex,
		RouteStates:        shipment.RouteStates,
		EstimatedDelivery:  shipment.EstimatedDelivery,
		ActualDelivery:     shipment.ActualDelivery,
		Events:             events,
	}, nil
}

func (s *service) ListByAssignment(ctx context.Context, status enums.AssignmentStatus, params ListParams) (*ShipmentPage, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid assignment status")
	}
	limit, cursor, err := normalizeListParams(params)
	if err != nil {
		return nil, err
	}
	statuses := []enums.AssignmentStatus{status}
	if status == enums.AssignmentStatusActive {
		// A freshly routed shipment has not moved yet; the active board
		// shows it next to shipments already in transit so dispatch can
		// advance it.
		statuses = append(statuses, enums.AssignmentStatusAssigned)
	}
	items, err := s.repo.ListByAssignmentStatus(ctx, statuses, pagination.LimitWithBuffer(limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipments")
	}
	return buildPage(items, limit), nil
}

func (s *service) AssignRoute(ctx context.Context, input AssignRouteInput) (*models.Shipment, error) {
	if input.ShipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	if input.RouteID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "route id required")
	}

	var out *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		shipment, err := s.findShipment(ctx, repo, input.ShipmentID)
		if err != nil {
			return err
		}
		if shipment.PaymentStatus != enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment is not paid")
		}
		route, err := repo.FindRoute(ctx, input.RouteID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "route not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load route")
		}

		transition, err := AssignRoute(shipment, route, s.now().UTC())
		if err != nil {
			return mapMachineError(err)
		}
		updated, err := s.applyTransition(ctx, repo, shipment, transition, input.Actor)
		if err != nil {
			return err
		}
		if err := s.emit(ctx, tx, enums.EventRouteAssigned, updated, input.Actor, transition); err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(enums.UpdateTypeAutomatic.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"shipment_id": input.ShipmentID,
		"route_id":    input.RouteID,
	}), "route assigned")
	return out, nil
}

func (s *service) AdvanceStatus(ctx context.Context, input AdvanceStatusInput) (*models.Shipment, error) {
	if input.ShipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	return s.advance(ctx, input)
}

func (s *service) BulkAdvanceStatus(ctx context.Context, input BulkAdvanceInput) (*BulkAdvanceResult, error) {
	if len(input.ShipmentIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment ids required")
	}
	if strings.TrimSpace(input.Status) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status required")
	}

	result := &BulkAdvanceResult{}
	for _, id := range input.ShipmentIDs {
		_, err := s.advance(ctx, AdvanceStatusInput{
			ShipmentID: id,
			Status:     input.Status,
			Location:   input.Location,
			Notes:      input.Notes,
			UpdateType: enums.UpdateTypeManual,
			Actor:      input.Actor,
		})
		if err != nil {
			// Each shipment stands alone; one bad row never sinks the batch.
			result.Skipped = append(result.Skipped, BulkSkip{ShipmentID: id, Reason: skipReason(err)})
			continue
		}
		result.Updated = append(result.Updated, id)
	}
	return result, nil
}

func (s *service) Scan(ctx context.Context, input ScanInput) (*models.Shipment, error) {
	trackingNumber := strings.TrimSpace(input.TrackingNumber)
	if !tracking.IsValid(trackingNumber) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tracking number")
	}
	shipment, err := s.repo.FindByTracking(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return s.advance(ctx, AdvanceStatusInput{
		ShipmentID: shipment.ID,
		Status:     input.Status,
		Location:   input.Location,
		UpdateType: enums.UpdateTypeQRScan,
		Actor:      input.Actor,
	})
}

func (s *service) advance(ctx context.Context, input AdvanceStatusInput) (*models.Shipment, error) {
	if strings.TrimSpace(input.Status) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status required")
	}
	updateType := input.UpdateType
	if updateType == "" {
		updateType = enums.UpdateTypeManual
	}
	if !updateType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid update type")
	}

	var out *models.Shipment
	var transition *Transition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		shipment, err := s.findShipment(ctx, repo, input.ShipmentID)
		if err != nil {
			return err
		}
		if len(shipment.RouteStates) == 0 && shipment.RouteID != nil {
			// Rows routed before snapshotting carry no state list of their
			// own; fall back to the live route.
			route, err := repo.FindRoute(ctx, *shipment.RouteID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load route")
			}
			shipment.RouteStates = statesForRoute(shipment, route)
		}

		transition, err = AdvanceStatus(shipment, strings.TrimSpace(input.Status), updateType, s.now().UTC())
		if err != nil {
			return mapMachineError(err)
		}
		transition.Record.Location = input.Location
		transition.Record.Notes = input.Notes

		updated, err := s.applyTransition(ctx, repo, shipment, transition, input.Actor)
		if err != nil {
			return err
		}

		eventType := enums.EventStatusAdvanced
		if transition.Completed {
			eventType = enums.EventShipmentDelivered
		}
		if err := s.emit(ctx, tx, eventType, updated, input.Actor, transition); err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(updateType.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"shipment_id": input.ShipmentID,
		"status":      transition.Record.Status,
		"corrective":  transition.Corrective,
	}), "shipment status advanced")
	return out, nil
}

// applyTransition persists the shipment patch under the optimistic version
// check and appends the history record. Caller supplies the transaction.
func (s *service) applyTransition(ctx context.Context, repo Repository, shipment *models.Shipment, transition *Transition, actor Actor) (*models.Shipment, error) {
	ok, err := repo.UpdateVersioned(ctx, shipment.ID, shipment.Version, transition.Patch)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "shipment was modified concurrently, retry")
	}

	record := transition.Record
	if actor.UserID != uuid.Nil {
		actorID := actor.UserID
		record.RecordedBy = &actorID
	}
	if err := repo.InsertStatusUpdate(ctx, &record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert status update")
	}

	updated, err := repo.Find(ctx, shipment.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload shipment")
	}
	return updated, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, shipment *models.Shipment, actor Actor, transition *Transition) error {
	if s.outbox == nil {
		return nil
	}
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateShipment,
		AggregateID:   shipment.ID,
		Actor:         buildActor(actor),
		Data: map[string]any{
			"tracking_number":   shipment.TrackingNumber,
			"status":            transition.Record.Status,
			"status_index":      shipment.CurrentStatusIndex,
			"assignment_status": shipment.AssignmentStatus,
			"update_type":       transition.Record.UpdateType,
			"corrective":        transition.Corrective,
		},
		Version: 1,
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit outbox event")
	}
	return nil
}

func (s *service) findShipment(ctx context.Context, repo Repository, id uuid.UUID) (*models.Shipment, error) {
	shipment, err := repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return shipment, nil
}

func mapMachineError(err error) error {
	switch {
	case errors.Is(err, ErrAlreadyRouted):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "shipment already has a route")
	case errors.Is(err, ErrRouteNotAssigned):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "shipment has no route assigned")
	case errors.Is(err, ErrRouteInactive):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "route is not active")
	case errors.Is(err, ErrRouteTooShort):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "route needs at least 2 states")
	case errors.Is(err, ErrStateNotInRoute):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "state is not part of the shipment's route")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply transition")
	}
}

func skipReason(err error) string {
	var coded *pkgerrors.Error
	if errors.As(err, &coded) {
		return coded.Message()
	}
	return err.Error()
}

func buildActor(actor Actor) *outbox.ActorRef {
	if actor.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()}
}

func normalizeListParams(params ListParams) (int, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	if params.Cursor == "" {
		return limit, nil, nil
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return limit, cursor, nil
}

func buildPage(items []models.Shipment, limit int) *ShipmentPage {
	page := &ShipmentPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page
}
