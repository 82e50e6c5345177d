package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	"github.com/mypackmx/logistics-backend/pkg/logger"
	"github.com/mypackmx/logistics-backend/pkg/mailer"
	"github.com/mypackmx/logistics-backend/pkg/outbox"
	"github.com/mypackmx/logistics-backend/pkg/redis"
)

const consumerScope = "shipment-emails"

// Guard marks should comfortably outlive the subscription's retry window.
const guardTTL = 7 * 24 * time.Hour

type shipmentLookup interface {
	FindByTracking(ctx context.Context, trackingNumber string) (*models.Shipment, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type eventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type redisGuard struct {
	store redis.IdempotencyStore
}

// NewGuard builds the redis-backed dedupe guard for the email consumer.
func NewGuard(store redis.IdempotencyStore) (*redisGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store required")
	}
	return &redisGuard{store: store}, nil
}

func (g *redisGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	key := g.store.IdempotencyKey(consumerScope, eventID)
	set, err := g.store.SetNX(ctx, key, "1", guardTTL)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

func (g *redisGuard) Delete(ctx context.Context, eventID string) error {
	return g.store.Del(ctx, g.store.IdempotencyKey(consumerScope, eventID))
}

// ConsumerParams bundles the consumer dependencies.
type ConsumerParams struct {
	Shipments    shipmentLookup
	Users        userLookup
	Sender       mailer.Sender
	Guard        eventGuard
	Subscription *pubsub.Subscriber
	Logger       *logger.Logger
	PublicURL    string
}

// Consumer turns shipment lifecycle events into customer emails.
type Consumer struct {
	shipments    shipmentLookup
	users        userLookup
	sender       mailer.Sender
	guard        eventGuard
	subscription *pubsub.Subscriber
	logg         *logger.Logger
	publicURL    string
}

// NewConsumer builds the shipment email consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Shipments == nil {
		return nil, fmt.Errorf("shipments lookup required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users lookup required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if params.Guard == nil {
		return nil, fmt.Errorf("event guard required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		shipments:    params.Shipments,
		users:        params.Users,
		sender:       params.Sender,
		guard:        params.Guard,
		subscription: params.Subscription,
		logg:         params.Logger,
		publicURL:    params.PublicURL,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return errors.New("subscription required")
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.ID, msg.Attributes["event_type"], msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, messageID, eventType string, data []byte) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if !handledEvent(enums.OutboxEventType(eventType)) {
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "decode envelope", err)
		return processResult{ack: true}
	}
	if envelope.EventID == "" {
		c.logg.Error(logCtx, "envelope missing event id", nil)
		return processResult{ack: true}
	}

	already, err := c.guard.CheckAndMark(ctx, envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload shipmentEventPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil || payload.TrackingNumber == "" {
		c.logg.Error(logCtx, "parse payload", err)
		// A malformed payload never becomes valid on retry; keep the mark.
		return processResult{ack: true}
	}
	logCtx = c.logg.WithTrackingNumber(logCtx, payload.TrackingNumber)

	if err := c.sendEmail(ctx, enums.OutboxEventType(eventType), payload.TrackingNumber, logCtx); err != nil {
		if errors.Is(err, errStaleEvent) {
			c.logg.Info(logCtx, "skipping stale event")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "send shipment email", err)
		_ = c.guard.Delete(ctx, envelope.EventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "shipment email sent")
	return processResult{ack: true}
}

// errStaleEvent marks events whose shipment or user no longer exists.
var errStaleEvent = errors.New("stale event")

func (c *Consumer) sendEmail(ctx context.Context, eventType enums.OutboxEventType, trackingNumber string, logCtx context.Context) error {
	shipment, err := c.shipments.FindByTracking(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errStaleEvent
		}
		return fmt.Errorf("load shipment: %w", err)
	}
	user, err := c.users.FindByID(ctx, shipment.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errStaleEvent
		}
		return fmt.Errorf("load user: %w", err)
	}

	msg, ok := buildEmail(eventType, shipment, user, c.publicURL)
	if !ok {
		return nil
	}
	return c.sender.Send(ctx, msg)
}

func handledEvent(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.EventShipmentPaid, enums.EventGuideIssued,
		enums.EventShipmentDelivered, enums.EventShipmentExpired:
		return true
	default:
		return false
	}
}

type shipmentEventPayload struct {
	TrackingNumber string `json:"tracking_number"`
}
