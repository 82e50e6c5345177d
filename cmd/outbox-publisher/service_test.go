package main

import (
	"context"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/mypackmx/logistics-backend/pkg/config"
	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	"github.com/mypackmx/logistics-backend/pkg/logger"
)

type stubOutboxRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (s *stubOutboxRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var out []models.OutboxEvent
	for _, event := range s.events {
		if event.PublishedAt == nil && event.AttemptCount < maxAttempts && len(out) < limit {
			out = append(out, event)
		}
	}
	return out, nil
}

func (s *stubOutboxRepo) MarkPublished(id uuid.UUID) error {
	s.published = append(s.published, id)
	for i := range s.events {
		if s.events[i].ID == id {
			now := time.Now()
			s.events[i].PublishedAt = &now
		}
	}
	return nil
}

func (s *stubOutboxRepo) MarkFailed(id uuid.UUID, err error) error {
	s.failed = append(s.failed, id)
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].AttemptCount++
		}
	}
	return nil
}

type stubPublisher struct {
	messages []*gcppubsub.Message
	failFor  map[string]error
}

type stubResult struct {
	err error
}

func (r stubResult) Get(ctx context.Context) (string, error) {
	return "server-id", r.err
}

func (p *stubPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	if err, ok := p.failFor[msg.Attributes["aggregate_id"]]; ok {
		return stubResult{err: err}
	}
	return stubResult{}
}

func outboxEvent(eventType enums.OutboxEventType) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateShipment,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		CreatedAt:     time.Now().UTC(),
	}
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestProcessBatchPublishesPendingEvents(t *testing.T) {
	repo := &stubOutboxRepo{events: []models.OutboxEvent{
		outboxEvent(enums.EventShipmentPaid),
		outboxEvent(enums.EventGuideIssued),
	}}
	pub := &stubPublisher{}
	svc := newTestService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(repo.published) != 2 {
		t.Fatalf("expected 2 published, got %d", len(repo.published))
	}
	if len(pub.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(pub.messages))
	}
	if got := pub.messages[0].Attributes["event_type"]; got != string(enums.EventShipmentPaid) {
		t.Fatalf("unexpected event_type attribute %q", got)
	}
}

func TestProcessBatchMarksFailedAndContinues(t *testing.T) {
	bad := outboxEvent(enums.EventShipmentPaid)
	good := outboxEvent(enums.EventGuideIssued)
	repo := &stubOutboxRepo{events: []models.OutboxEvent{bad, good}}
	pub := &stubPublisher{failFor: map[string]error{
		bad.AggregateID.String(): errors.New("topic unavailable"),
	}}
	svc := newTestService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != bad.ID {
		t.Fatalf("expected failure mark for %s, got %v", bad.ID, repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != good.ID {
		t.Fatalf("expected publish mark for %s, got %v", good.ID, repo.published)
	}
}

func TestProcessBatchIdleWhenEmpty(t *testing.T) {
	repo := &stubOutboxRepo{}
	svc := newTestService(t, repo, &stubPublisher{})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if processed {
		t.Fatal("expected idle batch")
	}
}

func TestFetchSkipsExhaustedEvents(t *testing.T) {
	exhausted := outboxEvent(enums.EventShipmentPaid)
	exhausted.AttemptCount = 10
	repo := &stubOutboxRepo{events: []models.OutboxEvent{exhausted}}
	svc := newTestService(t, repo, &stubPublisher{})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if processed {
		t.Fatal("exhausted events should not be retried")
	}
}
