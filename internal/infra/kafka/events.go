package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/core/port"
	"github.com/ggontijo/campus-market/internal/infra/config"
)

const schemaVersion = "1.0"

const (
	topicIdentityRegistered   = "identity.registered"
	topicListingCreated       = "listing.created"
	topicListingStatusChanged = "listing.status_changed"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	SubjectID string           `json:"subject_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, subjectID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		SubjectID: subjectID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(subjectID),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishIdentityRegistered publishes market.identity.registered events.
func (p *EventPublisher) PublishIdentityRegistered(ctx context.Context, event domain.IdentityRegisteredEvent) error {
	payload := struct {
		IdentityID   string         `json:"identity_id"`
		Email        string         `json:"email"`
		Name         string         `json:"name"`
		Membership   string         `json:"membership"`
		Status       string         `json:"status"`
		RegisteredAt time.Time      `json:"registered_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		IdentityID:   event.IdentityID,
		Email:        event.Email,
		Name:         event.Name,
		Membership:   string(event.Membership),
		Status:       string(event.Status),
		RegisteredAt: event.RegisteredAt.UTC(),
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, topicIdentityRegistered, event.IdentityID, event.RegisteredAt, payload)
}

// PublishListingCreated publishes market.listing.created events.
func (p *EventPublisher) PublishListingCreated(ctx context.Context, event domain.ListingCreatedEvent) error {
	payload := struct {
		ListingID  string         `json:"listing_id"`
		OwnerID    string         `json:"owner_id"`
		CategoryID string         `json:"category_id"`
		Title      string         `json:"title"`
		PriceCents int64          `json:"price_cents"`
		Commerce   string         `json:"commerce_type"`
		Kind       string         `json:"kind"`
		CreatedAt  time.Time      `json:"created_at"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}{
		ListingID:  event.ListingID,
		OwnerID:    event.OwnerID,
		CategoryID: event.CategoryID,
		Title:      event.Title,
		PriceCents: event.PriceCents,
		Commerce:   string(event.Commerce),
		Kind:       string(event.Kind),
		CreatedAt:  event.CreatedAt.UTC(),
		Metadata:   event.Metadata,
	}

	return p.publish(ctx, event.EventID, topicListingCreated, event.ListingID, event.CreatedAt, payload)
}

// PublishListingStatusChanged publishes market.listing.status_changed events.
func (p *EventPublisher) PublishListingStatusChanged(ctx context.Context, event domain.ListingStatusChangedEvent) error {
	payload := struct {
		ListingID  string         `json:"listing_id"`
		OwnerID    string         `json:"owner_id"`
		FromStatus string         `json:"from_status"`
		ToStatus   string         `json:"to_status"`
		Actor      string         `json:"actor"`
		ActorID    string         `json:"actor_id,omitempty"`
		ChangedAt  time.Time      `json:"changed_at"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}{
		ListingID:  event.ListingID,
		OwnerID:    event.OwnerID,
		FromStatus: string(event.FromStatus),
		ToStatus:   string(event.ToStatus),
		Actor:      string(event.Actor),
		ActorID:    event.ActorID,
		ChangedAt:  event.ChangedAt.UTC(),
		Metadata:   event.Metadata,
	}

	return p.publish(ctx, event.EventID, topicListingStatusChanged, event.ListingID, event.ChangedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
