package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, subjectID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("subject_id", subjectID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishIdentityRegistered logs market.identity.registered events.
func (p *StubPublisher) PublishIdentityRegistered(_ context.Context, event domain.IdentityRegisteredEvent) error {
	payload := map[string]any{
		"identity_id":   event.IdentityID,
		"email":         event.Email,
		"name":          event.Name,
		"membership":    event.Membership,
		"status":        event.Status,
		"registered_at": event.RegisteredAt,
	}
	p.logEvent(topicIdentityRegistered, event.IdentityID, event.RegisteredAt, payload)
	return nil
}

// PublishListingCreated logs market.listing.created events.
func (p *StubPublisher) PublishListingCreated(_ context.Context, event domain.ListingCreatedEvent) error {
	payload := map[string]any{
		"listing_id":  event.ListingID,
		"owner_id":    event.OwnerID,
		"category_id": event.CategoryID,
		"title":       event.Title,
		"price_cents": event.PriceCents,
		"commerce":    event.Commerce,
		"kind":        event.Kind,
		"created_at":  event.CreatedAt,
	}
	p.logEvent(topicListingCreated, event.ListingID, event.CreatedAt, payload)
	return nil
}

// PublishListingStatusChanged logs market.listing.status_changed events.
func (p *StubPublisher) PublishListingStatusChanged(_ context.Context, event domain.ListingStatusChangedEvent) error {
	payload := map[string]any{
		"listing_id":  event.ListingID,
		"owner_id":    event.OwnerID,
		"from_status": event.FromStatus,
		"to_status":   event.ToStatus,
		"actor":       event.Actor,
		"actor_id":    event.ActorID,
		"changed_at":  event.ChangedAt,
	}
	p.logEvent(topicListingStatusChanged, event.ListingID, event.ChangedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
