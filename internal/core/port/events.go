package port

import (
	"context"

	"github.com/ggontijo/campus-market/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishIdentityRegistered(ctx context.Context, event domain.IdentityRegisteredEvent) error
	PublishListingCreated(ctx context.Context, event domain.ListingCreatedEvent) error
	PublishListingStatusChanged(ctx context.Context, event domain.ListingStatusChangedEvent) error
}
