package domain

import "time"

// IdentityRegisteredEvent captures a completed sign-up.
type IdentityRegisteredEvent struct {
	EventID      string
	IdentityID   string
	Email        string
	Name         string
	Membership   MembershipType
	Status       IdentityStatus
	RegisteredAt time.Time
	Metadata     map[string]any
}

// ListingCreatedEvent is published when a listing enters the catalog.
type ListingCreatedEvent struct {
	EventID    string
	ListingID  string
	OwnerID    string
	CategoryID string
	Title      string
	PriceCents int64
	Commerce   CommerceType
	Kind       ListingKind
	CreatedAt  time.Time
	Metadata   map[string]any
}

// ListingStatusChangedEvent is published for every successful transition,
// including soft deletes and system-driven expiry.
type ListingStatusChangedEvent struct {
	EventID    string
	ListingID  string
	OwnerID    string
	FromStatus ListingStatus
	ToStatus   ListingStatus
	Actor      TransitionActor
	ActorID    string
	ChangedAt  time.Time
	Metadata   map[string]any
}
