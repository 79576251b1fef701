package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/core/port"
	"github.com/ggontijo/campus-market/internal/repository"
)

var (
	// ErrValidation indicates malformed or missing required input.
	ErrValidation = errors.New("invalid input")
	// ErrListingNotFound indicates the listing is absent or invisible to the caller.
	ErrListingNotFound = errors.New("listing not found")
	// ErrNotListingOwner indicates the caller does not own the listing.
	ErrNotListingOwner = errors.New("caller is not the listing owner")
	// ErrListingNotEditable indicates field edits are not legal in the current state.
	ErrListingNotEditable = errors.New("listing is not editable in its current state")
	// ErrInvalidTransition indicates the requested status change is not in the lifecycle table.
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// CreateListingInput carries the caller-supplied fields for a new listing.
type CreateListingInput struct {
	CategoryID  string
	Title       string
	Description string
	PriceCents  int64
	Commerce    domain.CommerceType
	Kind        domain.ListingKind
	Location    string
	ImageRefs   []string
}

// UpdateListingInput is a partial patch; nil fields are left untouched.
// Owner, id, creation timestamp, view counter, and status are never patchable.
type UpdateListingInput struct {
	CategoryID  *string
	Title       *string
	Description *string
	PriceCents  *int64
	Commerce    *domain.CommerceType
	Kind        *domain.ListingKind
	Location    *string
}

// ListingService drives the listing lifecycle: creation, edits, status
// transitions, view counting, and time-based expiry.
type ListingService struct {
	listings     port.ListingRepository
	categories   port.CategoryRepository
	gate         Gate
	events       port.EventPublisher
	logger       *zap.Logger
	onCreated    func()
	onTransition func(to domain.ListingStatus)
}

// NewListingService constructs ListingService.
func NewListingService(listings port.ListingRepository, categories port.CategoryRepository, gate Gate, events port.EventPublisher) *ListingService {
	return &ListingService{
		listings:   listings,
		categories: categories,
		gate:       gate,
		events:     events,
		logger:     zap.NewNop(),
	}
}

// WithLogger attaches a structured logger used for non-fatal event failures.
func (s *ListingService) WithLogger(logger *zap.Logger) *ListingService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithObservers registers callbacks fired after successful creations and
// status transitions, used to feed metrics.
func (s *ListingService) WithObservers(onCreated func(), onTransition func(to domain.ListingStatus)) *ListingService {
	s.onCreated = onCreated
	s.onTransition = onTransition
	return s
}

// Create validates and persists a new listing owned by the actor. The listing
// starts ACTIVE with zero views.
func (s *ListingService) Create(ctx context.Context, actor *domain.Identity, input CreateListingInput) (*domain.Listing, error) {
	if !s.gate.CanCreateListing(actor) {
		return nil, ErrPermissionDenied
	}

	if err := validateListingFields(input.Title, input.Description, input.PriceCents, input.Commerce, input.Kind); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.CategoryID) == "" {
		return nil, fmt.Errorf("%w: category is required", ErrValidation)
	}
	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: category does not resolve", ErrValidation)
		}
		return nil, fmt.Errorf("resolve category: %w", err)
	}

	now := time.Now().UTC()
	listing := domain.Listing{
		ID:          uuid.NewString(),
		OwnerID:     actor.ID,
		CategoryID:  input.CategoryID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		PriceCents:  input.PriceCents,
		Commerce:    input.Commerce,
		Kind:        input.Kind,
		Status:      domain.ListingStatusActive,
		ImageRefs:   input.ImageRefs,
		Location:    strings.TrimSpace(input.Location),
		Views:       0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.publishCreated(ctx, listing)
	if s.onCreated != nil {
		s.onCreated()
	}

	return &listing, nil
}

// Update applies a field patch to a listing owned by the actor. Edits are
// legal only while the listing is ACTIVE or RESERVED.
func (s *ListingService) Update(ctx context.Context, actor *domain.Identity, listingID string, patch UpdateListingInput) (*domain.Listing, error) {
	listing, err := s.visibleForMutation(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if !listing.OwnedBy(actorID(actor)) {
		return nil, ErrNotListingOwner
	}
	if !s.gate.CanMutateListing(actor, listing) {
		// Owner but suspended: retraction stays possible, edits do not.
		return nil, ErrPermissionDenied
	}
	if !listing.Editable() {
		return nil, ErrListingNotEditable
	}

	if patch.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *patch.CategoryID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: category does not resolve", ErrValidation)
			}
			return nil, fmt.Errorf("resolve category: %w", err)
		}
		listing.CategoryID = *patch.CategoryID
	}
	if patch.Title != nil {
		listing.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		listing.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.PriceCents != nil {
		listing.PriceCents = *patch.PriceCents
	}
	if patch.Commerce != nil {
		listing.Commerce = *patch.Commerce
	}
	if patch.Kind != nil {
		listing.Kind = *patch.Kind
	}
	if patch.Location != nil {
		listing.Location = strings.TrimSpace(*patch.Location)
	}

	if err := validateListingFields(listing.Title, listing.Description, listing.PriceCents, listing.Commerce, listing.Kind); err != nil {
		return nil, err
	}

	listing.UpdatedAt = time.Now().UTC()

	if err := s.listings.Update(ctx, *listing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("update listing: %w", err)
	}

	return listing, nil
}

// Transition moves the listing to the target status on behalf of the actor.
// The move is validated against the persisted status: a request that targets
// a state no longer reachable from the live status fails with
// ErrInvalidTransition instead of overwriting it.
func (s *ListingService) Transition(ctx context.Context, actor *domain.Identity, listingID string, target domain.ListingStatus) (*domain.Listing, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, target)
	}

	listing, err := s.visibleForMutation(ctx, listingID)
	if err != nil {
		return nil, err
	}

	role, err := s.transitionRole(actor, listing, target)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(listing.Status, target, role) {
		return nil, ErrInvalidTransition
	}

	sources := domain.TransitionSources(target, role)
	changed, err := s.listings.UpdateStatus(ctx, listing.ID, sources, target)
	if err != nil {
		return nil, fmt.Errorf("transition listing: %w", err)
	}
	if !changed {
		// The persisted status moved underneath us into a state the actor
		// cannot leave toward the target.
		return nil, ErrInvalidTransition
	}

	from := listing.Status
	listing.Status = target
	listing.UpdatedAt = time.Now().UTC()

	s.publishStatusChanged(ctx, listing, from, target, role, actorID(actor))
	if s.onTransition != nil {
		s.onTransition(target)
	}

	return listing, nil
}

// IncrementViews bumps the view counter atomically at the storage layer.
// Deleted listings are silently skipped.
func (s *ListingService) IncrementViews(ctx context.Context, listingID string) error {
	if strings.TrimSpace(listingID) == "" {
		return fmt.Errorf("%w: listing id is required", ErrValidation)
	}
	if err := s.listings.IncrementViews(ctx, listingID); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// ExpireStale moves ACTIVE and RESERVED listings older than maxAge to EXPIRED
// and reports how many were affected. Invoked by the background sweeper with
// the system actor.
func (s *ListingService) ExpireStale(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, fmt.Errorf("%w: expiry age must be positive", ErrValidation)
	}

	cutoff := time.Now().UTC().Add(-maxAge)
	expired, err := s.listings.ExpireBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire listings: %w", err)
	}

	for i := range expired {
		listing := expired[i]
		from := listing.Status
		listing.Status = domain.ListingStatusExpired
		s.publishStatusChanged(ctx, &listing, from, domain.ListingStatusExpired, domain.ActorSystem, "")
	}

	return len(expired), nil
}

// visibleForMutation loads a listing for a mutating operation. Soft-deleted
// rows are reported as absent so retraction does not leak their history.
func (s *ListingService) visibleForMutation(ctx context.Context, listingID string) (*domain.Listing, error) {
	if strings.TrimSpace(listingID) == "" {
		return nil, fmt.Errorf("%w: listing id is required", ErrValidation)
	}

	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("lookup listing: %w", err)
	}
	if listing.Status == domain.ListingStatusDeleted {
		return nil, ErrListingNotFound
	}

	return listing, nil
}

// transitionRole resolves which lifecycle actor the caller acts as for the
// requested target, enforcing ownership and the suspended-owner policy.
func (s *ListingService) transitionRole(actor *domain.Identity, listing *domain.Listing, target domain.ListingStatus) (domain.TransitionActor, error) {
	if target == domain.ListingStatusDeleted {
		if !s.gate.CanRetractListing(actor, listing) {
			if actor != nil && listing.OwnedBy(actor.ID) {
				return "", ErrPermissionDenied
			}
			return "", ErrNotListingOwner
		}
		if s.gate.CanAdminister(actor) && !listing.OwnedBy(actor.ID) {
			return domain.ActorAdmin, nil
		}
		return domain.ActorOwner, nil
	}

	if actor == nil || !listing.OwnedBy(actor.ID) {
		return "", ErrNotListingOwner
	}
	if !s.gate.CanMutateListing(actor, listing) {
		return "", ErrPermissionDenied
	}
	return domain.ActorOwner, nil
}

func (s *ListingService) publishCreated(ctx context.Context, listing domain.Listing) {
	if s.events == nil {
		return
	}
	event := domain.ListingCreatedEvent{
		EventID:    uuid.NewString(),
		ListingID:  listing.ID,
		OwnerID:    listing.OwnerID,
		CategoryID: listing.CategoryID,
		Title:      listing.Title,
		PriceCents: listing.PriceCents,
		Commerce:   listing.Commerce,
		Kind:       listing.Kind,
		CreatedAt:  listing.CreatedAt,
	}
	if err := s.events.PublishListingCreated(ctx, event); err != nil {
		s.logger.Warn("publish listing created event failed",
			zap.String("listing_id", listing.ID),
			zap.Error(err),
		)
	}
}

func (s *ListingService) publishStatusChanged(ctx context.Context, listing *domain.Listing, from, to domain.ListingStatus, role domain.TransitionActor, actorID string) {
	if s.events == nil {
		return
	}
	event := domain.ListingStatusChangedEvent{
		EventID:    uuid.NewString(),
		ListingID:  listing.ID,
		OwnerID:    listing.OwnerID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      role,
		ActorID:    actorID,
		ChangedAt:  time.Now().UTC(),
	}
	if err := s.events.PublishListingStatusChanged(ctx, event); err != nil {
		s.logger.Warn("publish listing status event failed",
			zap.String("listing_id", listing.ID),
			zap.String("to_status", string(to)),
			zap.Error(err),
		)
	}
}

func validateListingFields(title, description string, priceCents int64, commerce domain.CommerceType, kind domain.ListingKind) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if priceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if !commerce.Valid() {
		return fmt.Errorf("%w: unknown commerce type %q", ErrValidation, commerce)
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown listing kind %q", ErrValidation, kind)
	}
	return nil
}

func actorID(identity *domain.Identity) string {
	if identity == nil {
		return ""
	}
	return identity.ID
}
