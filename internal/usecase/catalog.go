package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/core/port"
	"github.com/ggontijo/campus-market/internal/repository"
)

const (
	// DefaultPageSize bounds catalog pages when the caller does not ask for one.
	DefaultPageSize = 20
	// MaxPageSize caps what a caller may ask for.
	MaxPageSize = 100
)

// CatalogQuery narrows a catalog listing request. The zero value returns the
// first page of ACTIVE listings, newest first.
type CatalogQuery struct {
	// Status overrides the ACTIVE default when set. Requesting DELETED rows
	// requires administrative privilege.
	Status     *domain.ListingStatus
	CategoryID string
	Commerce   domain.CommerceType
	Kind       domain.ListingKind
	OwnerID    string
	SearchText string
	Limit      int
	Offset     int
}

// CatalogService answers read-side queries over the set of listings.
type CatalogService struct {
	listings port.ListingRepository
	gate     Gate
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(listings port.ListingRepository, gate Gate) *CatalogService {
	return &CatalogService{listings: listings, gate: gate}
}

// List returns catalog summaries matching the query, ordered by creation time
// descending with id as a deterministic tiebreak. No matches is an empty
// slice, never an error. DELETED listings are excluded unless an administrator
// explicitly asks for them.
func (s *CatalogService) List(ctx context.Context, viewer *domain.Identity, query CatalogQuery) ([]domain.ListingSummary, error) {
	statuses := []domain.ListingStatus{domain.ListingStatusActive}
	if query.Status != nil {
		status := *query.Status
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
		if status == domain.ListingStatusDeleted && !s.gate.CanAdminister(viewer) {
			return nil, ErrPermissionDenied
		}
		statuses = []domain.ListingStatus{status}
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	filter := port.ListingFilter{
		Statuses:   statuses,
		CategoryID: strings.TrimSpace(query.CategoryID),
		Commerce:   query.Commerce,
		Kind:       query.Kind,
		OwnerID:    strings.TrimSpace(query.OwnerID),
		SearchText: strings.TrimSpace(query.SearchText),
		Limit:      limit,
		Offset:     offset,
	}

	summaries, err := s.listings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	if summaries == nil {
		summaries = []domain.ListingSummary{}
	}

	return summaries, nil
}

// GetByID resolves a listing for a detail view. With includeInactive false
// only ACTIVE, RESERVED, and SOLD listings are visible; EXPIRED and DELETED
// rows stay hidden from everyone but the owner and administrators, and are
// reported as absent rather than forbidden so their existence does not leak.
func (s *CatalogService) GetByID(ctx context.Context, viewer *domain.Identity, listingID string, includeInactive bool) (*domain.Listing, error) {
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

	switch listing.Status {
	case domain.ListingStatusActive, domain.ListingStatusReserved, domain.ListingStatusSold:
		return listing, nil
	}

	if !includeInactive {
		return nil, ErrListingNotFound
	}
	if viewer != nil && (listing.OwnedBy(viewer.ID) || s.gate.CanAdminister(viewer)) {
		return listing, nil
	}

	return nil, ErrListingNotFound
}
