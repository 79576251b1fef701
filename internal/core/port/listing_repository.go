package port

import (
	"context"
	"time"

	"github.com/ggontijo/campus-market/internal/core/domain"
)

// ListingFilter narrows catalog queries. Zero values impose no restriction;
// Statuses defaults at the service layer, never here.
type ListingFilter struct {
	Statuses   []domain.ListingStatus
	CategoryID string
	Commerce   domain.CommerceType
	Kind       domain.ListingKind
	OwnerID    string
	SearchText string
	Limit      int
	Offset     int
}

// ListingRepository exposes persistence behavior for listings.
type ListingRepository interface {
	Create(ctx context.Context, listing domain.Listing) error
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	Update(ctx context.Context, listing domain.Listing) error

	// UpdateStatus moves the listing to the target status only when its
	// persisted status is one of the allowed sources, and reports whether a
	// row changed. A false return with a nil error means the live status was
	// not among the sources.
	UpdateStatus(ctx context.Context, id string, sources []domain.ListingStatus, target domain.ListingStatus) (bool, error)

	// IncrementViews bumps the view counter in a single atomic statement.
	// DELETED listings are left untouched.
	IncrementViews(ctx context.Context, id string) error

	// SetImageRefs replaces the ordered image reference list.
	SetImageRefs(ctx context.Context, id string, refs []string) error

	List(ctx context.Context, filter ListingFilter) ([]domain.ListingSummary, error)
	CountByCategory(ctx context.Context, categoryID string, statuses []domain.ListingStatus) (int, error)

	// ExpireBefore transitions ACTIVE and RESERVED listings created before the
	// cutoff to EXPIRED and returns the affected listings.
	ExpireBefore(ctx context.Context, cutoff time.Time) ([]domain.Listing, error)
}
