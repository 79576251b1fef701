package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ggontijo/campus-market/internal/core/domain"
)

func TestCatalogListDefaults(t *testing.T) {
	listings := newFakeListingRepo()
	listings.summaries = []domain.ListingSummary{{ID: "l-1"}}
	svc := NewCatalogService(listings, NewGate())

	summaries, err := svc.List(context.Background(), nil, CatalogQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries", len(summaries))
	}

	filter := listings.lastFilter
	if len(filter.Statuses) != 1 || filter.Statuses[0] != domain.ListingStatusActive {
		t.Fatalf("default statuses = %v", filter.Statuses)
	}
	if filter.Limit != DefaultPageSize {
		t.Fatalf("default limit = %d", filter.Limit)
	}
	if filter.Offset != 0 {
		t.Fatalf("default offset = %d", filter.Offset)
	}
}

func TestCatalogListClampsPaging(t *testing.T) {
	listings := newFakeListingRepo()
	svc := NewCatalogService(listings, NewGate())

	if _, err := svc.List(context.Background(), nil, CatalogQuery{Limit: 5000, Offset: -3}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if listings.lastFilter.Limit != MaxPageSize {
		t.Fatalf("limit = %d", listings.lastFilter.Limit)
	}
	if listings.lastFilter.Offset != 0 {
		t.Fatalf("offset = %d", listings.lastFilter.Offset)
	}
}

func TestCatalogListEmptyIsNotError(t *testing.T) {
	svc := NewCatalogService(newFakeListingRepo(), NewGate())

	summaries, err := svc.List(context.Background(), nil, CatalogQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if summaries == nil || len(summaries) != 0 {
		t.Fatalf("want empty slice, got %#v", summaries)
	}
}

func TestCatalogListDeletedStatus(t *testing.T) {
	listings := newFakeListingRepo()
	svc := NewCatalogService(listings, NewGate())

	deleted := domain.ListingStatusDeleted
	if _, err := svc.List(context.Background(), activeAffiliate("id-1"), CatalogQuery{Status: &deleted}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("member err = %v", err)
	}

	if _, err := svc.List(context.Background(), adminIdentity("admin-1"), CatalogQuery{Status: &deleted}); err != nil {
		t.Fatalf("admin err = %v", err)
	}
	if listings.lastFilter.Statuses[0] != domain.ListingStatusDeleted {
		t.Fatalf("statuses = %v", listings.lastFilter.Statuses)
	}

	bogus := domain.ListingStatus("GONE")
	if _, err := svc.List(context.Background(), nil, CatalogQuery{Status: &bogus}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bogus status err = %v", err)
	}
}

func TestCatalogGetByIDVisibility(t *testing.T) {
	expired := activeListing("l-1", "owner-1")
	expired.Status = domain.ListingStatusExpired
	sold := activeListing("l-2", "owner-1")
	sold.Status = domain.ListingStatusSold
	svc := NewCatalogService(newFakeListingRepo(expired, sold), NewGate())
	ctx := context.Background()

	// SOLD stays publicly visible.
	if _, err := svc.GetByID(ctx, nil, "l-2", false); err != nil {
		t.Fatalf("sold lookup: %v", err)
	}

	// EXPIRED hides without the include flag, even from the owner.
	if _, err := svc.GetByID(ctx, activeAffiliate("owner-1"), "l-1", false); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("owner default err = %v", err)
	}

	// With the flag, only owner and admins may see it.
	if _, err := svc.GetByID(ctx, activeAffiliate("owner-1"), "l-1", true); err != nil {
		t.Fatalf("owner include err = %v", err)
	}
	if _, err := svc.GetByID(ctx, adminIdentity("admin-1"), "l-1", true); err != nil {
		t.Fatalf("admin include err = %v", err)
	}
	if _, err := svc.GetByID(ctx, activeAffiliate("stranger"), "l-1", true); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("stranger include err = %v", err)
	}
	if _, err := svc.GetByID(ctx, nil, "l-1", true); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("anonymous include err = %v", err)
	}
}

func TestCatalogGetByIDMissing(t *testing.T) {
	svc := NewCatalogService(newFakeListingRepo(), NewGate())

	if _, err := svc.GetByID(context.Background(), nil, "nope", false); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.GetByID(context.Background(), nil, " ", false); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank id err = %v", err)
	}
}
