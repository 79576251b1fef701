package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ggontijo/campus-market/internal/core/domain"
)

func validCreateInput(categoryID string) CreateListingInput {
	return CreateListingInput{
		CategoryID:  categoryID,
		Title:       "Bicicleta aro 29",
		Description: "Pouco usada, freio a disco.",
		PriceCents:  45000,
		Commerce:    domain.CommerceSale,
		Kind:        domain.KindProduct,
		Location:    "Bloco C",
	}
}

func activeListing(id, owner string) domain.Listing {
	now := time.Now().UTC()
	return domain.Listing{
		ID:          id,
		OwnerID:     owner,
		CategoryID:  "cat-1",
		Title:       "Micro-ondas 20L",
		Description: "Funciona perfeitamente.",
		PriceCents:  18000,
		Commerce:    domain.CommerceSale,
		Kind:        domain.KindProduct,
		Status:      domain.ListingStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestListingCreate(t *testing.T) {
	listings := newFakeListingRepo()
	categories := newFakeCategoryRepo(domain.Category{ID: "cat-1", Name: "Eletrodomésticos", Slug: "eletrodomesticos"})
	events := &fakeEventPublisher{}
	created := 0
	svc := NewListingService(listings, categories, NewGate(), events).
		WithObservers(func() { created++ }, nil)

	listing, err := svc.Create(context.Background(), activeAffiliate("id-1"), validCreateInput("cat-1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if listing.Status != domain.ListingStatusActive {
		t.Fatalf("new listing status = %s", listing.Status)
	}
	if listing.OwnerID != "id-1" {
		t.Fatalf("owner = %s", listing.OwnerID)
	}
	if listing.Views != 0 {
		t.Fatalf("views = %d", listing.Views)
	}
	if len(events.created) != 1 || events.created[0].ListingID != listing.ID {
		t.Fatalf("expected one created event, got %+v", events.created)
	}
	if created != 1 {
		t.Fatalf("observer fired %d times", created)
	}
}

func TestListingCreatePermission(t *testing.T) {
	listings := newFakeListingRepo()
	categories := newFakeCategoryRepo(domain.Category{ID: "cat-1", Slug: "c"})
	svc := NewListingService(listings, categories, NewGate(), &fakeEventPublisher{})

	visitor := &domain.Identity{ID: "v-1", Membership: domain.MembershipVisitor, Status: domain.IdentityStatusActive}
	if _, err := svc.Create(context.Background(), visitor, validCreateInput("cat-1")); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("visitor create err = %v", err)
	}

	suspended := &domain.Identity{ID: "s-1", Membership: domain.MembershipAffiliate, Status: domain.IdentityStatusSuspended}
	if _, err := svc.Create(context.Background(), suspended, validCreateInput("cat-1")); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("suspended create err = %v", err)
	}
}

func TestListingCreateUnknownCategory(t *testing.T) {
	svc := NewListingService(newFakeListingRepo(), newFakeCategoryRepo(), NewGate(), &fakeEventPublisher{})

	_, err := svc.Create(context.Background(), activeAffiliate("id-1"), validCreateInput("missing"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestListingUpdateOwnership(t *testing.T) {
	listings := newFakeListingRepo(activeListing("l-1", "owner-1"))
	categories := newFakeCategoryRepo(domain.Category{ID: "cat-1", Slug: "c"})
	svc := NewListingService(listings, categories, NewGate(), &fakeEventPublisher{})

	title := "Novo título"
	if _, err := svc.Update(context.Background(), activeAffiliate("other"), "l-1", UpdateListingInput{Title: &title}); !errors.Is(err, ErrNotListingOwner) {
		t.Fatalf("stranger update err = %v", err)
	}

	suspended := &domain.Identity{ID: "owner-1", Membership: domain.MembershipAffiliate, Status: domain.IdentityStatusSuspended}
	if _, err := svc.Update(context.Background(), suspended, "l-1", UpdateListingInput{Title: &title}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("suspended owner update err = %v", err)
	}

	updated, err := svc.Update(context.Background(), activeAffiliate("owner-1"), "l-1", UpdateListingInput{Title: &title})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != "Novo título" {
		t.Fatalf("title = %q", updated.Title)
	}
}

func TestListingUpdateNotEditable(t *testing.T) {
	sold := activeListing("l-1", "owner-1")
	sold.Status = domain.ListingStatusSold
	svc := NewListingService(newFakeListingRepo(sold), newFakeCategoryRepo(), NewGate(), &fakeEventPublisher{})

	price := int64(1000)
	if _, err := svc.Update(context.Background(), activeAffiliate("owner-1"), "l-1", UpdateListingInput{PriceCents: &price}); !errors.Is(err, ErrListingNotEditable) {
		t.Fatalf("err = %v, want not editable", err)
	}
}

func TestListingTransitionOwnerSells(t *testing.T) {
	listings := newFakeListingRepo(activeListing("l-1", "owner-1"))
	events := &fakeEventPublisher{}
	var observed []domain.ListingStatus
	svc := NewListingService(listings, newFakeCategoryRepo(), NewGate(), events).
		WithObservers(nil, func(to domain.ListingStatus) { observed = append(observed, to) })

	listing, err := svc.Transition(context.Background(), activeAffiliate("owner-1"), "l-1", domain.ListingStatusSold)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if listing.Status != domain.ListingStatusSold {
		t.Fatalf("status = %s", listing.Status)
	}

	if len(events.statusChanged) != 1 {
		t.Fatalf("expected one status event, got %d", len(events.statusChanged))
	}
	event := events.statusChanged[0]
	if event.FromStatus != domain.ListingStatusActive || event.ToStatus != domain.ListingStatusSold {
		t.Fatalf("event statuses = %s -> %s", event.FromStatus, event.ToStatus)
	}
	if event.Actor != domain.ActorOwner || event.ActorID != "owner-1" {
		t.Fatalf("event actor = %s/%s", event.Actor, event.ActorID)
	}
	if len(observed) != 1 || observed[0] != domain.ListingStatusSold {
		t.Fatalf("observer saw %v", observed)
	}
}

func TestListingTransitionStaleStatus(t *testing.T) {
	listings := newFakeListingRepo(activeListing("l-1", "owner-1"))
	listings.statusResult = false
	svc := NewListingService(listings, newFakeCategoryRepo(), NewGate(), &fakeEventPublisher{})

	if _, err := svc.Transition(context.Background(), activeAffiliate("owner-1"), "l-1", domain.ListingStatusSold); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want invalid transition", err)
	}
	if len(listings.statusCalls) != 1 {
		t.Fatalf("expected conditional update attempt, got %d", len(listings.statusCalls))
	}
}

func TestListingTransitionIllegalTarget(t *testing.T) {
	sold := activeListing("l-1", "owner-1")
	sold.Status = domain.ListingStatusSold
	listings := newFakeListingRepo(sold)
	svc := NewListingService(listings, newFakeCategoryRepo(), NewGate(), &fakeEventPublisher{})

	if _, err := svc.Transition(context.Background(), activeAffiliate("owner-1"), "l-1", domain.ListingStatusActive); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want invalid transition", err)
	}
	if len(listings.statusCalls) != 0 {
		t.Fatal("illegal transition must not reach storage")
	}
}

func TestListingSuspendedOwnerRetracts(t *testing.T) {
	listings := newFakeListingRepo(activeListing("l-1", "owner-1"))
	events := &fakeEventPublisher{}
	svc := NewListingService(listings, newFakeCategoryRepo(), NewGate(), events)

	suspended := &domain.Identity{ID: "owner-1", Membership: domain.MembershipAffiliate, Status: domain.IdentityStatusSuspended}

	if _, err := svc.Transition(context.Background(), suspended, "l-1", domain.ListingStatusReserved); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("suspended owner reserve err = %v", err)
	}

	listing, err := svc.Transition(context.Background(), suspended, "l-1", domain.ListingStatusDeleted)
	if err != nil {
		t.Fatalf("suspended owner retract: %v", err)
	}
	if listing.Status != domain.ListingStatusDeleted {
		t.Fatalf("status = %s", listing.Status)
	}
	if events.statusChanged[0].Actor != domain.ActorOwner {
		t.Fatalf("actor = %s", events.statusChanged[0].Actor)
	}
}

func TestListingAdminRetraction(t *testing.T) {
	listings := newFakeListingRepo(activeListing("l-1", "owner-1"))
	events := &fakeEventPublisher{}
	svc := NewListingService(listings, newFakeCategoryRepo(), NewGate(), events)

	admin := adminIdentity("admin-1")
	if _, err := svc.Transition(context.Background(), admin, "l-1", domain.ListingStatusSold); !errors.Is(err, ErrNotListingOwner) {
		t.Fatalf("admin sell err = %v", err)
	}

	if _, err := svc.Transition(context.Background(), admin, "l-1", domain.ListingStatusDeleted); err != nil {
		t.Fatalf("admin retract: %v", err)
	}
	event := events.statusChanged[0]
	if event.Actor != domain.ActorAdmin || event.ActorID != "admin-1" {
		t.Fatalf("event actor = %s/%s", event.Actor, event.ActorID)
	}
}

func TestListingTransitionDeletedHidden(t *testing.T) {
	gone := activeListing("l-1", "owner-1")
	gone.Status = domain.ListingStatusDeleted
	svc := NewListingService(newFakeListingRepo(gone), newFakeCategoryRepo(), NewGate(), &fakeEventPublisher{})

	if _, err := svc.Transition(context.Background(), activeAffiliate("owner-1"), "l-1", domain.ListingStatusDeleted); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestListingExpireStale(t *testing.T) {
	listings := newFakeListingRepo()
	reserved := activeListing("l-2", "owner-2")
	reserved.Status = domain.ListingStatusReserved
	listings.expired = []domain.Listing{activeListing("l-1", "owner-1"), reserved}
	events := &fakeEventPublisher{}
	svc := NewListingService(listings, newFakeCategoryRepo(), NewGate(), events)

	count, err := svc.ExpireStale(context.Background(), 30*24*time.Hour)
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d", count)
	}
	if len(events.statusChanged) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events.statusChanged))
	}
	for _, event := range events.statusChanged {
		if event.Actor != domain.ActorSystem || event.ActorID != "" {
			t.Fatalf("expiry actor = %s/%q", event.Actor, event.ActorID)
		}
		if event.ToStatus != domain.ListingStatusExpired {
			t.Fatalf("to status = %s", event.ToStatus)
		}
	}
	if events.statusChanged[1].FromStatus != domain.ListingStatusReserved {
		t.Fatalf("from status not preserved: %s", events.statusChanged[1].FromStatus)
	}

	if _, err := svc.ExpireStale(context.Background(), 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero age err = %v", err)
	}
}

func TestListingIncrementViews(t *testing.T) {
	listings := newFakeListingRepo(activeListing("l-1", "owner-1"))
	svc := NewListingService(listings, newFakeCategoryRepo(), NewGate(), &fakeEventPublisher{})

	if err := svc.IncrementViews(context.Background(), "l-1"); err != nil {
		t.Fatalf("IncrementViews: %v", err)
	}
	if len(listings.viewIDs) != 1 || listings.viewIDs[0] != "l-1" {
		t.Fatalf("view ids = %v", listings.viewIDs)
	}

	if err := svc.IncrementViews(context.Background(), "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank id err = %v", err)
	}
}
