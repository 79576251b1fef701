package domain

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name  string
		from  ListingStatus
		to    ListingStatus
		actor TransitionActor
		want  bool
	}{
		{"owner sells active", ListingStatusActive, ListingStatusSold, ActorOwner, true},
		{"owner reserves active", ListingStatusActive, ListingStatusReserved, ActorOwner, true},
		{"owner releases reservation", ListingStatusReserved, ListingStatusActive, ActorOwner, true},
		{"owner sells reserved", ListingStatusReserved, ListingStatusSold, ActorOwner, true},
		{"owner retracts sold", ListingStatusSold, ListingStatusDeleted, ActorOwner, true},
		{"admin retracts expired", ListingStatusExpired, ListingStatusDeleted, ActorAdmin, true},
		{"system expires active", ListingStatusActive, ListingStatusExpired, ActorSystem, true},
		{"system expires reserved", ListingStatusReserved, ListingStatusExpired, ActorSystem, true},
		{"owner cannot expire", ListingStatusActive, ListingStatusExpired, ActorOwner, false},
		{"sold is terminal for sales", ListingStatusSold, ListingStatusActive, ActorOwner, false},
		{"expired cannot reactivate", ListingStatusExpired, ListingStatusActive, ActorOwner, false},
		{"deleted is terminal", ListingStatusDeleted, ListingStatusActive, ActorAdmin, false},
		{"admin cannot sell", ListingStatusActive, ListingStatusSold, ActorAdmin, false},
		{"system cannot delete", ListingStatusActive, ListingStatusDeleted, ActorSystem, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to, tc.actor); got != tc.want {
				t.Fatalf("CanTransition(%s, %s, %s) = %v, want %v", tc.from, tc.to, tc.actor, got, tc.want)
			}
		})
	}
}

func TestTransitionSources(t *testing.T) {
	sources := TransitionSources(ListingStatusSold, ActorOwner)
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources for owner -> SOLD, got %v", sources)
	}
	seen := map[ListingStatus]bool{}
	for _, s := range sources {
		seen[s] = true
	}
	if !seen[ListingStatusActive] || !seen[ListingStatusReserved] {
		t.Fatalf("unexpected sources %v", sources)
	}

	if got := TransitionSources(ListingStatusExpired, ActorOwner); len(got) != 0 {
		t.Fatalf("owner must not reach EXPIRED, got sources %v", got)
	}

	deleted := TransitionSources(ListingStatusDeleted, ActorAdmin)
	if len(deleted) != 4 {
		t.Fatalf("expected 4 sources for admin retraction, got %v", deleted)
	}
}

func TestFormatBRL(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "R$ 0,00"},
		{5, "R$ 0,05"},
		{100, "R$ 1,00"},
		{123456, "R$ 1.234,56"},
		{100000000, "R$ 1.000.000,00"},
		{-2550, "-R$ 25,50"},
	}

	for _, tc := range cases {
		if got := FormatBRL(tc.cents); got != tc.want {
			t.Errorf("FormatBRL(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	donation := Listing{Commerce: CommerceDonation, PriceCents: 9999}
	if got := donation.FormatPrice(); got != "Doação" {
		t.Fatalf("donation price = %q", got)
	}

	exchange := Listing{Commerce: CommerceExchange}
	if got := exchange.FormatPrice(); got != "Troca" {
		t.Fatalf("exchange price = %q", got)
	}

	sale := Listing{Commerce: CommerceSale, PriceCents: 123456}
	if got := sale.FormatPrice(); got != "R$ 1.234,56" {
		t.Fatalf("sale price = %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	listing := Listing{CreatedAt: time.Date(2026, 3, 7, 15, 4, 5, 0, time.UTC)}
	if got := listing.FormatDate(); got != "07/03/2026" {
		t.Fatalf("FormatDate = %q", got)
	}
}

func TestListingHelpers(t *testing.T) {
	listing := &Listing{OwnerID: "owner-1", Status: ListingStatusReserved, ImageRefs: []string{"a", "b"}}

	if !listing.Editable() {
		t.Fatal("reserved listing should be editable")
	}
	if !listing.OwnedBy("owner-1") {
		t.Fatal("ownership check failed")
	}
	if listing.OwnedBy("") {
		t.Fatal("empty identity must not own anything")
	}
	if got := listing.CoverImage(); got != "a" {
		t.Fatalf("cover image = %q", got)
	}

	sold := &Listing{Status: ListingStatusSold}
	if sold.Editable() {
		t.Fatal("sold listing must not be editable")
	}
	if (&Listing{}).CoverImage() != "" {
		t.Fatal("expected empty cover for no images")
	}
}
