package domain

import (
	"fmt"
	"strings"
	"time"
)

// ListingStatus enumerates lifecycle states of a listing.
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "ACTIVE"
	ListingStatusSold     ListingStatus = "SOLD"
	ListingStatusReserved ListingStatus = "RESERVED"
	ListingStatusExpired  ListingStatus = "EXPIRED"
	ListingStatusDeleted  ListingStatus = "DELETED"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingStatusActive, ListingStatusSold, ListingStatusReserved, ListingStatusExpired, ListingStatusDeleted:
		return true
	}
	return false
}

// CommerceType describes the transactional nature of a listing.
type CommerceType string

const (
	CommerceSale     CommerceType = "SALE"
	CommerceRent     CommerceType = "RENT"
	CommerceDonation CommerceType = "DONATION"
	CommerceExchange CommerceType = "EXCHANGE"
)

// Valid reports whether the commerce type is one of the known kinds.
func (t CommerceType) Valid() bool {
	switch t {
	case CommerceSale, CommerceRent, CommerceDonation, CommerceExchange:
		return true
	}
	return false
}

// ListingKind separates physical products from offered services.
type ListingKind string

const (
	KindProduct ListingKind = "PRODUCT"
	KindService ListingKind = "SERVICE"
)

// Valid reports whether the kind is one of the known values.
func (k ListingKind) Valid() bool {
	return k == KindProduct || k == KindService
}

// TransitionActor identifies who requests a status transition.
type TransitionActor string

const (
	ActorOwner  TransitionActor = "owner"
	ActorAdmin  TransitionActor = "admin"
	ActorSystem TransitionActor = "system"
)

// Listing is a single marketplace offer owned by exactly one identity.
// Ownership never transfers. Views only grow through the dedicated
// increment operation.
type Listing struct {
	ID          string
	OwnerID     string
	CategoryID  string
	Title       string
	Description string
	PriceCents  int64
	Commerce    CommerceType
	Kind        ListingKind
	Status      ListingStatus
	ImageRefs   []string
	Location    string
	Views       int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type transitionKey struct {
	from ListingStatus
	to   ListingStatus
}

// transitionTable is the complete set of legal status transitions keyed by
// (from, to), mapped to the actors allowed to request each one. Anything not
// present here is illegal, which makes SOLD, EXPIRED, and DELETED effectively
// terminal apart from retraction into DELETED.
var transitionTable = map[transitionKey][]TransitionActor{
	{ListingStatusActive, ListingStatusSold}:       {ActorOwner},
	{ListingStatusActive, ListingStatusReserved}:   {ActorOwner},
	{ListingStatusReserved, ListingStatusActive}:   {ActorOwner},
	{ListingStatusReserved, ListingStatusSold}:     {ActorOwner},
	{ListingStatusActive, ListingStatusExpired}:    {ActorSystem},
	{ListingStatusReserved, ListingStatusExpired}:  {ActorSystem},
	{ListingStatusActive, ListingStatusDeleted}:    {ActorOwner, ActorAdmin},
	{ListingStatusReserved, ListingStatusDeleted}:  {ActorOwner, ActorAdmin},
	{ListingStatusSold, ListingStatusDeleted}:      {ActorOwner, ActorAdmin},
	{ListingStatusExpired, ListingStatusDeleted}:   {ActorOwner, ActorAdmin},
}

// CanTransition reports whether the actor may move a listing from one status
// to another according to the lifecycle table.
func CanTransition(from, to ListingStatus, actor TransitionActor) bool {
	actors, ok := transitionTable[transitionKey{from: from, to: to}]
	if !ok {
		return false
	}
	for _, a := range actors {
		if a == actor {
			return true
		}
	}
	return false
}

// TransitionSources returns every status from which the actor may legally
// reach the target. Used to build conditional updates against the persisted
// status.
func TransitionSources(to ListingStatus, actor TransitionActor) []ListingStatus {
	sources := make([]ListingStatus, 0, 4)
	for key, actors := range transitionTable {
		if key.to != to {
			continue
		}
		for _, a := range actors {
			if a == actor {
				sources = append(sources, key.from)
				break
			}
		}
	}
	return sources
}

// IsActive reports whether the listing is currently offered.
func (l *Listing) IsActive() bool {
	return l != nil && l.Status == ListingStatusActive
}

// Editable reports whether field edits are allowed in the current state.
func (l *Listing) Editable() bool {
	return l != nil && (l.Status == ListingStatusActive || l.Status == ListingStatusReserved)
}

// OwnedBy reports whether the given identity id owns the listing.
func (l *Listing) OwnedBy(identityID string) bool {
	return l != nil && identityID != "" && l.OwnerID == identityID
}

// CoverImage returns the first image reference, the canonical cover.
func (l *Listing) CoverImage() string {
	if l == nil || len(l.ImageRefs) == 0 {
		return ""
	}
	return l.ImageRefs[0]
}

const (
	donationLabel = "Doação"
	exchangeLabel = "Troca"
)

// FormatPrice renders the display price. Donations and exchanges show a
// literal label instead of currency; the stored amount is left untouched.
func (l *Listing) FormatPrice() string {
	switch l.Commerce {
	case CommerceDonation:
		return donationLabel
	case CommerceExchange:
		return exchangeLabel
	}
	return FormatBRL(l.PriceCents)
}

// FormatDate renders the creation date as dd/mm/yyyy.
func (l *Listing) FormatDate() string {
	return l.CreatedAt.Format("02/01/2006")
}

// FormatBRL formats an amount of centavos as Brazilian currency,
// e.g. 123456 -> "R$ 1.234,56".
func FormatBRL(cents int64) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}

	reais := cents / 100
	remainder := cents % 100

	digits := fmt.Sprintf("%d", reais)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(d)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped.String(), remainder)
}

// ListingSummary is the denormalized catalog projection joining owner and
// category display names. It is read-only and never independently mutable.
type ListingSummary struct {
	ID           string
	Title        string
	PriceCents   int64
	Commerce     CommerceType
	Kind         ListingKind
	Status       ListingStatus
	Location     string
	CoverImage   string
	Views        int64
	OwnerID      string
	OwnerName    string
	CategoryID   string
	CategoryName string
	CreatedAt    time.Time
}

// FormatPrice mirrors Listing.FormatPrice for catalog rows.
func (s *ListingSummary) FormatPrice() string {
	switch s.Commerce {
	case CommerceDonation:
		return donationLabel
	case CommerceExchange:
		return exchangeLabel
	}
	return FormatBRL(s.PriceCents)
}
