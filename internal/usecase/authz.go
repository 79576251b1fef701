package usecase

import (
	"errors"

	"github.com/ggontijo/campus-market/internal/core/domain"
)

// ErrPermissionDenied indicates the caller lacks permission for the operation.
var ErrPermissionDenied = errors.New("insufficient permissions")

// Gate centralizes the authorization rules between identities and listings.
// It is stateless; decisions depend only on the arguments.
type Gate struct{}

// NewGate constructs the authorization gate.
func NewGate() Gate {
	return Gate{}
}

// CanCreateListing reports whether the identity may publish new listings:
// the account must be ACTIVE and hold the AFFILIATE or RESIDENT tier.
// Visitors and unverified or suspended accounts are rejected.
func (Gate) CanCreateListing(identity *domain.Identity) bool {
	if !identity.IsActive() {
		return false
	}
	return identity.Membership == domain.MembershipAffiliate || identity.Membership == domain.MembershipResident
}

// CanMutateListing reports whether the identity may edit the listing or move
// it through owner transitions. Ownership is required regardless of tier;
// a SUSPENDED owner keeps retraction rights only (see CanRetractListing).
func (Gate) CanMutateListing(identity *domain.Identity, listing *domain.Listing) bool {
	if identity == nil || listing == nil {
		return false
	}
	if !listing.OwnedBy(identity.ID) {
		return false
	}
	return identity.Status == domain.IdentityStatusActive
}

// CanRetractListing reports whether the identity may soft delete the listing.
// Owners keep this right while SUSPENDED; administrators may retract any
// listing.
func (Gate) CanRetractListing(identity *domain.Identity, listing *domain.Listing) bool {
	if identity == nil || listing == nil {
		return false
	}
	if identity.IsAdmin() {
		return true
	}
	if !listing.OwnedBy(identity.ID) {
		return false
	}
	return identity.Status == domain.IdentityStatusActive || identity.Status == domain.IdentityStatusSuspended
}

// CanAdminister reports whether the identity holds administrative rights.
// Administrators bypass ownership for deletes and manage the taxonomy; they
// never create listings on behalf of another identity.
func (Gate) CanAdminister(identity *domain.Identity) bool {
	return identity.IsAdmin()
}
