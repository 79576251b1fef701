package domain

import "time"

// MembershipType enumerates the standing tiers that govern listing privileges.
type MembershipType string

const (
	MembershipVisitor   MembershipType = "VISITOR"
	MembershipAffiliate MembershipType = "AFFILIATE"
	MembershipResident  MembershipType = "RESIDENT"
	MembershipAdmin     MembershipType = "ADMIN"
)

// Valid reports whether the membership type is one of the known tiers.
func (m MembershipType) Valid() bool {
	switch m {
	case MembershipVisitor, MembershipAffiliate, MembershipResident, MembershipAdmin:
		return true
	}
	return false
}

// IdentityStatus enumerates possible account states. Membership type and
// status are independent axes: a RESIDENT can be SUSPENDED.
type IdentityStatus string

const (
	IdentityStatusPending   IdentityStatus = "PENDING_VERIFICATION"
	IdentityStatusActive    IdentityStatus = "ACTIVE"
	IdentityStatusSuspended IdentityStatus = "SUSPENDED"
	IdentityStatusBlocked   IdentityStatus = "BLOCKED"
)

// Valid reports whether the status is one of the known account states.
func (s IdentityStatus) Valid() bool {
	switch s {
	case IdentityStatusPending, IdentityStatusActive, IdentityStatusSuspended, IdentityStatusBlocked:
		return true
	}
	return false
}

// Identity mirrors the persisted representation in the identities table.
// Accounts are never physically deleted; deactivation is a status change.
type Identity struct {
	ID             string
	Email          string
	Name           string
	CommercialName *string
	Phone          *string
	TaxID          *string
	Bio            *string
	PasswordHash   string
	PasswordAlgo   string
	Membership     MembershipType
	Status         IdentityStatus
	HousingID      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive reports whether the account may act at all.
func (i *Identity) IsActive() bool {
	return i != nil && i.Status == IdentityStatusActive
}

// IsAdmin reports whether the identity holds the administrative tier.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Membership == MembershipAdmin
}

// DisplayName prefers the commercial name over the personal one when set.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.CommercialName != nil && *i.CommercialName != "" {
		return *i.CommercialName
	}
	return i.Name
}
