package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ggontijo/campus-market/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// IdentitySummary describes the public view of an identity in API responses.
// The password hash never leaves the persistence layer.
type IdentitySummary struct {
	ID             string                `json:"id"`
	Email          string                `json:"email"`
	Name           string                `json:"name"`
	CommercialName *string               `json:"commercial_name,omitempty"`
	Phone          *string               `json:"phone,omitempty"`
	Bio            *string               `json:"bio,omitempty"`
	Membership     domain.MembershipType `json:"membership"`
	Status         domain.IdentityStatus `json:"status"`
	HousingID      *string               `json:"housing_id,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// RegisterRequest defines the account registration payload.
type RegisterRequest struct {
	Email          string  `json:"email" binding:"required"`
	Name           string  `json:"name" binding:"required"`
	CommercialName *string `json:"commercial_name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	TaxID          *string `json:"tax_id,omitempty"`
	Password       string  `json:"password" binding:"required,min=8"`
	Membership     string  `json:"membership"`
	HousingID      *string `json:"housing_id,omitempty"`
}

// RegisterResponse contains registration results and next steps.
type RegisterResponse struct {
	Identity             IdentitySummary `json:"identity"`
	RequiresVerification bool            `json:"requires_verification"`
	Message              string          `json:"message,omitempty"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int             `json:"expires_in"`
	Identity    IdentitySummary `json:"identity"`
}

// ProfileUpdateRequest is the self-service profile patch; absent fields are
// left untouched.
type ProfileUpdateRequest struct {
	Name           *string `json:"name,omitempty"`
	CommercialName *string `json:"commercial_name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	TaxID          *string `json:"tax_id,omitempty"`
	Bio            *string `json:"bio,omitempty"`
	HousingID      *string `json:"housing_id,omitempty"`
}

// IdentityStatusRequest carries the administrative account status change.
type IdentityStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// MembershipRequest carries the administrative tier change.
type MembershipRequest struct {
	Membership string `json:"membership" binding:"required"`
}

// CategoryRequest defines the payload for creating or updating a category.
type CategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
	Slug        string  `json:"slug"`
	ParentID    *string `json:"parent_id,omitempty"`
}

// CategoryPayload summarizes a category entity.
type CategoryPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Slug        string    `json:"slug"`
	ParentID    *string   `json:"parent_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryListResponse wraps multiple categories.
type CategoryListResponse struct {
	Categories []CategoryPayload `json:"categories"`
}

// CategoryHierarchyResponse returns a category with its resolved parent.
type CategoryHierarchyResponse struct {
	Category CategoryPayload  `json:"category"`
	Parent   *CategoryPayload `json:"parent,omitempty"`
}

// ListingCreateRequest defines the payload for publishing a listing.
type ListingCreateRequest struct {
	CategoryID  string `json:"category_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	PriceCents  int64  `json:"price_cents"`
	Commerce    string `json:"commerce" binding:"required"`
	Kind        string `json:"kind" binding:"required"`
	Location    string `json:"location"`
}

// ListingUpdateRequest is a partial listing patch; absent fields are left
// untouched.
type ListingUpdateRequest struct {
	CategoryID  *string `json:"category_id,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty"`
	Commerce    *string `json:"commerce,omitempty"`
	Kind        *string `json:"kind,omitempty"`
	Location    *string `json:"location,omitempty"`
}

// ListingStatusRequest carries a lifecycle transition target.
type ListingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListingPayload is the full detail view of a listing.
type ListingPayload struct {
	ID           string               `json:"id"`
	OwnerID      string               `json:"owner_id"`
	CategoryID   string               `json:"category_id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	PriceCents   int64                `json:"price_cents"`
	DisplayPrice string               `json:"display_price"`
	Commerce     domain.CommerceType  `json:"commerce"`
	Kind         domain.ListingKind   `json:"kind"`
	Status       domain.ListingStatus `json:"status"`
	ImageRefs    []string             `json:"image_refs"`
	Location     string               `json:"location,omitempty"`
	Views        int64                `json:"views"`
	PostedAt     string               `json:"posted_at"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// ListingSummaryPayload is a catalog row joining owner and category names.
type ListingSummaryPayload struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	PriceCents   int64                `json:"price_cents"`
	DisplayPrice string               `json:"display_price"`
	Commerce     domain.CommerceType  `json:"commerce"`
	Kind         domain.ListingKind   `json:"kind"`
	Status       domain.ListingStatus `json:"status"`
	Location     string               `json:"location,omitempty"`
	CoverImage   string               `json:"cover_image,omitempty"`
	Views        int64                `json:"views"`
	OwnerID      string               `json:"owner_id"`
	OwnerName    string               `json:"owner_name"`
	CategoryID   string               `json:"category_id"`
	CategoryName string               `json:"category_name"`
	PostedAt     string               `json:"posted_at"`
	CreatedAt    time.Time            `json:"created_at"`
}

// ListingListResponse wraps a catalog page.
type ListingListResponse struct {
	Listings []ListingSummaryPayload `json:"listings"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
}

// ImageFailure reports one file of an upload batch that could not be stored.
type ImageFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// AttachImagesResponse reports stored references and per-file failures.
type AttachImagesResponse struct {
	Refs     []string       `json:"refs"`
	Failures []ImageFailure `json:"failures,omitempty"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// newIdentitySummary converts a domain identity to its API view.
func newIdentitySummary(identity *domain.Identity) IdentitySummary {
	if identity == nil {
		return IdentitySummary{}
	}
	return IdentitySummary{
		ID:             identity.ID,
		Email:          identity.Email,
		Name:           identity.Name,
		CommercialName: identity.CommercialName,
		Phone:          identity.Phone,
		Bio:            identity.Bio,
		Membership:     identity.Membership,
		Status:         identity.Status,
		HousingID:      identity.HousingID,
		CreatedAt:      identity.CreatedAt,
	}
}

// newCategoryPayload converts a domain category to its API view.
func newCategoryPayload(category domain.Category) CategoryPayload {
	return CategoryPayload{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		Slug:        category.Slug,
		ParentID:    category.ParentID,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}

// newListingPayload converts a domain listing to its detail view.
func newListingPayload(listing *domain.Listing) ListingPayload {
	if listing == nil {
		return ListingPayload{}
	}

	refs := listing.ImageRefs
	if refs == nil {
		refs = []string{}
	}

	return ListingPayload{
		ID:           listing.ID,
		OwnerID:      listing.OwnerID,
		CategoryID:   listing.CategoryID,
		Title:        listing.Title,
		Description:  listing.Description,
		PriceCents:   listing.PriceCents,
		DisplayPrice: listing.FormatPrice(),
		Commerce:     listing.Commerce,
		Kind:         listing.Kind,
		Status:       listing.Status,
		ImageRefs:    refs,
		Location:     listing.Location,
		Views:        listing.Views,
		PostedAt:     listing.FormatDate(),
		CreatedAt:    listing.CreatedAt,
		UpdatedAt:    listing.UpdatedAt,
	}
}

// newListingSummaryPayload converts a catalog projection to its API view.
func newListingSummaryPayload(summary domain.ListingSummary) ListingSummaryPayload {
	return ListingSummaryPayload{
		ID:           summary.ID,
		Title:        summary.Title,
		PriceCents:   summary.PriceCents,
		DisplayPrice: summary.FormatPrice(),
		Commerce:     summary.Commerce,
		Kind:         summary.Kind,
		Status:       summary.Status,
		Location:     summary.Location,
		CoverImage:   summary.CoverImage,
		Views:        summary.Views,
		OwnerID:      summary.OwnerID,
		OwnerName:    summary.OwnerName,
		CategoryID:   summary.CategoryID,
		CategoryName: summary.CategoryName,
		PostedAt:     summary.CreatedAt.Format("02/01/2006"),
		CreatedAt:    summary.CreatedAt,
	}
}
