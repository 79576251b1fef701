package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/core/port"
	"github.com/ggontijo/campus-market/internal/repository"
	"github.com/ggontijo/campus-market/internal/transport/http/middleware"
	"github.com/ggontijo/campus-market/internal/usecase"
)

// maxUploadBytes caps one multipart image upload request.
const maxUploadBytes = 32 << 20

// ListingHandler serves the listing lifecycle and the public catalog.
type ListingHandler struct {
	listings *usecase.ListingService
	catalog  *usecase.CatalogService
	media    *usecase.MediaService
	store    port.MediaStore
	logger   *zap.Logger
}

// NewListingHandler builds the listing handler.
func NewListingHandler(
	listings *usecase.ListingService,
	catalog *usecase.CatalogService,
	media *usecase.MediaService,
	store port.MediaStore,
	log *zap.Logger,
) *ListingHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ListingHandler{
		listings: listings,
		catalog:  catalog,
		media:    media,
		store:    store,
		logger:   log,
	}
}

var listingErrorCases = []ErrorCase{
	{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "invalid listing data"},
	{Err: usecase.ErrListingNotFound, Status: http.StatusNotFound, Message: "listing not found"},
	{Err: usecase.ErrNotListingOwner, Status: http.StatusForbidden, Message: "caller does not own this listing"},
	{Err: usecase.ErrListingNotEditable, Status: http.StatusConflict, Message: "listing is not editable in its current state"},
	{Err: usecase.ErrInvalidTransition, Status: http.StatusConflict, Message: "status transition not allowed"},
	{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
}

// List answers catalog queries. Anonymous callers see ACTIVE listings only;
// requesting DELETED rows requires the administrative tier.
func (h *ListingHandler) List(c *gin.Context) {
	query := usecase.CatalogQuery{
		CategoryID: c.Query("category_id"),
		Commerce:   domain.CommerceType(c.Query("commerce")),
		Kind:       domain.ListingKind(c.Query("kind")),
		OwnerID:    c.Query("owner_id"),
		SearchText: c.Query("q"),
	}

	if raw := c.Query("status"); raw != "" {
		status := domain.ListingStatus(raw)
		query.Status = &status
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			query.Limit = limit
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			query.Offset = offset
		}
	}

	summaries, err := h.catalog.List(c.Request.Context(), middleware.CurrentIdentity(c), query)
	if err != nil {
		RespondWithMappedError(c, err, listingErrorCases, http.StatusInternalServerError, "catalog query failed")
		return
	}

	payloads := make([]ListingSummaryPayload, 0, len(summaries))
	for _, summary := range summaries {
		payloads = append(payloads, newListingSummaryPayload(summary))
	}

	limit := query.Limit
	if limit <= 0 {
		limit = usecase.DefaultPageSize
	}
	if limit > usecase.MaxPageSize {
		limit = usecase.MaxPageSize
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	c.JSON(http.StatusOK, ListingListResponse{
		Listings: payloads,
		Limit:    limit,
		Offset:   offset,
	})
}

// Get resolves a listing detail view. EXPIRED and DELETED rows stay hidden
// from everyone but the owner and administrators.
func (h *ListingHandler) Get(c *gin.Context) {
	viewer := middleware.CurrentIdentity(c)
	includeInactive := c.Query("include_inactive") == "true"

	listing, err := h.catalog.GetByID(c.Request.Context(), viewer, c.Param("id"), includeInactive)
	if err != nil {
		RespondWithMappedError(c, err, listingErrorCases, http.StatusInternalServerError, "listing lookup failed")
		return
	}

	c.JSON(http.StatusOK, newListingPayload(listing))
}

// Create publishes a new listing owned by the caller.
func (h *ListingHandler) Create(c *gin.Context) {
	var req ListingCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	listing, err := h.listings.Create(c.Request.Context(), middleware.CurrentIdentity(c), usecase.CreateListingInput{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Commerce:    domain.CommerceType(req.Commerce),
		Kind:        domain.ListingKind(req.Kind),
		Location:    req.Location,
	})
	if err != nil {
		RespondWithMappedError(c, err, listingErrorCases, http.StatusInternalServerError, "listing creation failed")
		return
	}

	c.JSON(http.StatusCreated, newListingPayload(listing))
}

// Update applies a field patch to an owned ACTIVE or RESERVED listing.
func (h *ListingHandler) Update(c *gin.Context) {
	var req ListingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	patch := usecase.UpdateListingInput{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Location:    req.Location,
	}
	if req.Commerce != nil {
		commerce := domain.CommerceType(*req.Commerce)
		patch.Commerce = &commerce
	}
	if req.Kind != nil {
		kind := domain.ListingKind(*req.Kind)
		patch.Kind = &kind
	}

	listing, err := h.listings.Update(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), patch)
	if err != nil {
		RespondWithMappedError(c, err, listingErrorCases, http.StatusInternalServerError, "listing update failed")
		return
	}

	c.JSON(http.StatusOK, newListingPayload(listing))
}

// Transition moves the listing through its lifecycle. Retraction to DELETED
// is open to the owner and administrators; owner moves require an ACTIVE
// account.
func (h *ListingHandler) Transition(c *gin.Context) {
	var req ListingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	listing, err := h.listings.Transition(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), domain.ListingStatus(req.Status))
	if err != nil {
		RespondWithMappedError(c, err, listingErrorCases, http.StatusInternalServerError, "status transition failed")
		return
	}

	c.JSON(http.StatusOK, newListingPayload(listing))
}

// RecordView bumps the view counter. Fire-and-forget from the client's
// perspective; deleted listings are silently skipped.
func (h *ListingHandler) RecordView(c *gin.Context) {
	if err := h.listings.IncrementViews(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, listingErrorCases, http.StatusInternalServerError, "view count update failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// AttachImages stores the uploaded files and appends their references to the
// listing. Individual file failures do not abort the batch.
func (h *ListingHandler) AttachImages(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid multipart payload"))
		return
	}

	files := form.File["images"]
	uploads := make([]usecase.MediaUpload, 0, len(files))
	closers := make([]func() error, 0, len(files))
	defer func() {
		for _, closeFn := range closers {
			_ = closeFn()
		}
	}()

	for _, file := range files {
		reader, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unreadable upload"))
			return
		}
		closers = append(closers, reader.Close)
		uploads = append(uploads, usecase.MediaUpload{
			Name:        file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Content:     reader,
		})
	}

	result, err := h.media.Attach(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), uploads)
	if err != nil {
		RespondWithMappedError(c, err, listingErrorCases, http.StatusInternalServerError, "image upload failed")
		return
	}

	resp := AttachImagesResponse{Refs: result.Refs}
	if resp.Refs == nil {
		resp.Refs = []string{}
	}
	for _, failure := range result.Failures {
		resp.Failures = append(resp.Failures, ImageFailure{Name: failure.Name, Error: failure.Err.Error()})
	}

	status := http.StatusOK
	if len(resp.Failures) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, resp)
}

// DetachImage removes a stored image and its reference from the listing.
func (h *ListingHandler) DetachImage(c *gin.Context) {
	err := h.media.Detach(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), c.Param("ref"))
	if err != nil {
		RespondWithMappedError(c, err, listingErrorCases, http.StatusInternalServerError, "image removal failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// ServeImage streams a stored image blob by reference.
func (h *ListingHandler) ServeImage(c *gin.Context) {
	reader, contentType, err := h.store.Open(c.Request.Context(), c.Param("ref"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "image not found"))
			return
		}
		h.logger.Error("image stream failed", zap.String("ref", c.Param("ref")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "image retrieval failed"))
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, contentType, reader, nil)
}
