package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/core/port"
	"github.com/ggontijo/campus-market/internal/repository"
)

// DefaultMaxImages bounds how many image references a listing may carry.
const DefaultMaxImages = 10

// MediaUpload is one inbound file in an attach batch.
type MediaUpload struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// MediaFailure records a single file that could not be stored. Other files in
// the same batch are unaffected.
type MediaFailure struct {
	Name string
	Err  error
}

// AttachResult reports the references stored for a batch, in supplied order,
// alongside per-file failures.
type AttachResult struct {
	Refs     []string
	Failures []MediaFailure
}

// MediaService associates stored image blobs with listings. Reference order
// is preserved exactly as supplied; the first reference is the cover image.
type MediaService struct {
	store     port.MediaStore
	listings  port.ListingRepository
	gate      Gate
	maxImages int
	logger    *zap.Logger
	now       func() time.Time
}

// NewMediaService constructs MediaService. maxImages <= 0 falls back to the
// default cap.
func NewMediaService(store port.MediaStore, listings port.ListingRepository, gate Gate, maxImages int) *MediaService {
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	return &MediaService{
		store:     store,
		listings:  listings,
		gate:      gate,
		maxImages: maxImages,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
}

// WithLogger attaches a structured logger for per-file upload failures.
func (s *MediaService) WithLogger(logger *zap.Logger) *MediaService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Attach stores each file independently and appends the successful references
// to the listing. A failed file never aborts the batch; the caller receives
// the successes plus the individual failures.
func (s *MediaService) Attach(ctx context.Context, actor *domain.Identity, listingID string, uploads []MediaUpload) (*AttachResult, error) {
	listing, err := s.mutableListing(ctx, actor, listingID)
	if err != nil {
		return nil, err
	}

	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: no files supplied", ErrValidation)
	}
	if len(listing.ImageRefs)+len(uploads) > s.maxImages {
		return nil, fmt.Errorf("%w: listing may carry at most %d images", ErrValidation, s.maxImages)
	}

	result := &AttachResult{}
	for _, upload := range uploads {
		name := objectName(s.now().UTC(), upload.Name)
		ref, err := s.store.Put(ctx, name, upload.ContentType, upload.Content)
		if err != nil {
			s.logger.Warn("image upload failed",
				zap.String("listing_id", listing.ID),
				zap.String("file", upload.Name),
				zap.Error(err),
			)
			result.Failures = append(result.Failures, MediaFailure{Name: upload.Name, Err: err})
			continue
		}
		result.Refs = append(result.Refs, ref)
	}

	if len(result.Refs) == 0 {
		return result, nil
	}

	refs := append(append([]string{}, listing.ImageRefs...), result.Refs...)
	if err := s.listings.SetImageRefs(ctx, listing.ID, refs); err != nil {
		return result, fmt.Errorf("store image refs: %w", err)
	}

	return result, nil
}

// Detach removes a stored image and drops its reference from the listing.
// Detaching a reference that is already gone is not an error.
func (s *MediaService) Detach(ctx context.Context, actor *domain.Identity, listingID, ref string) error {
	listing, err := s.mutableListing(ctx, actor, listingID)
	if err != nil {
		return err
	}

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return fmt.Errorf("%w: image reference is required", ErrValidation)
	}

	if err := s.store.Remove(ctx, ref); err != nil {
		return fmt.Errorf("remove image: %w", err)
	}

	refs := make([]string, 0, len(listing.ImageRefs))
	removed := false
	for _, existing := range listing.ImageRefs {
		if existing == ref {
			removed = true
			continue
		}
		refs = append(refs, existing)
	}
	if !removed {
		return nil
	}

	if err := s.listings.SetImageRefs(ctx, listing.ID, refs); err != nil {
		return fmt.Errorf("store image refs: %w", err)
	}
	return nil
}

func (s *MediaService) mutableListing(ctx context.Context, actor *domain.Identity, listingID string) (*domain.Listing, error) {
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
	if listing.Status == domain.ListingStatusDeleted {
		return nil, ErrListingNotFound
	}
	if !listing.OwnedBy(actorID(actor)) {
		return nil, ErrNotListingOwner
	}
	if !s.gate.CanMutateListing(actor, listing) {
		return nil, ErrPermissionDenied
	}
	if !listing.Editable() {
		return nil, ErrListingNotEditable
	}
	return listing, nil
}

// objectName derives a collision-resistant storage name: upload instant in
// unix milliseconds plus the sanitized original file name.
func objectName(at time.Time, original string) string {
	name := strings.TrimSpace(original)
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
	if name == "" {
		name = "upload"
	}
	return fmt.Sprintf("%d-%s", at.UnixMilli(), name)
}
