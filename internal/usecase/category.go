package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/core/port"
	"github.com/ggontijo/campus-market/internal/repository"
)

var (
	// ErrCategoryNotFound indicates the referenced category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrInvalidHierarchy indicates an attempt to nest deeper than one level.
	ErrInvalidHierarchy = errors.New("categories nest at most one level deep")
	// ErrCategoryInUse indicates active listings still reference the category.
	ErrCategoryInUse = errors.New("category is referenced by listings")
	// ErrCategoryHasChildren indicates subcategories still reference the category.
	ErrCategoryHasChildren = errors.New("category still has subcategories")
	// ErrSlugTaken indicates the derived or supplied slug is already in use.
	ErrSlugTaken = errors.New("category slug already in use")
)

// CategoryInput carries caller-supplied category fields. The slug is derived
// from the name when absent.
type CategoryInput struct {
	Name        string
	Description *string
	Slug        string
	ParentID    *string
}

// CategoryService manages the two-level taxonomy. Every mutating operation is
// administrator-only, enforced here at the usecase boundary.
type CategoryService struct {
	categories port.CategoryRepository
	listings   port.ListingRepository
	gate       Gate
}

// NewCategoryService constructs CategoryService.
func NewCategoryService(categories port.CategoryRepository, listings port.ListingRepository, gate Gate) *CategoryService {
	return &CategoryService{categories: categories, listings: listings, gate: gate}
}

// Create adds a category. A parent, when given, must itself be a root.
func (s *CategoryService) Create(ctx context.Context, actor *domain.Identity, input CategoryInput) (*domain.Category, error) {
	if !s.gate.CanAdminister(actor) {
		return nil, ErrPermissionDenied
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = domain.Slugify(name)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: name yields an empty slug", ErrValidation)
	}

	if err := s.ensureSlugFree(ctx, slug, ""); err != nil {
		return nil, err
	}

	parentID, err := s.resolveParent(ctx, input.ParentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	category := domain.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: input.Description,
		Slug:        slug,
		ParentID:    parentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	return &category, nil
}

// Update renames or re-parents a category. A category that already has
// subcategories cannot itself become a subcategory.
func (s *CategoryService) Update(ctx context.Context, actor *domain.Identity, categoryID string, input CategoryInput) (*domain.Category, error) {
	if !s.gate.CanAdminister(actor) {
		return nil, ErrPermissionDenied
	}

	category, err := s.getCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = domain.Slugify(name)
	}
	if slug != category.Slug {
		if err := s.ensureSlugFree(ctx, slug, category.ID); err != nil {
			return nil, err
		}
	}

	parentID, err := s.resolveParent(ctx, input.ParentID)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		if *parentID == category.ID {
			return nil, fmt.Errorf("%w: category cannot parent itself", ErrValidation)
		}
		children, err := s.categories.CountChildren(ctx, category.ID)
		if err != nil {
			return nil, fmt.Errorf("count subcategories: %w", err)
		}
		if children > 0 {
			return nil, ErrInvalidHierarchy
		}
	}

	category.Name = name
	category.Description = input.Description
	category.Slug = slug
	category.ParentID = parentID
	category.UpdatedAt = time.Now().UTC()

	if err := s.categories.Update(ctx, *category); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update category: %w", err)
	}

	return category, nil
}

// Delete removes a category. Deletion is restricted while any non-deleted
// listing references the category or subcategories remain.
func (s *CategoryService) Delete(ctx context.Context, actor *domain.Identity, categoryID string) error {
	if !s.gate.CanAdminister(actor) {
		return ErrPermissionDenied
	}

	category, err := s.getCategory(ctx, categoryID)
	if err != nil {
		return err
	}

	children, err := s.categories.CountChildren(ctx, category.ID)
	if err != nil {
		return fmt.Errorf("count subcategories: %w", err)
	}
	if children > 0 {
		return ErrCategoryHasChildren
	}

	referencing, err := s.listings.CountByCategory(ctx, category.ID, []domain.ListingStatus{
		domain.ListingStatusActive,
		domain.ListingStatusReserved,
		domain.ListingStatusSold,
		domain.ListingStatusExpired,
	})
	if err != nil {
		return fmt.Errorf("count category listings: %w", err)
	}
	if referencing > 0 {
		return ErrCategoryInUse
	}

	if err := s.categories.Delete(ctx, category.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("delete category: %w", err)
	}

	return nil
}

// List returns categories, optionally restricted to the children of a parent.
// Passing a pointer to the empty string returns only roots.
func (s *CategoryService) List(ctx context.Context, parentID *string) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

// ResolveHierarchy returns the category together with its parent, validating
// the one-level nesting invariant on the way.
func (s *CategoryService) ResolveHierarchy(ctx context.Context, categoryID string) (*domain.CategoryHierarchy, error) {
	category, err := s.getCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	hierarchy := &domain.CategoryHierarchy{Self: *category}
	if category.IsRoot() {
		return hierarchy, nil
	}

	parent, err := s.getCategory(ctx, *category.ParentID)
	if err != nil {
		return nil, err
	}
	if !parent.IsRoot() {
		return nil, ErrInvalidHierarchy
	}

	hierarchy.Parent = parent
	return hierarchy, nil
}

func (s *CategoryService) getCategory(ctx context.Context, categoryID string) (*domain.Category, error) {
	if strings.TrimSpace(categoryID) == "" {
		return nil, fmt.Errorf("%w: category id is required", ErrValidation)
	}
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("lookup category: %w", err)
	}
	return category, nil
}

// resolveParent validates that the requested parent exists and is a root.
func (s *CategoryService) resolveParent(ctx context.Context, parentID *string) (*string, error) {
	if parentID == nil || strings.TrimSpace(*parentID) == "" {
		return nil, nil
	}

	parent, err := s.categories.GetByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("lookup parent category: %w", err)
	}
	if !parent.IsRoot() {
		return nil, ErrInvalidHierarchy
	}

	id := parent.ID
	return &id, nil
}

func (s *CategoryService) ensureSlugFree(ctx context.Context, slug, selfID string) error {
	existing, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup slug: %w", err)
	}
	if existing.ID != selfID {
		return ErrSlugTaken
	}
	return nil
}
