package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/core/port"
	"github.com/ggontijo/campus-market/internal/repository"
)

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[string]domain.Listing

	createErr    error
	updateErr    error
	statusResult bool
	statusErr    error
	statusCalls  []statusCall

	summaries   []domain.ListingSummary
	lastFilter  port.ListingFilter
	categoryUse int
	expired     []domain.Listing

	viewIDs  []string
	refCalls map[string][]string
}

type statusCall struct {
	id      string
	sources []domain.ListingStatus
	target  domain.ListingStatus
}

func newFakeListingRepo(listings ...domain.Listing) *fakeListingRepo {
	repo := &fakeListingRepo{
		listings:     make(map[string]domain.Listing),
		refCalls:     make(map[string][]string),
		statusResult: true,
	}
	for _, l := range listings {
		repo.listings[l.ID] = l
	}
	return repo
}

func (f *fakeListingRepo) Create(_ context.Context, listing domain.Listing) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings[listing.ID] = listing
	return nil
}

func (f *fakeListingRepo) GetByID(_ context.Context, id string) (*domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	listing, ok := f.listings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := listing
	return &copied, nil
}

func (f *fakeListingRepo) Update(_ context.Context, listing domain.Listing) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.listings[listing.ID]; !ok {
		return repository.ErrNotFound
	}
	f.listings[listing.ID] = listing
	return nil
}

func (f *fakeListingRepo) UpdateStatus(_ context.Context, id string, sources []domain.ListingStatus, target domain.ListingStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, statusCall{id: id, sources: sources, target: target})
	if f.statusErr != nil {
		return false, f.statusErr
	}
	if f.statusResult {
		if listing, ok := f.listings[id]; ok {
			listing.Status = target
			f.listings[id] = listing
		}
	}
	return f.statusResult, nil
}

func (f *fakeListingRepo) IncrementViews(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewIDs = append(f.viewIDs, id)
	if listing, ok := f.listings[id]; ok && listing.Status != domain.ListingStatusDeleted {
		listing.Views++
		f.listings[id] = listing
	}
	return nil
}

func (f *fakeListingRepo) SetImageRefs(_ context.Context, id string, refs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	listing, ok := f.listings[id]
	if !ok {
		return repository.ErrNotFound
	}
	listing.ImageRefs = refs
	f.listings[id] = listing
	f.refCalls[id] = refs
	return nil
}

func (f *fakeListingRepo) List(_ context.Context, filter port.ListingFilter) ([]domain.ListingSummary, error) {
	f.lastFilter = filter
	return f.summaries, nil
}

func (f *fakeListingRepo) CountByCategory(_ context.Context, _ string, _ []domain.ListingStatus) (int, error) {
	return f.categoryUse, nil
}

func (f *fakeListingRepo) ExpireBefore(_ context.Context, _ time.Time) ([]domain.Listing, error) {
	return f.expired, nil
}

type fakeCategoryRepo struct {
	categories map[string]domain.Category
	bySlug     map[string]domain.Category
	children   map[string]int
	deleted    []string
}

func newFakeCategoryRepo(categories ...domain.Category) *fakeCategoryRepo {
	repo := &fakeCategoryRepo{
		categories: make(map[string]domain.Category),
		bySlug:     make(map[string]domain.Category),
		children:   make(map[string]int),
	}
	for _, c := range categories {
		repo.categories[c.ID] = c
		repo.bySlug[c.Slug] = c
	}
	return repo
}

func (f *fakeCategoryRepo) Create(_ context.Context, category domain.Category) error {
	f.categories[category.ID] = category
	f.bySlug[category.Slug] = category
	return nil
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := f.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := category
	return &copied, nil
}

func (f *fakeCategoryRepo) GetBySlug(_ context.Context, slug string) (*domain.Category, error) {
	category, ok := f.bySlug[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := category
	return &copied, nil
}

func (f *fakeCategoryRepo) List(_ context.Context, parentID *string) ([]domain.Category, error) {
	var out []domain.Category
	for _, category := range f.categories {
		switch {
		case parentID == nil:
			out = append(out, category)
		case *parentID == "":
			if category.ParentID == nil || *category.ParentID == "" {
				out = append(out, category)
			}
		default:
			if category.ParentID != nil && *category.ParentID == *parentID {
				out = append(out, category)
			}
		}
	}
	return out, nil
}

func (f *fakeCategoryRepo) Update(_ context.Context, category domain.Category) error {
	if _, ok := f.categories[category.ID]; !ok {
		return repository.ErrNotFound
	}
	f.categories[category.ID] = category
	f.bySlug[category.Slug] = category
	return nil
}

func (f *fakeCategoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.categories, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCategoryRepo) CountChildren(_ context.Context, id string) (int, error) {
	return f.children[id], nil
}

type fakeIdentityRepo struct {
	identities map[string]domain.Identity
	byEmail    map[string]domain.Identity
}

func newFakeIdentityRepo(identities ...domain.Identity) *fakeIdentityRepo {
	repo := &fakeIdentityRepo{
		identities: make(map[string]domain.Identity),
		byEmail:    make(map[string]domain.Identity),
	}
	for _, i := range identities {
		repo.identities[i.ID] = i
		repo.byEmail[i.Email] = i
	}
	return repo
}

func (f *fakeIdentityRepo) Create(_ context.Context, identity domain.Identity) error {
	f.identities[identity.ID] = identity
	f.byEmail[identity.Email] = identity
	return nil
}

func (f *fakeIdentityRepo) GetByID(_ context.Context, id string) (*domain.Identity, error) {
	identity, ok := f.identities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := identity
	return &copied, nil
}

func (f *fakeIdentityRepo) GetByEmail(_ context.Context, email string) (*domain.Identity, error) {
	identity, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := identity
	return &copied, nil
}

func (f *fakeIdentityRepo) Update(_ context.Context, identity domain.Identity) error {
	if _, ok := f.identities[identity.ID]; !ok {
		return repository.ErrNotFound
	}
	f.identities[identity.ID] = identity
	f.byEmail[identity.Email] = identity
	return nil
}

func (f *fakeIdentityRepo) UpdateStatus(_ context.Context, id string, status domain.IdentityStatus) error {
	identity, ok := f.identities[id]
	if !ok {
		return repository.ErrNotFound
	}
	identity.Status = status
	f.identities[id] = identity
	f.byEmail[identity.Email] = identity
	return nil
}

type fakeEventPublisher struct {
	mu            sync.Mutex
	registered    []domain.IdentityRegisteredEvent
	created       []domain.ListingCreatedEvent
	statusChanged []domain.ListingStatusChangedEvent
}

func (f *fakeEventPublisher) PublishIdentityRegistered(_ context.Context, event domain.IdentityRegisteredEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, event)
	return nil
}

func (f *fakeEventPublisher) PublishListingCreated(_ context.Context, event domain.ListingCreatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, event)
	return nil
}

func (f *fakeEventPublisher) PublishListingStatusChanged(_ context.Context, event domain.ListingStatusChangedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusChanged = append(f.statusChanged, event)
	return nil
}

type fakeMediaStore struct {
	putRefs   []string
	failNames map[string]error
	removed   []string
	removeErr error
	nextRef   int
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{failNames: make(map[string]error)}
}

func (f *fakeMediaStore) Put(_ context.Context, name, _ string, _ io.Reader) (string, error) {
	for pattern, err := range f.failNames {
		if pattern != "" && strings.Contains(name, pattern) {
			return "", err
		}
	}
	f.nextRef++
	ref := fmt.Sprintf("img-%d", f.nextRef)
	f.putRefs = append(f.putRefs, ref)
	return ref, nil
}

func (f *fakeMediaStore) Open(_ context.Context, _ string) (io.ReadCloser, string, error) {
	return nil, "", repository.ErrNotFound
}

func (f *fakeMediaStore) Remove(_ context.Context, ref string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, ref)
	return nil
}

func activeAffiliate(id string) *domain.Identity {
	return &domain.Identity{
		ID:         id,
		Membership: domain.MembershipAffiliate,
		Status:     domain.IdentityStatusActive,
	}
}

func adminIdentity(id string) *domain.Identity {
	return &domain.Identity{
		ID:         id,
		Membership: domain.MembershipAdmin,
		Status:     domain.IdentityStatusActive,
	}
}
