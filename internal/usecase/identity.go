package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/core/port"
	"github.com/ggontijo/campus-market/internal/infra/security"
	"github.com/ggontijo/campus-market/internal/repository"
)

var (
	// ErrIdentityNotFound indicates the referenced identity does not exist.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrEmailAlreadyRegistered indicates the email is taken; emails are globally unique.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIdentityBlocked indicates the account may not authenticate at all.
	ErrIdentityBlocked = errors.New("identity is blocked")
	// ErrPasswordPolicyViolation indicates the password fails the strength policy.
	ErrPasswordPolicyViolation = errors.New("password does not meet requirements")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// RegisterInput carries sign-up fields. Membership defaults to VISITOR; the
// administrative tier can never be self-assigned.
type RegisterInput struct {
	Email          string
	Name           string
	CommercialName *string
	Phone          *string
	TaxID          *string
	Password       string
	Membership     domain.MembershipType
	HousingID      *string
}

// ProfilePatch updates self-service profile fields; nil leaves a field alone.
type ProfilePatch struct {
	Name           *string
	CommercialName *string
	Phone          *string
	TaxID          *string
	Bio            *string
	HousingID      *string
}

// IdentityService handles identity lifecycle: sign-up, authentication, and
// administrative validation. Sessions are owned by the surrounding layer; the
// core only resolves and verifies identities.
type IdentityService struct {
	identities   port.IdentityRepository
	validator    *security.PasswordValidator
	events       port.EventPublisher
	autoActivate bool
	logger       *zap.Logger
}

// NewIdentityService constructs IdentityService. With autoActivate false new
// accounts start in PENDING_VERIFICATION and wait for administrative review.
func NewIdentityService(identities port.IdentityRepository, validator *security.PasswordValidator, events port.EventPublisher, autoActivate bool) *IdentityService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	return &IdentityService{
		identities:   identities,
		validator:    validator,
		events:       events,
		autoActivate: autoActivate,
		logger:       zap.NewNop(),
	}
}

// WithLogger attaches a structured logger for non-fatal failures.
func (s *IdentityService) WithLogger(logger *zap.Logger) *IdentityService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Register persists a new identity with a hashed password.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (*domain.Identity, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: malformed email", ErrValidation)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	membership := input.Membership
	if membership == "" {
		membership = domain.MembershipVisitor
	}
	if membership == domain.MembershipAdmin {
		return nil, fmt.Errorf("%w: administrative tier cannot be self-assigned", ErrValidation)
	}
	if !membership.Valid() {
		return nil, fmt.Errorf("%w: unknown membership type %q", ErrValidation, membership)
	}

	if err := s.validator.Validate(input.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	if _, err := s.identities.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyRegistered
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	status := domain.IdentityStatusPending
	if s.autoActivate {
		status = domain.IdentityStatusActive
	}

	now := time.Now().UTC()
	identity := domain.Identity{
		ID:             uuid.NewString(),
		Email:          email,
		Name:           name,
		CommercialName: input.CommercialName,
		Phone:          input.Phone,
		TaxID:          input.TaxID,
		PasswordHash:   hash,
		PasswordAlgo:   "argon2id",
		Membership:     membership,
		Status:         status,
		HousingID:      input.HousingID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	s.publishRegistered(ctx, identity)

	return &identity, nil
}

// Authenticate verifies the email/password pair and returns the identity.
// Blocked accounts are refused outright.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup identity: %w", err)
	}

	if identity.Status == domain.IdentityStatusBlocked {
		return nil, ErrIdentityBlocked
	}

	ok, err := security.VerifyPassword(password, identity.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return identity, nil
}

// Resolve loads an identity by id. Used by the session boundary to turn a
// token subject into a concrete identity per request.
func (s *IdentityService) Resolve(ctx context.Context, id string) (*domain.Identity, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrIdentityNotFound
	}
	identity, err := s.identities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	return identity, nil
}

// SetStatus performs the administrative validation action on an account.
func (s *IdentityService) SetStatus(ctx context.Context, actor *domain.Identity, identityID string, status domain.IdentityStatus) error {
	if !actor.IsAdmin() {
		return ErrPermissionDenied
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	if err := s.identities.UpdateStatus(ctx, identityID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrIdentityNotFound
		}
		return fmt.Errorf("update identity status: %w", err)
	}
	return nil
}

// SetMembership changes an identity's tier. Administrator only.
func (s *IdentityService) SetMembership(ctx context.Context, actor *domain.Identity, identityID string, membership domain.MembershipType) error {
	if !actor.IsAdmin() {
		return ErrPermissionDenied
	}
	if !membership.Valid() {
		return fmt.Errorf("%w: unknown membership type %q", ErrValidation, membership)
	}

	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrIdentityNotFound
		}
		return fmt.Errorf("lookup identity: %w", err)
	}

	identity.Membership = membership
	identity.UpdatedAt = time.Now().UTC()
	if err := s.identities.Update(ctx, *identity); err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	return nil
}

// UpdateProfile applies self-service profile changes.
func (s *IdentityService) UpdateProfile(ctx context.Context, actor *domain.Identity, patch ProfilePatch) (*domain.Identity, error) {
	if actor == nil {
		return nil, ErrPermissionDenied
	}

	identity, err := s.identities.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("lookup identity: %w", err)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrValidation)
		}
		identity.Name = name
	}
	if patch.CommercialName != nil {
		identity.CommercialName = patch.CommercialName
	}
	if patch.Phone != nil {
		identity.Phone = patch.Phone
	}
	if patch.TaxID != nil {
		identity.TaxID = patch.TaxID
	}
	if patch.Bio != nil {
		identity.Bio = patch.Bio
	}
	if patch.HousingID != nil {
		identity.HousingID = patch.HousingID
	}

	identity.UpdatedAt = time.Now().UTC()
	if err := s.identities.Update(ctx, *identity); err != nil {
		return nil, fmt.Errorf("update identity: %w", err)
	}

	return identity, nil
}

func (s *IdentityService) publishRegistered(ctx context.Context, identity domain.Identity) {
	if s.events == nil {
		return
	}
	event := domain.IdentityRegisteredEvent{
		EventID:      uuid.NewString(),
		IdentityID:   identity.ID,
		Email:        identity.Email,
		Name:         identity.Name,
		Membership:   identity.Membership,
		Status:       identity.Status,
		RegisteredAt: identity.CreatedAt,
	}
	if err := s.events.PublishIdentityRegistered(ctx, event); err != nil {
		s.logger.Warn("publish identity registered event failed",
			zap.String("identity_id", identity.ID),
			zap.Error(err),
		)
	}
}
