package port

import (
	"context"

	"github.com/ggontijo/campus-market/internal/core/domain"
)

// IdentityRepository exposes persistence behavior for identities.
type IdentityRepository interface {
	Create(ctx context.Context, identity domain.Identity) error
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	Update(ctx context.Context, identity domain.Identity) error
	UpdateStatus(ctx context.Context, id string, status domain.IdentityStatus) error
}
