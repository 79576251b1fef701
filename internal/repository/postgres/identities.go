package postgres

import (
	"context"
	"database/sql"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/core/port"
	"github.com/ggontijo/campus-market/internal/repository"
)

// IdentityRepository implements port.IdentityRepository using PostgreSQL.
type IdentityRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewIdentityRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewIdentityRepository(exec pgExecutor) *IdentityRepository {
	return &IdentityRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *IdentityRepository) WithTx(tx pgx.Tx) *IdentityRepository {
	if tx == nil {
		return r
	}
	return &IdentityRepository{
		exec:    tx,
		builder: r.builder,
	}
}

var identityColumns = []string{
	"id",
	"email",
	"name",
	"commercial_name",
	"phone",
	"tax_id",
	"bio",
	"password_hash",
	"password_algo",
	"membership",
	"status",
	"housing_id",
	"created_at",
	"updated_at",
}

func nullableText(v *string) any {
	if v != nil && *v != "" {
		return *v
	}
	return nil
}

// Create inserts a new identity row.
func (r *IdentityRepository) Create(ctx context.Context, identity domain.Identity) error {
	query := r.builder.Insert("market.identities").
		Columns(identityColumns...).
		Values(
			identity.ID,
			identity.Email,
			identity.Name,
			nullableText(identity.CommercialName),
			nullableText(identity.Phone),
			nullableText(identity.TaxID),
			nullableText(identity.Bio),
			identity.PasswordHash,
			identity.PasswordAlgo,
			identity.Membership,
			identity.Status,
			nullableText(identity.HousingID),
			identity.CreatedAt,
			identity.UpdatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert identity sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}

	return nil
}

// GetByID retrieves an identity by identifier.
func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	stmt, args, err := r.builder.
		Select(identityColumns...).
		From("market.identities").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select identity sql: %w", err)
	}

	return r.scanIdentity(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByEmail retrieves an identity by email address.
func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	stmt, args, err := r.builder.
		Select(identityColumns...).
		From("market.identities").
		Where(squirrel.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select identity by email sql: %w", err)
	}

	return r.scanIdentity(r.exec.QueryRow(ctx, stmt, args...))
}

func (r *IdentityRepository) scanIdentity(row pgx.Row) (*domain.Identity, error) {
	var (
		identity       domain.Identity
		commercialName sql.NullString
		phone          sql.NullString
		taxID          sql.NullString
		bio            sql.NullString
		housingID      sql.NullString
	)

	if err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.Name,
		&commercialName,
		&phone,
		&taxID,
		&bio,
		&identity.PasswordHash,
		&identity.PasswordAlgo,
		&identity.Membership,
		&identity.Status,
		&housingID,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}

	identity.CommercialName = textPtr(commercialName)
	identity.Phone = textPtr(phone)
	identity.TaxID = textPtr(taxID)
	identity.Bio = textPtr(bio)
	identity.HousingID = textPtr(housingID)

	return &identity, nil
}

func textPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	val := v.String
	return &val
}

// Update modifies an existing identity's mutable fields.
func (r *IdentityRepository) Update(ctx context.Context, identity domain.Identity) error {
	stmt, args, err := r.builder.Update("market.identities").
		Set("name", identity.Name).
		Set("commercial_name", nullableText(identity.CommercialName)).
		Set("phone", nullableText(identity.Phone)).
		Set("tax_id", nullableText(identity.TaxID)).
		Set("bio", nullableText(identity.Bio)).
		Set("membership", identity.Membership).
		Set("housing_id", nullableText(identity.HousingID)).
		Set("updated_at", identity.UpdatedAt).
		Where(squirrel.Eq{"id": identity.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update identity sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateStatus updates the account status field for an identity.
func (r *IdentityRepository) UpdateStatus(ctx context.Context, id string, status domain.IdentityStatus) error {
	stmt, args, err := r.builder.Update("market.identities").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update identity status sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update identity status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.IdentityRepository = (*IdentityRepository)(nil)
