package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/core/port"
	"github.com/ggontijo/campus-market/internal/repository"
)

// ListingRepository implements port.ListingRepository using PostgreSQL.
type ListingRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewListingRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewListingRepository(exec pgExecutor) *ListingRepository {
	return &ListingRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *ListingRepository) WithTx(tx pgx.Tx) *ListingRepository {
	if tx == nil {
		return r
	}
	return &ListingRepository{
		exec:    tx,
		builder: r.builder,
	}
}

var listingColumns = []string{
	"id",
	"owner_id",
	"category_id",
	"title",
	"description",
	"price_cents",
	"commerce_type",
	"kind",
	"status",
	"image_refs",
	"location",
	"views",
	"created_at",
	"updated_at",
}

// Create inserts a new listing row.
func (r *ListingRepository) Create(ctx context.Context, listing domain.Listing) error {
	refs := listing.ImageRefs
	if refs == nil {
		refs = []string{}
	}

	query := r.builder.Insert("market.listings").
		Columns(listingColumns...).
		Values(
			listing.ID,
			listing.OwnerID,
			listing.CategoryID,
			listing.Title,
			listing.Description,
			listing.PriceCents,
			listing.Commerce,
			listing.Kind,
			listing.Status,
			refs,
			listing.Location,
			listing.Views,
			listing.CreatedAt,
			listing.UpdatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert listing sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}

	return nil
}

// GetByID retrieves a listing by identifier, soft-deleted rows included.
// Visibility policy lives in the service layer.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	stmt, args, err := r.builder.
		Select(listingColumns...).
		From("market.listings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select listing sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var listing domain.Listing
	if err := row.Scan(
		&listing.ID,
		&listing.OwnerID,
		&listing.CategoryID,
		&listing.Title,
		&listing.Description,
		&listing.PriceCents,
		&listing.Commerce,
		&listing.Kind,
		&listing.Status,
		&listing.ImageRefs,
		&listing.Location,
		&listing.Views,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan listing: %w", err)
	}

	return &listing, nil
}

// Update persists the mutable descriptive fields of a listing. Status, owner,
// views, and creation timestamp are intentionally not touched here.
func (r *ListingRepository) Update(ctx context.Context, listing domain.Listing) error {
	stmt, args, err := r.builder.Update("market.listings").
		Set("category_id", listing.CategoryID).
		Set("title", listing.Title).
		Set("description", listing.Description).
		Set("price_cents", listing.PriceCents).
		Set("commerce_type", listing.Commerce).
		Set("kind", listing.Kind).
		Set("location", listing.Location).
		Set("updated_at", listing.UpdatedAt).
		Where(squirrel.Eq{"id": listing.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update listing sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateStatus conditionally moves the listing to the target status. The
// update only lands when the persisted status is one of the allowed sources,
// which makes concurrent transitions race-safe without a round trip.
func (r *ListingRepository) UpdateStatus(ctx context.Context, id string, sources []domain.ListingStatus, target domain.ListingStatus) (bool, error) {
	if len(sources) == 0 {
		return false, nil
	}

	from := make([]string, 0, len(sources))
	for _, s := range sources {
		from = append(from, string(s))
	}

	stmt, args, err := r.builder.Update("market.listings").
		Set("status", target).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": from}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update listing status sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("update listing status: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// IncrementViews bumps the view counter in a single statement so concurrent
// readers never lose increments. Soft-deleted rows are left untouched.
func (r *ListingRepository) IncrementViews(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update("market.listings").
		Set("views", squirrel.Expr("views + 1")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.NotEq{"status": domain.ListingStatusDeleted}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build increment views sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}

	return nil
}

// SetImageRefs replaces the ordered image reference list.
func (r *ListingRepository) SetImageRefs(ctx context.Context, id string, refs []string) error {
	if refs == nil {
		refs = []string{}
	}

	stmt, args, err := r.builder.Update("market.listings").
		Set("image_refs", refs).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set image refs sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set image refs: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns catalog summaries joined with owner and category display names,
// newest first. The service layer supplies status defaults and page clamping.
func (r *ListingRepository) List(ctx context.Context, filter port.ListingFilter) ([]domain.ListingSummary, error) {
	query := r.builder.Select(
		"l.id",
		"l.title",
		"l.price_cents",
		"l.commerce_type",
		"l.kind",
		"l.status",
		"l.location",
		"COALESCE(l.image_refs[1], '')",
		"l.views",
		"l.owner_id",
		"COALESCE(i.commercial_name, i.name)",
		"l.category_id",
		"c.name",
		"l.created_at",
	).
		From("market.listings l").
		Join("market.identities i ON i.id = l.owner_id").
		Join("market.categories c ON c.id = l.category_id").
		OrderBy("l.created_at DESC", "l.id DESC")

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		query = query.Where(squirrel.Eq{"l.status": statuses})
	}
	if filter.CategoryID != "" {
		query = query.Where(squirrel.Eq{"l.category_id": filter.CategoryID})
	}
	if filter.Commerce != "" {
		query = query.Where(squirrel.Eq{"l.commerce_type": filter.Commerce})
	}
	if filter.Kind != "" {
		query = query.Where(squirrel.Eq{"l.kind": filter.Kind})
	}
	if filter.OwnerID != "" {
		query = query.Where(squirrel.Eq{"l.owner_id": filter.OwnerID})
	}
	if filter.SearchText != "" {
		query = query.Where(squirrel.ILike{"l.title": "%" + filter.SearchText + "%"})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list listings sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.ListingSummary, 0)
	for rows.Next() {
		var summary domain.ListingSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.Title,
			&summary.PriceCents,
			&summary.Commerce,
			&summary.Kind,
			&summary.Status,
			&summary.Location,
			&summary.CoverImage,
			&summary.Views,
			&summary.OwnerID,
			&summary.OwnerName,
			&summary.CategoryID,
			&summary.CategoryName,
			&summary.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan listing summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}

	return summaries, nil
}

// CountByCategory returns the number of listings referencing the category in
// any of the given statuses.
func (r *ListingRepository) CountByCategory(ctx context.Context, categoryID string, statuses []domain.ListingStatus) (int, error) {
	query := r.builder.Select("COUNT(*)").
		From("market.listings").
		Where(squirrel.Eq{"category_id": categoryID})

	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, s := range statuses {
			values = append(values, string(s))
		}
		query = query.Where(squirrel.Eq{"status": values})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count listings sql: %w", err)
	}

	var count int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("scan listings count: %w", err)
	}

	return int(count), nil
}

const expireBeforeSQL = `
	UPDATE market.listings l
	   SET status = 'EXPIRED', updated_at = $1
	  FROM (
			SELECT id, status AS prev_status
			  FROM market.listings
			 WHERE status IN ('ACTIVE', 'RESERVED')
			   AND created_at < $2
			   FOR UPDATE
	  ) stale
	 WHERE l.id = stale.id
	RETURNING l.id, l.owner_id, l.category_id, l.title, l.description,
	          l.price_cents, l.commerce_type, l.kind, stale.prev_status,
	          l.image_refs, l.location, l.views, l.created_at, l.updated_at
`

// ExpireBefore moves stale ACTIVE and RESERVED listings to EXPIRED in one
// statement and returns the affected rows carrying their pre-expiry status,
// so callers can report what each listing transitioned from.
func (r *ListingRepository) ExpireBefore(ctx context.Context, cutoff time.Time) ([]domain.Listing, error) {
	rows, err := r.exec.Query(ctx, expireBeforeSQL, time.Now().UTC(), cutoff)
	if err != nil {
		return nil, fmt.Errorf("expire listings: %w", err)
	}
	defer rows.Close()

	expired := make([]domain.Listing, 0)
	for rows.Next() {
		var listing domain.Listing
		if err := rows.Scan(
			&listing.ID,
			&listing.OwnerID,
			&listing.CategoryID,
			&listing.Title,
			&listing.Description,
			&listing.PriceCents,
			&listing.Commerce,
			&listing.Kind,
			&listing.Status,
			&listing.ImageRefs,
			&listing.Location,
			&listing.Views,
			&listing.CreatedAt,
			&listing.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan expired listing: %w", err)
		}
		expired = append(expired, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired listings: %w", err)
	}

	return expired, nil
}

var _ port.ListingRepository = (*ListingRepository)(nil)
