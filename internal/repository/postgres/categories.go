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

// CategoryRepository implements port.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewCategoryRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewCategoryRepository(exec pgExecutor) *CategoryRepository {
	return &CategoryRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *CategoryRepository) WithTx(tx pgx.Tx) *CategoryRepository {
	if tx == nil {
		return r
	}
	return &CategoryRepository{
		exec:    tx,
		builder: r.builder,
	}
}

var categoryColumns = []string{
	"id",
	"name",
	"description",
	"slug",
	"parent_id",
	"created_at",
	"updated_at",
}

// Create inserts a new category row.
func (r *CategoryRepository) Create(ctx context.Context, category domain.Category) error {
	query := r.builder.Insert("market.categories").
		Columns(categoryColumns...).
		Values(
			category.ID,
			category.Name,
			nullableText(category.Description),
			category.Slug,
			nullableText(category.ParentID),
			category.CreatedAt,
			category.UpdatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert category sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}

	return nil
}

// GetByID retrieves a category by identifier.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	stmt, args, err := r.builder.
		Select(categoryColumns...).
		From("market.categories").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select category sql: %w", err)
	}

	return r.scanCategory(r.exec.QueryRow(ctx, stmt, args...))
}

// GetBySlug retrieves a category by its unique slug.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	stmt, args, err := r.builder.
		Select(categoryColumns...).
		From("market.categories").
		Where(squirrel.Eq{"slug": slug}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select category by slug sql: %w", err)
	}

	return r.scanCategory(r.exec.QueryRow(ctx, stmt, args...))
}

func (r *CategoryRepository) scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		category    domain.Category
		description sql.NullString
		parentID    sql.NullString
	)

	if err := row.Scan(
		&category.ID,
		&category.Name,
		&description,
		&category.Slug,
		&parentID,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}

	category.Description = textPtr(description)
	category.ParentID = textPtr(parentID)

	return &category, nil
}

// List returns categories ordered by name. A nil parentID returns every
// category; a pointer to the empty string returns only roots.
func (r *CategoryRepository) List(ctx context.Context, parentID *string) ([]domain.Category, error) {
	query := r.builder.
		Select(categoryColumns...).
		From("market.categories").
		OrderBy("name ASC")

	if parentID != nil {
		if *parentID == "" {
			query = query.Where(squirrel.Eq{"parent_id": nil})
		} else {
			query = query.Where(squirrel.Eq{"parent_id": *parentID})
		}
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list categories sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var (
			category    domain.Category
			description sql.NullString
			parent      sql.NullString
		)

		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&description,
			&category.Slug,
			&parent,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}

		category.Description = textPtr(description)
		category.ParentID = textPtr(parent)
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

// Update modifies an existing category's fields.
func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) error {
	stmt, args, err := r.builder.Update("market.categories").
		Set("name", category.Name).
		Set("description", nullableText(category.Description)).
		Set("slug", category.Slug).
		Set("parent_id", nullableText(category.ParentID)).
		Set("updated_at", category.UpdatedAt).
		Where(squirrel.Eq{"id": category.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update category sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a category row. Referential restrictions are enforced at
// the service layer before this is called.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("market.categories").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete category sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// CountChildren returns the number of categories directly under the given one.
func (r *CategoryRepository) CountChildren(ctx context.Context, id string) (int, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From("market.categories").
		Where(squirrel.Eq{"parent_id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count children sql: %w", err)
	}

	var count int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("scan children count: %w", err)
	}

	return int(count), nil
}

var _ port.CategoryRepository = (*CategoryRepository)(nil)
