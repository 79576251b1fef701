package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/ggontijo/campus-market/internal/core/domain"
	"github.com/ggontijo/campus-market/internal/repository"
)

func TestCategoryRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCategoryRepository(mock)

	now := time.Now().UTC()
	parentID := "category-root"
	category := domain.Category{
		ID:        "category-1",
		Name:      "Eletrônicos",
		Slug:      "eletronicos",
		ParentID:  &parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO market\.categories`).
		WithArgs(
			category.ID,
			category.Name,
			nil,
			category.Slug,
			parentID,
			category.CreatedAt,
			category.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), category); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCategoryRepository_GetBySlug(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCategoryRepository(mock)

	now := time.Now().UTC()
	rows := pgxmock.NewRows(categoryColumns).AddRow(
		"category-1", "Eletrônicos", nil, "eletronicos", nil, now, now,
	)

	mock.ExpectQuery(`SELECT .*FROM market\.categories`).
		WithArgs("eletronicos").
		WillReturnRows(rows)

	category, err := repo.GetBySlug(context.Background(), "eletronicos")
	if err != nil {
		t.Fatalf("GetBySlug returned error: %v", err)
	}
	if category.ID != "category-1" {
		t.Fatalf("expected category-1, got %s", category.ID)
	}
	if !category.IsRoot() {
		t.Fatal("expected root category without parent")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCategoryRepository_List_Roots(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCategoryRepository(mock)

	now := time.Now().UTC()
	rows := pgxmock.NewRows(categoryColumns).
		AddRow("category-1", "Eletrônicos", nil, "eletronicos", nil, now, now).
		AddRow("category-2", "Serviços", nil, "servicos", nil, now, now)

	mock.ExpectQuery(`SELECT .*FROM market\.categories WHERE parent_id IS NULL ORDER BY name ASC`).
		WillReturnRows(rows)

	roots := ""
	onlyRoots := &roots

	categories, err := repo.List(context.Background(), onlyRoots)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(categories))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCategoryRepository_Delete_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCategoryRepository(mock)

	mock.ExpectExec(`DELETE FROM market\.categories`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCategoryRepository_CountChildren(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCategoryRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM market\.categories WHERE parent_id =`).
		WithArgs("category-root").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := repo.CountChildren(context.Background(), "category-root")
	if err != nil {
		t.Fatalf("CountChildren returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 children, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
