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

func TestIdentityRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewIdentityRepository(mock)

	now := time.Now().UTC()
	phone := "+55 31 99999-0000"
	identity := domain.Identity{
		ID:           "identity-1",
		Email:        "gabi@example.com",
		Name:         "Gabriela Torres",
		Phone:        &phone,
		PasswordHash: "argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		PasswordAlgo: "argon2id",
		Membership:   domain.MembershipAffiliate,
		Status:       domain.IdentityStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec(`INSERT INTO market\.identities`).
		WithArgs(
			identity.ID,
			identity.Email,
			identity.Name,
			nil,
			phone,
			nil,
			nil,
			identity.PasswordHash,
			identity.PasswordAlgo,
			identity.Membership,
			identity.Status,
			nil,
			identity.CreatedAt,
			identity.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), identity); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIdentityRepository_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewIdentityRepository(mock)

	now := time.Now().UTC()
	rows := pgxmock.NewRows(identityColumns).AddRow(
		"identity-1", "gabi@example.com", "Gabriela Torres",
		nil, nil, nil, nil,
		"hash", "argon2id",
		domain.MembershipAffiliate, domain.IdentityStatusActive,
		nil, now, now,
	)

	mock.ExpectQuery(`SELECT .*FROM market\.identities`).
		WithArgs("gabi@example.com").
		WillReturnRows(rows)

	identity, err := repo.GetByEmail(context.Background(), "gabi@example.com")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if identity.ID != "identity-1" {
		t.Fatalf("expected identity-1, got %s", identity.ID)
	}
	if identity.Phone != nil {
		t.Fatal("expected nil phone for NULL column")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIdentityRepository_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewIdentityRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM market\.identities`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(identityColumns))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIdentityRepository_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewIdentityRepository(mock)

	mock.ExpectExec(`UPDATE market\.identities SET status =`).
		WithArgs(domain.IdentityStatusActive, "identity-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdateStatus(context.Background(), "identity-1", domain.IdentityStatusActive); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	mock.ExpectExec(`UPDATE market\.identities SET status =`).
		WithArgs(domain.IdentityStatusBlocked, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.UpdateStatus(context.Background(), "missing", domain.IdentityStatusBlocked); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
