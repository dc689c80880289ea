package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/atinyakov/minihub/internal/models"
)

func setupUserMock(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresUserRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

var userRowColumns = []string{"id", "email", "username", "password_hash", "name", "role", "is_hidden", "created_at", "updated_at"}

func TestUserRepository_Create(t *testing.T) {
	now := time.Now()
	user := &models.User{
		ID: "u1", Email: "alice@example.com", Username: "user42", PasswordHash: []byte("hash"),
		Name: "Alice", Role: models.RoleUser, CreatedAt: now, UpdatedAt: now,
	}
	tests := []struct {
		name     string
		execErr  error
		affected int64
		wantErr  error
	}{
		{"success", nil, 1, nil},
		{"duplicate email", &pq.Error{Code: "23505", Constraint: "users_email_key"}, 0, models.ErrEmailTaken},
		{"duplicate username", &pq.Error{Code: "23505", Constraint: "users_username_key"}, 0, models.ErrUsernameTaken},
		{"username conflict skipped", nil, 0, models.ErrUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserMock(t)
			defer cleanup()

			exp := mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (id, email, username, password_hash, name, role, is_hidden, created_at, updated_at)`)).
				WithArgs("u1", "alice@example.com", "user42", []byte("hash"), "Alice", "USER", false, now, now)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tt.affected))
			}

			err := repo.Create(context.Background(), user)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v; want %v", err, tt.wantErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestUserRepository_CreateRetryKeepsTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer db.Close()
	repo := NewPostgresUserRepository(db)

	now := time.Now()
	insert := regexp.QuoteMeta(`ON CONFLICT (username) DO NOTHING`)
	mock.ExpectBegin()
	mock.ExpectExec(insert).
		WithArgs("u1", "alice@example.com", "user7", []byte("hash"), "Alice", "USER", false, now, now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`)).
		WithArgs("user8").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(insert).
		WithArgs("u1", "alice@example.com", "user8", []byte("hash"), "Alice", "USER", false, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user := &models.User{
		ID: "u1", Email: "alice@example.com", Username: "user7", PasswordHash: []byte("hash"),
		Name: "Alice", Role: models.RoleUser, CreatedAt: now, UpdatedAt: now,
	}
	err = NewTransactor(db).InTx(context.Background(), func(ctx context.Context) error {
		if err := repo.Create(ctx, user); !errors.Is(err, models.ErrUsernameTaken) {
			t.Fatalf("first insert error = %v; want ErrUsernameTaken", err)
		}
		taken, err := repo.UsernameExists(ctx, "user8")
		if err != nil || taken {
			t.Fatalf("UsernameExists = %v, %v", taken, err)
		}
		user.Username = "user8"
		return repo.Create(ctx, user)
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "admin@example.com", "admin", []byte("hash"), "Admin", "ADMIN", true, now, now))

	u, err := repo.GetByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.IsAdmin() || !u.Hidden || u.Username != "admin" {
		t.Errorf("unexpected user: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	if _, err := repo.GetByID(context.Background(), "ghost"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUserRepository_UsernameExists(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`)).
		WithArgs("user100").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.UsernameExists(context.Background(), "user100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected handle to exist")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUserRepository_ResolveHandles(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM users WHERE (email = ANY($1) OR username = ANY($1)) AND id <> $2`)).
		WithArgs(sqlmock.AnyArg(), "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("bob").AddRow("carol"))

	ids, err := repo.ResolveHandles(context.Background(), []string{"bob@example.com", "user7", "nobody"}, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "bob" || ids[1] != "carol" {
		t.Errorf("unexpected ids: %v", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUserRepository_ResolveHandles_EmailCase(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM users WHERE (email = ANY($1) OR username = ANY($1)) AND id <> $2`)).
		WithArgs(pq.Array([]string{"bob@example.com", "User7"}), "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("bob").AddRow("dave"))

	ids, err := repo.ResolveHandles(context.Background(), []string{"Bob@Example.COM", "User7"}, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("unexpected ids: %v", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUserRepository_ResolveHandles_Empty(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	ids, err := repo.ResolveHandles(context.Background(), nil, "alice")
	if err != nil || ids != nil {
		t.Errorf("expected nil result without query, got %v, %v", ids, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected sql calls: %v", err)
	}
}

func TestUserRepository_UpdatePassword_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET password_hash = $2`)).
		WithArgs("ghost", []byte("h")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdatePassword(context.Background(), "ghost", []byte("h")); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUserRepository_ListOverview(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE u.is_hidden = FALSE`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "name", "role", "created_at", "updated_at", "tasks", "notes", "goals", "transactions", "articles"}).
			AddRow("u1", "a@example.com", "user1", "A", "USER", now, now, 3, 2, 1, 5, 0))

	users, err := repo.ListOverview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 || users[0].Counts.Tasks != 3 || users[0].Counts.Transactions != 5 {
		t.Errorf("unexpected overview: %+v", users)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
