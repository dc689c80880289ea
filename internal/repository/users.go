package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/atinyakov/minihub/internal/models"
)

const uniqueViolation = "23505"

const userColumns = "id, email, COALESCE(username, ''), password_hash, name, role, is_hidden, created_at, updated_at"

// PostgresUserRepository stores user accounts.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a PostgresUserRepository with the given database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// Create inserts a user. A duplicate email yields models.ErrEmailTaken and
// a duplicate handle models.ErrUsernameTaken. Handle conflicts skip the row
// instead of raising, so the surrounding transaction stays usable and the
// caller can retry with another handle.
func (s *PostgresUserRepository) Create(ctx context.Context, u *models.User) error {
	res, err := conn(ctx, s.DB).ExecContext(ctx, `
		INSERT INTO users (id, email, username, password_hash, name, role, is_hidden, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)
		ON CONFLICT (username) DO NOTHING
	`, u.ID, u.Email, u.Username, u.PasswordHash, u.Name, u.Role, u.Hidden, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", mapUniqueViolation(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("create user: %w", models.ErrUsernameTaken)
	}
	return nil
}

// GetByID returns the user with the given id or models.ErrNotFound.
func (s *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail returns the user with the given email or models.ErrNotFound.
func (s *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// UsernameExists reports whether the handle is taken.
func (s *PostgresUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := conn(ctx, s.DB).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("username exists: %w", err)
	}
	return exists, nil
}

// ResolveHandles maps emails or usernames to user ids. Unknown handles and
// the excluded user are dropped.
func (s *PostgresUserRepository) ResolveHandles(ctx context.Context, handles []string, exclude string) ([]string, error) {
	if len(handles) == 0 {
		return nil, nil
	}
	// Emails are stored lowercased; usernames compare as typed.
	normalized := make([]string, len(handles))
	for i, h := range handles {
		if strings.Contains(h, "@") {
			h = strings.ToLower(h)
		}
		normalized[i] = h
	}
	rows, err := conn(ctx, s.DB).QueryContext(ctx, `
		SELECT id FROM users WHERE (email = ANY($1) OR username = ANY($1)) AND id <> $2
	`, pq.Array(normalized), exclude)
	if err != nil {
		return nil, fmt.Errorf("resolve handles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateProfile sets the display name and handle.
func (s *PostgresUserRepository) UpdateProfile(ctx context.Context, u *models.User) error {
	res, err := conn(ctx, s.DB).ExecContext(ctx, `
		UPDATE users SET name = $2, username = NULLIF($3, ''), updated_at = $4 WHERE id = $1
	`, u.ID, u.Name, u.Username, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update profile: %w", mapUniqueViolation(err))
	}
	return requireAffected(res)
}

// UpdatePassword replaces the stored password hash.
func (s *PostgresUserRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	res, err := conn(ctx, s.DB).ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the user; owned rows cascade.
func (s *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, s.DB).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res)
}

// ListOverview returns non-hidden users with per-kind item counts, newest first.
func (s *PostgresUserRepository) ListOverview(ctx context.Context) ([]models.UserOverview, error) {
	rows, err := conn(ctx, s.DB).QueryContext(ctx, `
		SELECT u.id, u.email, COALESCE(u.username, ''), u.name, u.role, u.created_at, u.updated_at,
			(SELECT COUNT(*) FROM tasks WHERE user_id = u.id),
			(SELECT COUNT(*) FROM notes WHERE user_id = u.id),
			(SELECT COUNT(*) FROM goals WHERE user_id = u.id),
			(SELECT COUNT(*) FROM transactions WHERE user_id = u.id),
			(SELECT COUNT(*) FROM articles WHERE user_id = u.id)
		FROM users u
		WHERE u.is_hidden = FALSE
		ORDER BY u.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.UserOverview{}
	for rows.Next() {
		var u models.UserOverview
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt,
			&u.Counts.Tasks, &u.Counts.Notes, &u.Counts.Goals, &u.Counts.Transactions, &u.Counts.Articles,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresUserRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var u models.User
	err := conn(ctx, s.DB).QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Name, &u.Role, &u.Hidden, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case "users_email_key":
		return models.ErrEmailTaken
	case "users_username_key":
		return models.ErrUsernameTaken
	}
	return err
}
