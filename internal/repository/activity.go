package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atinyakov/minihub/internal/models"
)

// PostgresActivityRepository stores the append-only activity log.
type PostgresActivityRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresActivityRepository creates a PostgresActivityRepository.
func NewPostgresActivityRepository(db *sql.DB) *PostgresActivityRepository {
	return &PostgresActivityRepository{DB: db}
}

// Append stores a new activity record.
func (s *PostgresActivityRepository) Append(ctx context.Context, a *models.Activity) error {
	_, err := conn(ctx, s.DB).ExecContext(ctx, `
		INSERT INTO activities (id, user_id, action, details, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.UserID, a.Action, a.Details, a.Type, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// List returns a page of the user's activity, newest first. Records with
// the same timestamp are ordered by id so pages never overlap.
func (s *PostgresActivityRepository) List(ctx context.Context, userID string, q models.FeedQuery) ([]models.Activity, error) {
	query := `SELECT id, user_id, action, details, type, created_at FROM activities WHERE user_id = $1`
	args := []any{userID}
	if q.Type != "" {
		query += ` AND type = $4`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	args = append(args, q.Limit, q.Offset)
	if q.Type != "" {
		args = append(args, q.Type)
	}
	return s.query(ctx, query, args...)
}

// Since returns every activity of the user created at or after since, newest first.
func (s *PostgresActivityRepository) Since(ctx context.Context, userID string, since time.Time) ([]models.Activity, error) {
	return s.query(ctx, `
		SELECT id, user_id, action, details, type, created_at FROM activities
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC, id DESC
	`, userID, since)
}

func (s *PostgresActivityRepository) query(ctx context.Context, query string, args ...any) ([]models.Activity, error) {
	rows, err := conn(ctx, s.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.Details, &a.Type, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
