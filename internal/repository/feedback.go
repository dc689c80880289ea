package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/minihub/internal/models"
)

// PostgresFeedbackRepository stores feedback tickets.
type PostgresFeedbackRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresFeedbackRepository creates a PostgresFeedbackRepository.
func NewPostgresFeedbackRepository(db *sql.DB) *PostgresFeedbackRepository {
	return &PostgresFeedbackRepository{DB: db}
}

// Create stores a new ticket.
func (s *PostgresFeedbackRepository) Create(ctx context.Context, f *models.Feedback) error {
	_, err := conn(ctx, s.DB).ExecContext(ctx, `
		INSERT INTO feedbacks (id, type, title, message, email, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)
	`, f.ID, f.Type, f.Title, f.Message, f.Email, f.UserID, f.Status, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// ListByUser returns the tickets submitted by userID, newest first.
func (s *PostgresFeedbackRepository) ListByUser(ctx context.Context, userID string) ([]models.Feedback, error) {
	rows, err := conn(ctx, s.DB).QueryContext(ctx, `
		SELECT id, type, title, message, COALESCE(email, ''), COALESCE(user_id, ''), status,
			COALESCE(admin_reply, ''), created_at, updated_at
		FROM feedbacks WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	list := []models.Feedback{}
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.Type, &f.Title, &f.Message, &f.Email, &f.UserID, &f.Status,
			&f.AdminReply, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

// ListAll returns every ticket with its author, newest first.
func (s *PostgresFeedbackRepository) ListAll(ctx context.Context) ([]models.Feedback, error) {
	rows, err := conn(ctx, s.DB).QueryContext(ctx, `
		SELECT f.id, f.type, f.title, f.message, COALESCE(f.email, ''), COALESCE(f.user_id, ''), f.status,
			COALESCE(f.admin_reply, ''), f.created_at, f.updated_at,
			COALESCE(u.name, ''), COALESCE(u.email, ''), COALESCE(u.username, '')
		FROM feedbacks f LEFT JOIN users u ON u.id = f.user_id
		ORDER BY f.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	list := []models.Feedback{}
	for rows.Next() {
		var f models.Feedback
		var author models.UserSummary
		if err := rows.Scan(&f.ID, &f.Type, &f.Title, &f.Message, &f.Email, &f.UserID, &f.Status,
			&f.AdminReply, &f.CreatedAt, &f.UpdatedAt, &author.Name, &author.Email, &author.Username); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if f.UserID != "" {
			author.ID = f.UserID
			f.User = &author
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

// UpdateStatus sets the status and admin reply of a ticket.
func (s *PostgresFeedbackRepository) UpdateStatus(ctx context.Context, id string, status models.FeedbackStatus, reply string) error {
	res, err := conn(ctx, s.DB).ExecContext(ctx, `
		UPDATE feedbacks SET status = $2, admin_reply = NULLIF($3, ''), updated_at = NOW() WHERE id = $1
	`, id, status, reply)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	return requireAffected(res)
}
