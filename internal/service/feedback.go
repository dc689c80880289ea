package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/validate"
)

// FeedbackRepository stores feedback tickets.
type FeedbackRepository interface {
	Create(ctx context.Context, f *models.Feedback) error
	ListByUser(ctx context.Context, userID string) ([]models.Feedback, error)
	ListAll(ctx context.Context) ([]models.Feedback, error)
	// UpdateStatus returns models.ErrNotFound for an unknown id.
	UpdateStatus(ctx context.Context, id string, status models.FeedbackStatus, reply string) error
}

// FeedbackInput is the ticket submission payload.
type FeedbackInput struct {
	Type    models.FeedbackType `json:"type"`
	Title   string              `json:"title"`
	Message string              `json:"message"`
	Email   string              `json:"email"`
}

// FeedbackService accepts tickets from users and anonymous visitors.
type FeedbackService struct {
	repo FeedbackRepository
	now  func() time.Time
}

// NewFeedbackService creates a FeedbackService over repo.
func NewFeedbackService(repo FeedbackRepository) *FeedbackService {
	return &FeedbackService{repo: repo, now: time.Now}
}

// Submit stores an OPEN ticket. userID is empty for anonymous submissions.
func (s *FeedbackService) Submit(ctx context.Context, userID string, in FeedbackInput) (*models.Feedback, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	in.Email = strings.TrimSpace(in.Email)

	var errs validate.MultiError
	errs.Add(validate.OneOf("type", string(in.Type), string(models.FeedbackGeneral), string(models.FeedbackBug)))
	errs.Add(validate.NonEmptyString("title", in.Title))
	errs.Add(validate.NonEmptyString("message", in.Message))
	if in.Email != "" {
		errs.Add(validate.IsEmail("email", in.Email))
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	f := &models.Feedback{
		ID:        uuid.NewString(),
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		Email:     in.Email,
		UserID:    userID,
		Status:    models.FeedbackOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// ListMine returns the tickets the user submitted.
func (s *FeedbackService) ListMine(ctx context.Context, userID string) ([]models.Feedback, error) {
	return s.repo.ListByUser(ctx, userID)
}
