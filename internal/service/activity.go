package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/minihub/internal/metrics"
	"github.com/atinyakov/minihub/internal/models"
)

// ActivityRepository stores and reads the activity log.
type ActivityRepository interface {
	// Append stores a new record.
	Append(ctx context.Context, a *models.Activity) error
	// List returns a page of the user's records, newest first.
	List(ctx context.Context, userID string, q models.FeedQuery) ([]models.Activity, error)
	// Since returns the user's records created at or after since.
	Since(ctx context.Context, userID string, since time.Time) ([]models.Activity, error)
}

// TxRunner runs fn in a transaction that repositories join through ctx.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Recorder appends activity records on behalf of the other services.
type Recorder struct {
	repo ActivityRepository
	now  func() time.Time
}

// NewRecorder creates a Recorder backed by repo.
func NewRecorder(repo ActivityRepository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// Record appends one activity for userID.
func (r *Recorder) Record(ctx context.Context, userID string, category models.Category, action, details string) error {
	err := r.repo.Append(ctx, &models.Activity{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Details:   details,
		Type:      category,
		CreatedAt: r.now(),
	})
	if err != nil {
		return err
	}
	if p, ok := ctx.Value(pendingKey{}).(*pendingActivities); ok {
		p.categories = append(p.categories, category)
		return nil
	}
	metrics.ActivitiesRecorded.WithLabelValues(string(category)).Inc()
	return nil
}

type pendingKey struct{}

// pendingActivities holds the categories recorded inside a transaction
// until it commits.
type pendingActivities struct {
	categories []models.Category
}

// inTx runs fn through tx. Activities recorded by fn are counted only once
// the outermost transaction has committed.
func inTx(ctx context.Context, tx TxRunner, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(pendingKey{}).(*pendingActivities); ok {
		return tx.InTx(ctx, fn)
	}
	p := &pendingActivities{}
	if err := tx.InTx(context.WithValue(ctx, pendingKey{}, p), fn); err != nil {
		return err
	}
	for _, c := range p.categories {
		metrics.ActivitiesRecorded.WithLabelValues(string(c)).Inc()
	}
	return nil
}
