package service

import (
	"context"
	"strings"
	"time"

	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/validate"
)

const (
	// DefaultFeedLimit is the page size when none is requested.
	DefaultFeedLimit = 50
	// MaxFeedLimit caps the page size.
	MaxFeedLimit = 200

	statsWindowDays = 30
	dailyWindowDays = 7
)

// FeedService reads the requester's own activity log.
type FeedService struct {
	repo ActivityRepository
	now  func() time.Time
}

// NewFeedService creates a FeedService over repo.
func NewFeedService(repo ActivityRepository) *FeedService {
	return &FeedService{repo: repo, now: time.Now}
}

// Feed returns a page of the user's activity, newest first. Limit is
// defaulted and capped, a negative offset is treated as zero, and the
// category filter is matched case-insensitively.
func (s *FeedService) Feed(ctx context.Context, userID string, q models.FeedQuery) ([]models.Activity, error) {
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultFeedLimit
	case q.Limit > MaxFeedLimit:
		q.Limit = MaxFeedLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Type != "" {
		q.Type = models.Category(strings.ToUpper(string(q.Type)))
		if !q.Type.Valid() {
			allowed := make([]string, len(models.Categories))
			for i, c := range models.Categories {
				allowed[i] = string(c)
			}
			var errs validate.MultiError
			errs.Add(validate.OneOf("type", string(q.Type), allowed...))
			return nil, errs.Err()
		}
	}
	return s.repo.List(ctx, userID, q)
}

// Stats counts the user's activity over the last 30 days and builds a
// zero-filled per-day series for the last 7 calendar days, oldest first.
func (s *FeedService) Stats(ctx context.Context, userID string) (models.FeedStats, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	records, err := s.repo.Since(ctx, userID, now.AddDate(0, 0, -statsWindowDays))
	if err != nil {
		return models.FeedStats{}, err
	}

	stats := models.FeedStats{
		TotalActivities: len(records),
		CountsByType:    make(map[models.Category]int),
		DailyActivity:   make([]models.DailyCount, dailyWindowDays),
	}
	index := make(map[string]int, dailyWindowDays)
	for i := range stats.DailyActivity {
		day := today.AddDate(0, 0, i-(dailyWindowDays-1)).Format(time.DateOnly)
		stats.DailyActivity[i] = models.DailyCount{Date: day}
		index[day] = i
	}

	for _, a := range records {
		stats.CountsByType[a.Type]++
		day := a.CreatedAt.In(now.Location()).Format(time.DateOnly)
		if i, ok := index[day]; ok {
			stats.DailyActivity[i].Count++
		}
	}
	return stats, nil
}
