package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/validate"
)

type recordingActivity struct {
	memActivity
	lastQuery models.FeedQuery
}

func (r *recordingActivity) List(ctx context.Context, userID string, q models.FeedQuery) ([]models.Activity, error) {
	r.lastQuery = q
	return r.memActivity.List(ctx, userID, q)
}

func TestFeedService_Feed_QueryNormalization(t *testing.T) {
	tests := []struct {
		name string
		in   models.FeedQuery
		want models.FeedQuery
	}{
		{name: "defaults", in: models.FeedQuery{}, want: models.FeedQuery{Limit: 50}},
		{name: "capped", in: models.FeedQuery{Limit: 1000, Offset: 10}, want: models.FeedQuery{Limit: 200, Offset: 10}},
		{name: "negative offset", in: models.FeedQuery{Limit: 5, Offset: -3}, want: models.FeedQuery{Limit: 5}},
		{name: "type uppercased", in: models.FeedQuery{Limit: 5, Type: "task"}, want: models.FeedQuery{Limit: 5, Type: models.CategoryTask}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &recordingActivity{}
			svc := NewFeedService(repo)
			_, err := svc.Feed(context.Background(), alice, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, repo.lastQuery)
		})
	}
}

func TestFeedService_Feed_UnknownType(t *testing.T) {
	svc := NewFeedService(&memActivity{})
	_, err := svc.Feed(context.Background(), alice, models.FeedQuery{Type: "photo"})
	var multi *validate.MultiError
	require.True(t, errors.As(err, &multi))
	assert.Equal(t, "type", multi.Errors[0].Field)
}

func TestFeedService_Feed_OnlyOwnRecords(t *testing.T) {
	repo := &memActivity{}
	rec := NewRecorder(repo)
	ctx := context.Background()
	require.NoError(t, rec.Record(ctx, alice, models.CategoryNote, "Note created", "a"))
	require.NoError(t, rec.Record(ctx, bob, models.CategoryNote, "Note created", "b"))

	got, err := NewFeedService(repo).Feed(ctx, alice, models.FeedQuery{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Details)
}

func TestFeedService_Stats_NoRecentActivity(t *testing.T) {
	repo := &memActivity{}
	now := time.Date(2026, time.October, 15, 18, 30, 0, 0, time.UTC)
	repo.records = []models.Activity{
		{UserID: alice, Type: models.CategoryTask, CreatedAt: now.AddDate(0, -2, 0)},
	}
	svc := NewFeedService(repo)
	svc.now = func() time.Time { return now }

	stats, err := svc.Stats(context.Background(), alice)
	require.NoError(t, err)

	assert.Zero(t, stats.TotalActivities)
	assert.Empty(t, stats.CountsByType)
	require.Len(t, stats.DailyActivity, 7)
	for _, d := range stats.DailyActivity {
		assert.Zero(t, d.Count, d.Date)
	}
	assert.Equal(t, "2026-10-09", stats.DailyActivity[0].Date)
	assert.Equal(t, "2026-10-15", stats.DailyActivity[6].Date)
}

func TestFeedService_Stats_Counts(t *testing.T) {
	now := time.Date(2026, time.October, 15, 18, 30, 0, 0, time.UTC)
	repo := &memActivity{records: []models.Activity{
		{UserID: alice, Type: models.CategoryTask, CreatedAt: now.Add(-time.Hour)},
		{UserID: alice, Type: models.CategoryTask, CreatedAt: now.AddDate(0, 0, -1)},
		{UserID: alice, Type: models.CategoryNote, CreatedAt: now.AddDate(0, 0, -6).Add(-18 * time.Hour)},
		{UserID: alice, Type: models.CategoryGoal, CreatedAt: now.AddDate(0, 0, -20)},
		{UserID: bob, Type: models.CategoryGoal, CreatedAt: now},
	}}
	svc := NewFeedService(repo)
	svc.now = func() time.Time { return now }

	stats, err := svc.Stats(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalActivities)
	assert.Equal(t, map[models.Category]int{
		models.CategoryTask: 2,
		models.CategoryNote: 1,
		models.CategoryGoal: 1,
	}, stats.CountsByType)

	counts := make([]int, len(stats.DailyActivity))
	for i, d := range stats.DailyActivity {
		counts[i] = d.Count
	}
	assert.Equal(t, []int{1, 0, 0, 0, 0, 1, 1}, counts)
}
