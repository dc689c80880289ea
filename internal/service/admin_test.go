package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/validate"
)

type mockFeedbackRepo struct {
	CreateFunc       func(ctx context.Context, f *models.Feedback) error
	ListByUserFunc   func(ctx context.Context, userID string) ([]models.Feedback, error)
	ListAllFunc      func(ctx context.Context) ([]models.Feedback, error)
	UpdateStatusFunc func(ctx context.Context, id string, status models.FeedbackStatus, reply string) error
}

func (m *mockFeedbackRepo) Create(ctx context.Context, f *models.Feedback) error {
	return m.CreateFunc(ctx, f)
}
func (m *mockFeedbackRepo) ListByUser(ctx context.Context, userID string) ([]models.Feedback, error) {
	return m.ListByUserFunc(ctx, userID)
}
func (m *mockFeedbackRepo) ListAll(ctx context.Context) ([]models.Feedback, error) {
	return m.ListAllFunc(ctx)
}
func (m *mockFeedbackRepo) UpdateStatus(ctx context.Context, id string, status models.FeedbackStatus, reply string) error {
	return m.UpdateStatusFunc(ctx, id, status, reply)
}

type memSettings struct {
	values map[string]models.SiteSetting
}

func (m *memSettings) List(context.Context) ([]models.SiteSetting, error) {
	var out []models.SiteSetting
	for _, st := range m.values {
		out = append(out, st)
	}
	return out, nil
}
func (m *memSettings) Upsert(_ context.Context, st models.SiteSetting) error {
	m.values[st.Key] = st
	return nil
}
func (m *memSettings) InsertDefault(_ context.Context, st models.SiteSetting) error {
	if _, ok := m.values[st.Key]; !ok {
		m.values[st.Key] = st
	}
	return nil
}

type fixedStats struct {
	dashboard models.DashboardStats
	tables    []models.TableStat
}

func (f fixedStats) Dashboard(context.Context) (models.DashboardStats, error) { return f.dashboard, nil }
func (f fixedStats) TableCounts(context.Context) ([]models.TableStat, error) { return f.tables, nil }

func newAdminService(users AdminUserRepository, feedback FeedbackRepository, stats StatsRepository) (*AdminService, *memActivity, *memSettings) {
	log := &memActivity{}
	settings := &memSettings{values: map[string]models.SiteSetting{}}
	svc := NewAdminService(users, feedback, settings, stats, plainHasher{}, NewRecorder(log), noTx{})
	return svc, log, settings
}

func TestAdminService_DeleteUser(t *testing.T) {
	repo, byID := memUsers(nil)
	deleted := ""
	repo.DeleteFunc = func(_ context.Context, id string) error {
		deleted = id
		return nil
	}
	byID["u1"] = &models.User{ID: "u1", Role: models.RoleUser}
	byID["a1"] = &models.User{ID: "a1", Role: models.RoleAdmin}
	svc, _, _ := newAdminService(repo, nil, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteUser(ctx, "missing"), models.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteUser(ctx, "a1"), ErrAdminProtected)
	assert.Empty(t, deleted)

	require.NoError(t, svc.DeleteUser(ctx, "u1"))
	assert.Equal(t, "u1", deleted)
}

func TestAdminService_ResetPassword(t *testing.T) {
	repo, byID := memUsers(nil)
	byID["u1"] = &models.User{ID: "u1", Name: "Bob", PasswordHash: []byte("hashed:old")}
	svc, log, _ := newAdminService(repo, nil, nil)
	ctx := context.Background()

	err := svc.ResetPassword(ctx, "u1", "short")
	var multi *validate.MultiError
	require.True(t, errors.As(err, &multi))

	assert.ErrorIs(t, svc.ResetPassword(ctx, "missing", "secret1"), models.ErrNotFound)

	require.NoError(t, svc.ResetPassword(ctx, "u1", "secret1"))
	assert.Equal(t, "hashed:secret1", string(byID["u1"].PasswordHash))
	require.Len(t, log.records, 1)
	assert.Equal(t, "u1", log.records[0].UserID)
	assert.Equal(t, models.CategoryUser, log.records[0].Type)
	assert.Equal(t, "Password reset for Bob", log.records[0].Details)
}

func TestAdminService_UpdateFeedback(t *testing.T) {
	var gotStatus models.FeedbackStatus
	var gotReply string
	repo := &mockFeedbackRepo{
		UpdateStatusFunc: func(_ context.Context, id string, status models.FeedbackStatus, reply string) error {
			if id == "missing" {
				return models.ErrNotFound
			}
			gotStatus, gotReply = status, reply
			return nil
		},
	}
	svc, _, _ := newAdminService(nil, repo, nil)
	ctx := context.Background()

	err := svc.UpdateFeedback(ctx, "f1", FeedbackUpdate{Status: "DONE"})
	var multi *validate.MultiError
	require.True(t, errors.As(err, &multi))
	assert.Equal(t, "status", multi.Errors[0].Field)

	assert.ErrorIs(t, svc.UpdateFeedback(ctx, "missing", FeedbackUpdate{Status: models.FeedbackClosed}), models.ErrNotFound)

	require.NoError(t, svc.UpdateFeedback(ctx, "f1", FeedbackUpdate{Status: models.FeedbackResolved, AdminReply: " fixed "}))
	assert.Equal(t, models.FeedbackResolved, gotStatus)
	assert.Equal(t, "fixed", gotReply)
}

func TestAdminService_UpsertSetting(t *testing.T) {
	svc, _, settings := newAdminService(nil, nil, nil)
	ctx := context.Background()

	err := svc.UpsertSetting(ctx, models.SiteSetting{Key: " ", Value: ""})
	var multi *validate.MultiError
	require.True(t, errors.As(err, &multi))
	assert.Len(t, multi.Errors, 2)

	require.NoError(t, svc.UpsertSetting(ctx, models.SiteSetting{Key: "max_users", Value: "50"}))
	assert.Equal(t, "50", settings.values["max_users"].Value)
}

func TestAdminService_Database(t *testing.T) {
	stats := fixedStats{tables: []models.TableStat{{Table: "users", Count: 3}, {Table: "tasks", Count: 7}}}
	svc, _, _ := newAdminService(nil, nil, stats)
	now := time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	db, err := svc.Database(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, db.TotalRecords)
	assert.Equal(t, now, db.LastUpdated)
	assert.Len(t, db.TableStats, 2)
}

func TestAdminService_Bootstrap(t *testing.T) {
	repo, byID := memUsers(nil)
	svc, _, settings := newAdminService(repo, nil, nil)
	ctx := context.Background()
	settings.values["site_name"] = models.SiteSetting{Key: "site_name", Value: "Custom"}

	account := AdminAccount{Email: "Admin@System.Local", Password: "admin123"}
	created, err := svc.Bootstrap(ctx, account, DefaultSettings)
	require.NoError(t, err)
	assert.True(t, created)

	require.Len(t, byID, 1)
	for _, u := range byID {
		assert.Equal(t, "admin@system.local", u.Email)
		assert.Equal(t, "admin", u.Username)
		assert.Equal(t, "Administrator", u.Name)
		assert.True(t, u.IsAdmin())
		assert.True(t, u.Hidden)
	}
	assert.Len(t, settings.values, len(DefaultSettings))
	assert.Equal(t, "Custom", settings.values["site_name"].Value)

	created, err = svc.Bootstrap(ctx, account, DefaultSettings)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, byID, 1)
}

func TestFeedbackService_Submit(t *testing.T) {
	var stored *models.Feedback
	repo := &mockFeedbackRepo{
		CreateFunc: func(_ context.Context, f *models.Feedback) error {
			stored = f
			return nil
		},
	}
	svc := NewFeedbackService(repo)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "", FeedbackInput{Type: "IDEA", Title: " ", Email: "bad"})
	var multi *validate.MultiError
	require.True(t, errors.As(err, &multi))
	assert.Len(t, multi.Errors, 4)
	assert.Nil(t, stored)

	f, err := svc.Submit(ctx, "", FeedbackInput{Type: models.FeedbackBug, Title: "Crash", Message: "on save"})
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackOpen, f.Status)
	assert.Empty(t, f.UserID)
	assert.Same(t, f, stored)

	f, err = svc.Submit(ctx, alice, FeedbackInput{Type: models.FeedbackGeneral, Title: "Nice", Message: "thanks"})
	require.NoError(t, err)
	assert.Equal(t, alice, f.UserID)
}

func TestFinanceService_BalanceExcludesOthers(t *testing.T) {
	ctx := context.Background()
	txs, _, _ := newKindService(NewTransactionKind("RUB"))
	svc := NewFinanceService(txs)

	add := func(owner string, typ models.TransactionType, amount int64, vis models.Visibility) {
		t.Helper()
		_, err := txs.Create(ctx, owner, &models.TransactionInput{
			Title:   ptr("t"),
			Amount:  ptr(decimal.NewFromInt(amount)),
			Type:    ptr(typ),
			Sharing: models.Sharing{Visibility: ptr(vis)},
		})
		require.NoError(t, err)
	}
	add(alice, models.Income, 1000, models.Private)
	add(alice, models.Expense, 400, models.Private)
	add(bob, models.Income, 5000, models.Public)

	list, balance, err := svc.ListWithBalance(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, "600", balance.String())

	stats, err := svc.Stats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TransactionCount)
	assert.Equal(t, "600", stats.Balance.String())
}
