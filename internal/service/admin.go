package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/validate"
)

// ErrAdminProtected is returned when an admin action targets an admin account.
var ErrAdminProtected = errors.New("admin accounts cannot be modified here")

// AdminUserRepository is the user persistence the admin console needs.
type AdminUserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, hash []byte) error
	Delete(ctx context.Context, id string) error
	ListOverview(ctx context.Context) ([]models.UserOverview, error)
}

// SettingsRepository stores site settings.
type SettingsRepository interface {
	List(ctx context.Context) ([]models.SiteSetting, error)
	Upsert(ctx context.Context, st models.SiteSetting) error
	InsertDefault(ctx context.Context, st models.SiteSetting) error
}

// StatsRepository computes row counts.
type StatsRepository interface {
	Dashboard(ctx context.Context) (models.DashboardStats, error)
	TableCounts(ctx context.Context) ([]models.TableStat, error)
}

// FeedbackUpdate is the admin moderation payload.
type FeedbackUpdate struct {
	Status     models.FeedbackStatus `json:"status"`
	AdminReply string                `json:"adminReply"`
}

// AdminAccount describes the bootstrap administrator.
type AdminAccount struct {
	Email    string
	Password string
	Name     string
}

// DefaultSettings are created by Bootstrap when missing.
var DefaultSettings = []models.SiteSetting{
	{Key: "site_name", Value: "Minihub", Description: "Site name"},
	{Key: "site_description", Value: "Personal productivity hub", Description: "Site description"},
	{Key: "max_users", Value: "1000", Description: "Maximum number of users"},
	{Key: "registration_enabled", Value: "true", Description: "Whether new users may register"},
}

// AdminService implements the admin console. Callers must have checked
// the admin role.
type AdminService struct {
	users    AdminUserRepository
	feedback FeedbackRepository
	settings SettingsRepository
	stats    StatsRepository
	hasher   PasswordHasher
	recorder *Recorder
	tx       TxRunner
	now      func() time.Time
}

// NewAdminService constructs an AdminService.
func NewAdminService(
	users AdminUserRepository,
	feedback FeedbackRepository,
	settings SettingsRepository,
	stats StatsRepository,
	hasher PasswordHasher,
	recorder *Recorder,
	tx TxRunner,
) *AdminService {
	return &AdminService{
		users:    users,
		feedback: feedback,
		settings: settings,
		stats:    stats,
		hasher:   hasher,
		recorder: recorder,
		tx:       tx,
		now:      time.Now,
	}
}

// Dashboard returns content counts.
func (s *AdminService) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	return s.stats.Dashboard(ctx)
}

// Users lists non-hidden accounts with their item counts.
func (s *AdminService) Users(ctx context.Context) ([]models.UserOverview, error) {
	return s.users.ListOverview(ctx)
}

// DeleteUser removes a non-admin account and everything it owns.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return ErrAdminProtected
	}
	return s.users.Delete(ctx, id)
}

// ResetPassword sets a new password for the user and records it in the
// user's activity log.
func (s *AdminService) ResetPassword(ctx context.Context, id, newPassword string) error {
	var errs validate.MultiError
	errs.Add(validate.MinLength("newPassword", newPassword, minPasswordLength))
	if err := errs.Err(); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return inTx(ctx, s.tx, func(ctx context.Context) error {
		if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
			return err
		}
		return s.recorder.Record(ctx, id, models.CategoryUser,
			"Password reset by administrator", "Password reset for "+user.Name)
	})
}

// Feedbacks lists every ticket with its author.
func (s *AdminService) Feedbacks(ctx context.Context) ([]models.Feedback, error) {
	return s.feedback.ListAll(ctx)
}

// UpdateFeedback sets a ticket's status and optional reply.
func (s *AdminService) UpdateFeedback(ctx context.Context, id string, in FeedbackUpdate) error {
	if !in.Status.Valid() {
		var errs validate.MultiError
		errs.Add(validate.OneOf("status", string(in.Status),
			string(models.FeedbackOpen), string(models.FeedbackInProgress),
			string(models.FeedbackResolved), string(models.FeedbackClosed)))
		return errs.Err()
	}
	return s.feedback.UpdateStatus(ctx, id, in.Status, strings.TrimSpace(in.AdminReply))
}

// Settings lists site settings.
func (s *AdminService) Settings(ctx context.Context) ([]models.SiteSetting, error) {
	return s.settings.List(ctx)
}

// UpsertSetting creates or replaces a site setting.
func (s *AdminService) UpsertSetting(ctx context.Context, st models.SiteSetting) error {
	st.Key = strings.TrimSpace(st.Key)
	var errs validate.MultiError
	errs.Add(validate.NonEmptyString("key", st.Key))
	errs.Add(validate.NonEmptyString("value", st.Value))
	if err := errs.Err(); err != nil {
		return err
	}
	return s.settings.Upsert(ctx, st)
}

// Database returns per-table row counts.
func (s *AdminService) Database(ctx context.Context) (models.DatabaseStats, error) {
	counts, err := s.stats.TableCounts(ctx)
	if err != nil {
		return models.DatabaseStats{}, err
	}
	st := models.DatabaseStats{TableStats: counts, LastUpdated: s.now()}
	for _, c := range counts {
		st.TotalRecords += c.Count
	}
	return st, nil
}

// Bootstrap creates the admin account when no account uses its email and
// inserts settings that do not exist yet. It reports whether the admin
// was created.
func (s *AdminService) Bootstrap(ctx context.Context, admin AdminAccount, settings []models.SiteSetting) (bool, error) {
	created := false
	err := inTx(ctx, s.tx, func(ctx context.Context) error {
		email := normalizeEmail(admin.Email)
		_, err := s.users.GetByEmail(ctx, email)
		switch {
		case errors.Is(err, models.ErrNotFound):
			if err := s.createAdmin(ctx, email, admin); err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		}
		for _, st := range settings {
			if err := s.settings.InsertDefault(ctx, st); err != nil {
				return err
			}
		}
		return nil
	})
	return created, err
}

func (s *AdminService) createAdmin(ctx context.Context, email string, admin AdminAccount) error {
	var errs validate.MultiError
	errs.Add(validate.IsEmail("email", email))
	errs.Add(validate.MinLength("password", admin.Password, minPasswordLength))
	if err := errs.Err(); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(admin.Password)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(admin.Name)
	if name == "" {
		name = "Administrator"
	}
	now := s.now()
	return s.users.Create(ctx, &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     "admin",
		Name:         name,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Hidden:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}
