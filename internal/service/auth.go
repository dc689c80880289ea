package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/minihub/internal/auth"
	"github.com/atinyakov/minihub/internal/metrics"
	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/validate"
)

// ErrInvalidCredentials is returned for an unknown email, a wrong password,
// or a non-admin signing in to the admin console.
var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	minPasswordLength = 6
	minNameLength     = 2
	handleAttempts    = 100
)

// UserRepository defines the persistence operations on user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	// GetByID returns models.ErrNotFound for an unknown id.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByEmail returns models.ErrNotFound for an unknown email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id string, hash []byte) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Check(hash []byte, password string) bool
}

// TokenManager issues and verifies bearer tokens.
type TokenManager interface {
	Issue(user *models.User) (string, error)
	Parse(token string) (*auth.Claims, error)
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginInput is the sign-in payload.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileInput carries the mutable profile fields. Nil fields are kept.
type ProfileInput struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
}

// PasswordInput is the password change payload.
type PasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Session is a signed-in user with their bearer token.
type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// AuthService implements registration, sign-in and profile management.
type AuthService struct {
	users    UserRepository
	hasher   PasswordHasher
	tokens   TokenManager
	recorder *Recorder
	tx       TxRunner
	now      func() time.Time
	randN    func(n int) int
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserRepository, hasher PasswordHasher, tokens TokenManager, recorder *Recorder, tx TxRunner) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		recorder: recorder,
		tx:       tx,
		now:      time.Now,
		randN:    rand.IntN,
	}
}

// Register creates a USER account with an auto-generated user<N> handle
// and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	var errs validate.MultiError
	errs.Add(validate.IsEmail("email", in.Email))
	errs.Add(validate.MinLength("password", in.Password, minPasswordLength))
	errs.Add(validate.MinLength("name", in.Name, minNameLength))
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		authEvent("register", "conflict")
		return nil, models.ErrEmailTaken
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = inTx(ctx, s.tx, func(ctx context.Context) error {
		if err := s.createWithHandle(ctx, user); err != nil {
			return err
		}
		return s.recorder.Record(ctx, user.ID, models.CategoryUser,
			"Registered", fmt.Sprintf("New user %s (%s)", user.Name, user.Username))
	})
	if err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			authEvent("register", "conflict")
		}
		return nil, err
	}

	authEvent("register", "ok")
	return s.session(user)
}

// createWithHandle picks a free user<N> handle starting at a random N and
// inserts the user, moving to the next N if a concurrent insert took it.
func (s *AuthService) createWithHandle(ctx context.Context, user *models.User) error {
	n := s.randN(10000) + 1
	for i := 0; i < handleAttempts; i, n = i+1, n+1 {
		handle := fmt.Sprintf("user%d", n)
		taken, err := s.users.UsernameExists(ctx, handle)
		if err != nil {
			return err
		}
		if taken {
			continue
		}
		user.Username = handle
		err = s.users.Create(ctx, user)
		if errors.Is(err, models.ErrUsernameTaken) {
			continue
		}
		return err
	}
	return errors.New("no free username found")
}

// Login checks the credentials and returns a new session.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	user, err := s.checkCredentials(ctx, in)
	if err != nil {
		authEvent("login", "fail")
		return nil, err
	}
	err = s.recorder.Record(ctx, user.ID, models.CategoryUser, "Signed in", "User "+user.Name)
	if err != nil {
		return nil, err
	}
	authEvent("login", "ok")
	return s.session(user)
}

// AdminLogin is Login restricted to ADMIN accounts. Other accounts get
// ErrInvalidCredentials.
func (s *AuthService) AdminLogin(ctx context.Context, in LoginInput) (*Session, error) {
	user, err := s.checkCredentials(ctx, in)
	if err == nil && !user.IsAdmin() {
		err = ErrInvalidCredentials
	}
	if err != nil {
		authEvent("admin_login", "fail")
		return nil, err
	}
	authEvent("admin_login", "ok")
	return s.session(user)
}

// Authenticate resolves a bearer token to its user. Tokens of deleted
// users are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	return user, err
}

// Profile returns the user's own account.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile changes the display name and handle.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	var name, username string
	var errs validate.MultiError
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
		errs.Add(validate.MinLength("name", name, minNameLength))
	}
	if in.Username != nil {
		username = strings.TrimSpace(*in.Username)
		errs.Add(validate.MinLength("username", username, 3))
		errs.Add(validate.MaxLength("username", username, 32))
		if strings.Contains(username, "@") {
			errs.Add(validate.Fail("username", "must not contain @"))
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		user.Name = name
	}
	if in.Username != nil {
		user.Username = username
	}
	user.UpdatedAt = s.now()

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			return nil, validate.Fail("username", "is already taken")
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, in PasswordInput) error {
	var errs validate.MultiError
	errs.Add(validate.MinLength("newPassword", in.NewPassword, minPasswordLength))
	if err := errs.Err(); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Check(user.PasswordHash, in.CurrentPassword) {
		return ErrInvalidCredentials
	}
	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

func (s *AuthService) checkCredentials(ctx context.Context, in LoginInput) (*models.User, error) {
	var errs validate.MultiError
	errs.Add(validate.IsEmail("email", normalizeEmail(in.Email)))
	errs.Add(validate.NonEmptyString("password", in.Password))
	if err := errs.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(in.Email))
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Check(user.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func authEvent(event, result string) {
	metrics.AuthEvents.WithLabelValues(event, result).Inc()
}
