// Package models defines the core data structures for users, owned
// resources, activity records and administrative data.
package models

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when an email is already registered.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrUsernameTaken is returned when a handle is already in use.
	ErrUsernameTaken = errors.New("username already taken")
)

// Role is the authorization tier of a user.
type Role string

const (
	// RoleUser is the default role of every registered account.
	RoleUser Role = "USER"
	// RoleAdmin grants access to the admin console.
	RoleAdmin Role = "ADMIN"
)

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Email is the login identity, unique across users.
	Email string `json:"email"`
	// Username is the public handle used for sharing, unique across users.
	Username string `json:"username,omitempty"`
	// Name is the display name.
	Name string `json:"name"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte `json:"-"`
	// Role is the authorization tier.
	Role Role `json:"role"`
	// Hidden excludes the account from admin listings.
	Hidden    bool      `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Summary returns the public projection of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Username: u.Username}
}

// UserSummary is the owner and grantee projection embedded in resources.
type UserSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// Visibility is the per-item read policy of a resource.
type Visibility string

const (
	// Private resources are readable by their owner only.
	Private Visibility = "PRIVATE"
	// Public resources are readable by every authenticated user.
	Public Visibility = "PUBLIC"
	// Specific resources are readable by the owner and the share-set.
	Specific Visibility = "SPECIFIC"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	switch v {
	case Private, Public, Specific:
		return true
	}
	return false
}

// Category tags activity records with the kind of entity they describe.
type Category string

const (
	CategoryUser        Category = "USER"
	CategoryTask        Category = "TASK"
	CategoryNote        Category = "NOTE"
	CategoryGoal        Category = "GOAL"
	CategoryTransaction Category = "TRANSACTION"
	CategoryArticle     Category = "ARTICLE"
)

// Categories lists every activity category in display order.
var Categories = []Category{
	CategoryUser,
	CategoryTask,
	CategoryNote,
	CategoryGoal,
	CategoryTransaction,
	CategoryArticle,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
