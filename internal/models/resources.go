package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Resource is the header shared by every owned, visibility-scoped item.
type Resource struct {
	ID      string      `json:"id"`
	OwnerID string      `json:"userId"`
	Owner   UserSummary `json:"user"`
	// Visibility is serialized as "privacy" to match the public API.
	Visibility Visibility    `json:"privacy"`
	SharedWith []UserSummary `json:"sharedWith"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// IsGrantee reports whether userID belongs to the share-set.
func (r *Resource) IsGrantee(userID string) bool {
	for _, u := range r.SharedWith {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// Task is a to-do item.
type Task struct {
	Resource
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Note is a free-form text note.
type Note struct {
	Resource
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Goal tracks progress towards a target in percent.
type Goal struct {
	Resource
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Progress    int        `json:"progress"`
	Deadline    *time.Time `json:"deadline"`
}

// TransactionType distinguishes income from expenses.
type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// Valid reports whether t is INCOME or EXPENSE.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Transaction is a single financial movement.
type Transaction struct {
	Resource
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Type     TransactionType `json:"type"`
}

// Article is a long-form text that can be published.
type Article struct {
	Resource
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

// Sharing carries the visibility fields of a create or update payload.
// SharedWith holds emails or usernames of the intended grantees.
type Sharing struct {
	Visibility *Visibility `json:"privacy"`
	SharedWith []string    `json:"sharedWith"`
}

// TaskInput is the create/update payload for tasks. Nil fields are left untouched.
type TaskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	Sharing
}

// NoteInput is the create/update payload for notes.
type NoteInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Sharing
}

// GoalInput is the create/update payload for goals.
// Deadline accepts RFC 3339 or YYYY-MM-DD; an empty string clears it.
type GoalInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Progress    *int    `json:"progress"`
	Deadline    *string `json:"deadline"`
	Sharing
}

// TransactionInput is the create/update payload for transactions.
type TransactionInput struct {
	Title    *string          `json:"title"`
	Amount   *decimal.Decimal `json:"amount"`
	Currency *string          `json:"currency"`
	Type     *TransactionType `json:"type"`
	Sharing
}

// ArticleInput is the create/update payload for articles.
type ArticleInput struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
	Sharing
}

// ListFilter narrows list queries. Published applies to articles only.
type ListFilter struct {
	Published *bool
}
