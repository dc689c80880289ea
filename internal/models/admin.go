package models

import "time"

// FeedbackType classifies a feedback ticket.
type FeedbackType string

const (
	FeedbackGeneral FeedbackType = "FEEDBACK"
	FeedbackBug     FeedbackType = "BUG"
)

// FeedbackStatus is the moderation state of a ticket.
type FeedbackStatus string

const (
	FeedbackOpen       FeedbackStatus = "OPEN"
	FeedbackInProgress FeedbackStatus = "IN_PROGRESS"
	FeedbackResolved   FeedbackStatus = "RESOLVED"
	FeedbackClosed     FeedbackStatus = "CLOSED"
)

// Valid reports whether s is a known status.
func (s FeedbackStatus) Valid() bool {
	switch s {
	case FeedbackOpen, FeedbackInProgress, FeedbackResolved, FeedbackClosed:
		return true
	}
	return false
}

// Feedback is a user-submitted ticket.
type Feedback struct {
	ID         string         `json:"id"`
	Type       FeedbackType   `json:"type"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Email      string         `json:"email,omitempty"`
	UserID     string         `json:"userId,omitempty"`
	Status     FeedbackStatus `json:"status"`
	AdminReply string         `json:"adminReply,omitempty"`
	// User is populated in admin listings only.
	User      *UserSummary `json:"user,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// SiteSetting is a key/value pair managed from the admin console.
type SiteSetting struct {
	Key         string    `json:"key" yaml:"key"`
	Value       string    `json:"value" yaml:"value"`
	Description string    `json:"description,omitempty" yaml:"description"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"-"`
}

// ResourceCounts holds per-kind item counts.
type ResourceCounts struct {
	Tasks        int `json:"tasks"`
	Notes        int `json:"notes"`
	Goals        int `json:"goals"`
	Transactions int `json:"transactions"`
	Articles     int `json:"articles"`
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	Users int `json:"users"`
	ResourceCounts
	Feedbacks int `json:"feedbacks"`
}

// UserOverview is a user row in the admin console.
type UserOverview struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Username  string         `json:"username,omitempty"`
	Name      string         `json:"name"`
	Role      Role           `json:"role"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Counts    ResourceCounts `json:"_count"`
}

// TableStat is the row count of a single table.
type TableStat struct {
	Table string `json:"table"`
	Count int    `json:"count"`
}

// DatabaseStats is the admin database overview.
type DatabaseStats struct {
	TableStats   []TableStat `json:"tableStats"`
	TotalRecords int         `json:"totalRecords"`
	LastUpdated  time.Time   `json:"lastUpdated"`
}
