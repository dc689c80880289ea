package models

import "time"

// Activity is an append-only record of something a user did.
type Activity struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Type      Category  `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedQuery selects a page of the requester's own activity.
type FeedQuery struct {
	Limit  int
	Offset int
	// Type restricts results to one category when non-empty.
	Type Category
}

// DailyCount is one day of the activity histogram.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// FeedStats summarizes recent activity of a user.
type FeedStats struct {
	TotalActivities int              `json:"totalActivities"`
	CountsByType    map[Category]int `json:"countsByType"`
	DailyActivity   []DailyCount     `json:"dailyActivity"`
}
