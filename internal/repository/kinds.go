package repository

import (
	"database/sql"

	"github.com/atinyakov/minihub/internal/models"
)

// TaskTable maps tasks.
var TaskTable = Table[models.Task]{
	Name:       "tasks",
	ShareTable: "task_shares",
	ShareKey:   "task_id",
	OrderBy:    "created_at",
	Columns:    []string{"title", "description", "completed"},
	Header:     func(t *models.Task) *models.Resource { return &t.Resource },
	Fields:     func(t *models.Task) []any { return []any{&t.Title, &t.Description, &t.Completed} },
	Values:     func(t *models.Task) []any { return []any{t.Title, t.Description, t.Completed} },
}

// NoteTable maps notes.
var NoteTable = Table[models.Note]{
	Name:       "notes",
	ShareTable: "note_shares",
	ShareKey:   "note_id",
	OrderBy:    "updated_at",
	Columns:    []string{"title", "content"},
	Header:     func(n *models.Note) *models.Resource { return &n.Resource },
	Fields:     func(n *models.Note) []any { return []any{&n.Title, &n.Content} },
	Values:     func(n *models.Note) []any { return []any{n.Title, n.Content} },
}

// GoalTable maps goals.
var GoalTable = Table[models.Goal]{
	Name:       "goals",
	ShareTable: "goal_shares",
	ShareKey:   "goal_id",
	OrderBy:    "created_at",
	Columns:    []string{"title", "description", "progress", "deadline"},
	Header:     func(g *models.Goal) *models.Resource { return &g.Resource },
	Fields:     func(g *models.Goal) []any { return []any{&g.Title, &g.Description, &g.Progress, &g.Deadline} },
	Values:     func(g *models.Goal) []any { return []any{g.Title, g.Description, g.Progress, g.Deadline} },
}

// TransactionTable maps transactions.
var TransactionTable = Table[models.Transaction]{
	Name:       "transactions",
	ShareTable: "transaction_shares",
	ShareKey:   "transaction_id",
	OrderBy:    "created_at",
	Columns:    []string{"title", "amount", "currency", "type"},
	Header:     func(t *models.Transaction) *models.Resource { return &t.Resource },
	Fields:     func(t *models.Transaction) []any { return []any{&t.Title, &t.Amount, &t.Currency, &t.Type} },
	Values:     func(t *models.Transaction) []any { return []any{t.Title, t.Amount, t.Currency, t.Type} },
}

// ArticleTable maps articles. PUBLIC articles are listed for others only once published.
var ArticleTable = Table[models.Article]{
	Name:            "articles",
	ShareTable:      "article_shares",
	ShareKey:        "article_id",
	OrderBy:         "updated_at",
	Columns:         []string{"title", "content", "published"},
	PublicGate:      "r.published",
	PublishedColumn: "published",
	Header:          func(a *models.Article) *models.Resource { return &a.Resource },
	Fields:          func(a *models.Article) []any { return []any{&a.Title, &a.Content, &a.Published} },
	Values:          func(a *models.Article) []any { return []any{a.Title, a.Content, a.Published} },
}

// NewTaskRepository creates the task repository.
func NewTaskRepository(db *sql.DB) *ResourceRepository[models.Task] {
	return NewResourceRepository(db, TaskTable)
}

// NewNoteRepository creates the note repository.
func NewNoteRepository(db *sql.DB) *ResourceRepository[models.Note] {
	return NewResourceRepository(db, NoteTable)
}

// NewGoalRepository creates the goal repository.
func NewGoalRepository(db *sql.DB) *ResourceRepository[models.Goal] {
	return NewResourceRepository(db, GoalTable)
}

// NewTransactionRepository creates the transaction repository.
func NewTransactionRepository(db *sql.DB) *ResourceRepository[models.Transaction] {
	return NewResourceRepository(db, TransactionTable)
}

// NewArticleRepository creates the article repository.
func NewArticleRepository(db *sql.DB) *ResourceRepository[models.Article] {
	return NewResourceRepository(db, ArticleTable)
}
