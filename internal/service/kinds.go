package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/validate"
)

// TaskKind configures tasks.
var TaskKind = Kind[models.Task, models.TaskInput]{
	Category: models.CategoryTask,
	Header:   func(t *models.Task) *models.Resource { return &t.Resource },
	Title:    func(t *models.Task) string { return t.Title },
	Sharing:  func(p *models.TaskInput) *models.Sharing { return &p.Sharing },
	Validate: func(p *models.TaskInput, create bool) error {
		var errs validate.MultiError
		errs.Add(requiredText("title", p.Title, create))
		return errs.Err()
	},
	Apply: func(t *models.Task, p *models.TaskInput) {
		setTrimmed(&t.Title, p.Title)
		setTrimmed(&t.Description, p.Description)
		if p.Completed != nil {
			t.Completed = *p.Completed
		}
	},
	Created: func(t *models.Task) (string, string) { return "Task created", t.Title },
	Updated: func(before, after *models.Task) (string, string) {
		if !before.Completed && after.Completed {
			return "Task completed", after.Title
		}
		return "Task updated", after.Title
	},
	Deleted: func(t *models.Task) (string, string) { return "Task deleted", t.Title },
}

// NoteKind configures notes.
var NoteKind = Kind[models.Note, models.NoteInput]{
	Category: models.CategoryNote,
	Header:   func(n *models.Note) *models.Resource { return &n.Resource },
	Title:    func(n *models.Note) string { return n.Title },
	Sharing:  func(p *models.NoteInput) *models.Sharing { return &p.Sharing },
	Validate: func(p *models.NoteInput, create bool) error {
		var errs validate.MultiError
		errs.Add(requiredText("title", p.Title, create))
		errs.Add(requiredText("content", p.Content, create))
		return errs.Err()
	},
	Apply: func(n *models.Note, p *models.NoteInput) {
		setTrimmed(&n.Title, p.Title)
		if p.Content != nil {
			n.Content = *p.Content
		}
	},
	Created: func(n *models.Note) (string, string) { return "Note created", n.Title },
	Updated: func(_, after *models.Note) (string, string) { return "Note updated", after.Title },
	Deleted: func(n *models.Note) (string, string) { return "Note deleted", n.Title },
}

// GoalKind configures goals.
var GoalKind = Kind[models.Goal, models.GoalInput]{
	Category: models.CategoryGoal,
	Header:   func(g *models.Goal) *models.Resource { return &g.Resource },
	Title:    func(g *models.Goal) string { return g.Title },
	Sharing:  func(p *models.GoalInput) *models.Sharing { return &p.Sharing },
	Validate: func(p *models.GoalInput, create bool) error {
		var errs validate.MultiError
		errs.Add(requiredText("title", p.Title, create))
		if p.Progress != nil {
			errs.Add(validate.IntRange("progress", *p.Progress, 0, 100))
		}
		if p.Deadline != nil {
			if _, err := parseDeadline(*p.Deadline); err != nil {
				errs.Add(validate.Fail("deadline", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"))
			}
		}
		return errs.Err()
	},
	Apply: func(g *models.Goal, p *models.GoalInput) {
		setTrimmed(&g.Title, p.Title)
		setTrimmed(&g.Description, p.Description)
		if p.Progress != nil {
			g.Progress = *p.Progress
		}
		if p.Deadline != nil {
			g.Deadline, _ = parseDeadline(*p.Deadline)
		}
	},
	Created: func(g *models.Goal) (string, string) { return "Goal created", g.Title },
	Updated: func(before, after *models.Goal) (string, string) {
		switch {
		case before.Progress < 100 && after.Progress == 100:
			return "Goal completed", after.Title
		case before.Progress != after.Progress:
			return fmt.Sprintf("Goal progress updated (%d%%)", after.Progress), after.Title
		}
		return "Goal updated", after.Title
	},
	Deleted: func(g *models.Goal) (string, string) { return "Goal deleted", g.Title },
}

// maxAmount is the first value a NUMERIC(14,2) column cannot hold.
var maxAmount = decimal.New(1, 12)

// NewTransactionKind configures transactions. Payloads without a currency
// get defaultCurrency.
func NewTransactionKind(defaultCurrency string) Kind[models.Transaction, models.TransactionInput] {
	return Kind[models.Transaction, models.TransactionInput]{
		Category: models.CategoryTransaction,
		Header:   func(t *models.Transaction) *models.Resource { return &t.Resource },
		Title:    func(t *models.Transaction) string { return t.Title },
		Sharing:  func(p *models.TransactionInput) *models.Sharing { return &p.Sharing },
		Validate: func(p *models.TransactionInput, create bool) error {
			var errs validate.MultiError
			errs.Add(requiredText("title", p.Title, create))
			switch {
			case p.Amount != nil && !p.Amount.IsPositive():
				errs.Add(validate.Fail("amount", "must be a positive number"))
			case p.Amount != nil && !p.Amount.Equal(p.Amount.Truncate(2)):
				errs.Add(validate.Fail("amount", "must have at most 2 decimal places"))
			case p.Amount != nil && p.Amount.GreaterThanOrEqual(maxAmount):
				errs.Add(validate.Fail("amount", "must be less than 1000000000000"))
			case p.Amount == nil && create:
				errs.Add(validate.Fail("amount", "is required"))
			}
			switch {
			case p.Type != nil && !p.Type.Valid():
				errs.Add(validate.OneOf("type", string(*p.Type), string(models.Income), string(models.Expense)))
			case p.Type == nil && create:
				errs.Add(validate.Fail("type", "is required"))
			}
			if p.Currency != nil {
				errs.Add(validate.IsCurrencyCode("currency", strings.ToUpper(*p.Currency)))
			}
			return errs.Err()
		},
		Apply: func(t *models.Transaction, p *models.TransactionInput) {
			setTrimmed(&t.Title, p.Title)
			if p.Amount != nil {
				t.Amount = *p.Amount
			}
			if p.Type != nil {
				t.Type = *p.Type
			}
			if p.Currency != nil {
				t.Currency = strings.ToUpper(*p.Currency)
			}
			if t.Currency == "" {
				t.Currency = defaultCurrency
			}
		},
		Created: func(t *models.Transaction) (string, string) {
			action, sign := "Income added", "+"
			if t.Type == models.Expense {
				action, sign = "Expense added", "-"
			}
			return action, fmt.Sprintf("%s%s %s %s", sign, t.Amount.String(), t.Currency, t.Title)
		},
		Updated: func(_, after *models.Transaction) (string, string) { return "Transaction updated", after.Title },
		Deleted: func(t *models.Transaction) (string, string) { return "Transaction deleted", t.Title },
	}
}

// ArticleKind configures articles. PUBLIC articles are readable by
// non-owners only once published.
var ArticleKind = Kind[models.Article, models.ArticleInput]{
	Category:   models.CategoryArticle,
	Header:     func(a *models.Article) *models.Resource { return &a.Resource },
	Title:      func(a *models.Article) string { return a.Title },
	PublicGate: func(a *models.Article) bool { return a.Published },
	Sharing:    func(p *models.ArticleInput) *models.Sharing { return &p.Sharing },
	Validate: func(p *models.ArticleInput, create bool) error {
		var errs validate.MultiError
		errs.Add(requiredText("title", p.Title, create))
		errs.Add(requiredText("content", p.Content, create))
		return errs.Err()
	},
	Apply: func(a *models.Article, p *models.ArticleInput) {
		setTrimmed(&a.Title, p.Title)
		if p.Content != nil {
			a.Content = *p.Content
		}
		if p.Published != nil {
			a.Published = *p.Published
		}
	},
	Created: func(a *models.Article) (string, string) {
		if a.Published {
			return "Article published", a.Title
		}
		return "Article created", a.Title
	},
	Updated: func(before, after *models.Article) (string, string) {
		switch {
		case !before.Published && after.Published:
			return "Article published", after.Title
		case before.Published && !after.Published:
			return "Article unpublished", after.Title
		}
		return "Article updated", after.Title
	},
	Deleted: func(a *models.Article) (string, string) { return "Article deleted", a.Title },
}

// requiredText checks a text field that must be present on create and,
// when present, must not be blank.
func requiredText(field string, v *string, create bool) error {
	if v == nil {
		if create {
			return validate.Fail(field, "is required")
		}
		return nil
	}
	return validate.NonEmptyString(field, *v)
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// parseDeadline accepts RFC 3339 or YYYY-MM-DD. An empty string clears the deadline.
func parseDeadline(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid deadline %q", s)
}
