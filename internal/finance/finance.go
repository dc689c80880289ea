// Package finance derives balances and monthly breakdowns from transactions.
// Nothing here is persisted.
package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atinyakov/minihub/internal/models"
)

// MonthStat is one calendar month of the yearly breakdown.
type MonthStat struct {
	Month    int             `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

// Summary is the aggregate view of a user's own transactions.
type Summary struct {
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int             `json:"transactionCount"`
	MonthlyStats     []MonthStat     `json:"monthlyStats"`
}

// Balance returns the sum of INCOME minus the sum of EXPENSE over the
// transactions owned by ownerID. Others' transactions are ignored.
func Balance(txs []*models.Transaction, ownerID string) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.OwnerID != ownerID {
			continue
		}
		total = total.Add(signed(tx))
	}
	return total
}

// Summarize aggregates txs, which must all belong to one user. The monthly
// breakdown always has twelve entries for the calendar year of now.
func Summarize(txs []*models.Transaction, now time.Time) Summary {
	months := make([]MonthStat, 12)
	for i := range months {
		months[i] = MonthStat{
			Month:    i + 1,
			Income:   decimal.Zero,
			Expenses: decimal.Zero,
			Balance:  decimal.Zero,
		}
	}

	s := Summary{
		TotalIncome:      decimal.Zero,
		TotalExpenses:    decimal.Zero,
		TransactionCount: len(txs),
		MonthlyStats:     months,
	}
	year := now.Year()
	for _, tx := range txs {
		switch tx.Type {
		case models.Income:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case models.Expense:
			s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
		}

		created := tx.CreatedAt.In(now.Location())
		if created.Year() != year {
			continue
		}
		m := &months[created.Month()-1]
		switch tx.Type {
		case models.Income:
			m.Income = m.Income.Add(tx.Amount)
		case models.Expense:
			m.Expenses = m.Expenses.Add(tx.Amount)
		}
		m.Balance = m.Income.Sub(m.Expenses)
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}

func signed(tx *models.Transaction) decimal.Decimal {
	if tx.Type == models.Expense {
		return tx.Amount.Neg()
	}
	return tx.Amount
}
