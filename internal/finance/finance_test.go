package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/minihub/internal/models"
)

func tx(owner string, typ models.TransactionType, amount string, at time.Time) *models.Transaction {
	return &models.Transaction{
		Resource: models.Resource{OwnerID: owner, CreatedAt: at},
		Amount:   decimal.RequireFromString(amount),
		Type:     typ,
	}
}

func TestBalance_ExcludesOthers(t *testing.T) {
	now := time.Now()
	txs := []*models.Transaction{
		tx("alice", models.Income, "1000", now),
		tx("alice", models.Expense, "400", now),
		tx("bob", models.Income, "5000", now),
		tx("bob", models.Expense, "10", now),
	}

	got := Balance(txs, "alice")
	assert.True(t, got.Equal(decimal.NewFromInt(600)), "balance = %s", got)
}

func TestBalance_Empty(t *testing.T) {
	assert.True(t, Balance(nil, "alice").IsZero())
}

func TestSummarize_CurrentMonth(t *testing.T) {
	now := time.Date(2026, time.May, 20, 12, 0, 0, 0, time.UTC)
	txs := []*models.Transaction{
		tx("alice", models.Income, "1000", now.Add(-time.Hour)),
		tx("alice", models.Expense, "400", now.Add(-2*time.Hour)),
	}

	s := Summarize(txs, now)

	assert.True(t, s.TotalIncome.Equal(decimal.NewFromInt(1000)))
	assert.True(t, s.TotalExpenses.Equal(decimal.NewFromInt(400)))
	assert.True(t, s.Balance.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, 2, s.TransactionCount)
	require.Len(t, s.MonthlyStats, 12)

	for i, m := range s.MonthlyStats {
		assert.Equal(t, i+1, m.Month)
		if m.Month == int(time.May) {
			assert.True(t, m.Income.Equal(decimal.NewFromInt(1000)), "income = %s", m.Income)
			assert.True(t, m.Expenses.Equal(decimal.NewFromInt(400)), "expenses = %s", m.Expenses)
			assert.True(t, m.Balance.Equal(decimal.NewFromInt(600)), "balance = %s", m.Balance)
			continue
		}
		assert.True(t, m.Income.IsZero(), "month %d income", m.Month)
		assert.True(t, m.Expenses.IsZero(), "month %d expenses", m.Month)
		assert.True(t, m.Balance.IsZero(), "month %d balance", m.Month)
	}
}

func TestSummarize_PreviousYearCountsInTotalsOnly(t *testing.T) {
	now := time.Date(2026, time.January, 3, 0, 0, 0, 0, time.UTC)
	txs := []*models.Transaction{
		tx("alice", models.Income, "250.50", time.Date(2025, time.December, 31, 10, 0, 0, 0, time.UTC)),
		tx("alice", models.Expense, "0.50", time.Date(2026, time.January, 1, 10, 0, 0, 0, time.UTC)),
	}

	s := Summarize(txs, now)

	assert.Equal(t, "250.5", s.TotalIncome.String())
	assert.Equal(t, "250", s.Balance.String())
	assert.True(t, s.MonthlyStats[0].Expenses.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, s.MonthlyStats[11].Income.IsZero())
}

func TestSummarize_NoTransactions(t *testing.T) {
	s := Summarize(nil, time.Now())
	assert.Zero(t, s.TransactionCount)
	assert.True(t, s.Balance.IsZero())
	assert.Len(t, s.MonthlyStats, 12)
}
