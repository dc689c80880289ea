package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/atinyakov/minihub/internal/models"
)

// Tables lists every table reported in database statistics.
var Tables = []string{
	"users",
	"tasks",
	"notes",
	"goals",
	"transactions",
	"articles",
	"feedbacks",
	"activities",
	"site_settings",
}

// PostgresStatsRepository computes row counts for the admin console and metrics.
type PostgresStatsRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresStatsRepository creates a PostgresStatsRepository.
func NewPostgresStatsRepository(db *sql.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{DB: db}
}

// Dashboard returns content counts. Admin accounts are not counted as users.
func (s *PostgresStatsRepository) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	var st models.DashboardStats
	err := conn(ctx, s.DB).QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role <> 'ADMIN'),
			(SELECT COUNT(*) FROM tasks),
			(SELECT COUNT(*) FROM notes),
			(SELECT COUNT(*) FROM goals),
			(SELECT COUNT(*) FROM transactions),
			(SELECT COUNT(*) FROM articles),
			(SELECT COUNT(*) FROM feedbacks)
	`).Scan(&st.Users, &st.Tasks, &st.Notes, &st.Goals, &st.Transactions, &st.Articles, &st.Feedbacks)
	if err != nil {
		return st, fmt.Errorf("dashboard stats: %w", err)
	}
	return st, nil
}

// TableCounts returns the row count of each table in Tables, in that order.
func (s *PostgresStatsRepository) TableCounts(ctx context.Context) ([]models.TableStat, error) {
	parts := make([]string, len(Tables))
	for i, t := range Tables {
		parts[i] = fmt.Sprintf("SELECT '%[1]s', COUNT(*) FROM %[1]s", t)
	}
	rows, err := conn(ctx, s.DB).QueryContext(ctx, strings.Join(parts, " UNION ALL "))
	if err != nil {
		return nil, fmt.Errorf("table counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int, len(Tables))
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		counts[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := make([]models.TableStat, len(Tables))
	for i, t := range Tables {
		stats[i] = models.TableStat{Table: t, Count: counts[t]}
	}
	return stats, nil
}
