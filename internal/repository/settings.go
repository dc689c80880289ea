package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/minihub/internal/models"
)

// PostgresSettingsRepository stores site settings.
type PostgresSettingsRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresSettingsRepository creates a PostgresSettingsRepository.
func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{DB: db}
}

// List returns all settings ordered by key.
func (s *PostgresSettingsRepository) List(ctx context.Context) ([]models.SiteSetting, error) {
	rows, err := conn(ctx, s.DB).QueryContext(ctx,
		`SELECT key, value, COALESCE(description, ''), updated_at FROM site_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := []models.SiteSetting{}
	for rows.Next() {
		var st models.SiteSetting
		if err := rows.Scan(&st.Key, &st.Value, &st.Description, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		settings = append(settings, st)
	}
	return settings, rows.Err()
}

// Upsert creates or replaces a setting. An empty description keeps the stored one.
func (s *PostgresSettingsRepository) Upsert(ctx context.Context, st models.SiteSetting) error {
	_, err := conn(ctx, s.DB).ExecContext(ctx, `
		INSERT INTO site_settings (key, value, description, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			description = COALESCE(EXCLUDED.description, site_settings.description),
			updated_at = NOW()
	`, st.Key, st.Value, st.Description)
	if err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}

// InsertDefault stores a setting unless the key already exists.
func (s *PostgresSettingsRepository) InsertDefault(ctx context.Context, st models.SiteSetting) error {
	_, err := conn(ctx, s.DB).ExecContext(ctx, `
		INSERT INTO site_settings (key, value, description, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NOW())
		ON CONFLICT (key) DO NOTHING
	`, st.Key, st.Value, st.Description)
	if err != nil {
		return fmt.Errorf("insert setting: %w", err)
	}
	return nil
}
