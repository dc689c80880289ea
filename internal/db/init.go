// Package db opens the PostgreSQL handle, applies the schema and runs
// background maintenance against it.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    username TEXT,
    password_hash BYTEA NOT NULL,
    name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'USER',
    is_hidden BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT users_email_key UNIQUE (email),
    CONSTRAINT users_username_key UNIQUE (username)
);

%[1]s

CREATE TABLE IF NOT EXISTS activities (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    action TEXT NOT NULL,
    details TEXT NOT NULL,
    type TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS activities_user_created_idx ON activities (user_id, created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS feedbacks (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    message TEXT NOT NULL,
    email TEXT,
    user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
    status TEXT NOT NULL DEFAULT 'OPEN',
    admin_reply TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS site_settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    description TEXT,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// resourceTable is the DDL shared by every visibility-scoped kind.
const resourceTable = `
CREATE TABLE IF NOT EXISTS %[1]ss (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    visibility TEXT NOT NULL DEFAULT 'PRIVATE',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    %[2]s
);
CREATE INDEX IF NOT EXISTS %[1]ss_user_idx ON %[1]ss (user_id);

CREATE TABLE IF NOT EXISTS %[1]s_shares (
    %[1]s_id TEXT NOT NULL REFERENCES %[1]ss(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    PRIMARY KEY (%[1]s_id, user_id)
);
`

var resourceColumns = []struct{ kind, columns string }{
	{"task", "title TEXT NOT NULL, description TEXT NOT NULL DEFAULT '', completed BOOLEAN NOT NULL DEFAULT FALSE"},
	{"note", "title TEXT NOT NULL, content TEXT NOT NULL"},
	{"goal", "title TEXT NOT NULL, description TEXT NOT NULL DEFAULT '', progress INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100), deadline TIMESTAMPTZ"},
	{"transaction", "title TEXT NOT NULL, amount NUMERIC(14,2) NOT NULL CHECK (amount > 0), currency TEXT NOT NULL, type TEXT NOT NULL"},
	{"article", "title TEXT NOT NULL, content TEXT NOT NULL, published BOOLEAN NOT NULL DEFAULT FALSE"},
}

// Schema returns the full DDL applied by InitPostgres.
func Schema() string {
	var b strings.Builder
	for _, r := range resourceColumns {
		fmt.Fprintf(&b, resourceTable, r.kind, r.columns)
	}
	return fmt.Sprintf(schema, b.String())
}

// InitPostgres opens the database, checks connectivity and applies the
// schema. The caller owns the returned handle and must close it.
func InitPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema()); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
