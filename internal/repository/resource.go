package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/atinyakov/minihub/internal/models"
)

// Table describes how one resource kind is laid out in PostgreSQL.
type Table[T any] struct {
	// Name is the table holding the items, e.g. "tasks".
	Name string
	// ShareTable holds the share-set rows, keyed by ShareKey and user_id.
	ShareTable string
	ShareKey   string
	// OrderBy is the column lists are sorted on, newest first.
	OrderBy string
	// Columns are the kind-specific payload columns.
	Columns []string
	// PublicGate is an extra SQL condition a PUBLIC item must satisfy
	// to be listed for non-owners. Empty means none.
	PublicGate string
	// PublishedColumn enables the published list filter when set.
	PublishedColumn string
	// Header returns the common header embedded in the item.
	Header func(*T) *models.Resource
	// Fields returns scan destinations for Columns, in order.
	Fields func(*T) []any
	// Values returns query arguments for Columns, in order.
	Values func(*T) []any
}

const headerColumns = "r.id, r.user_id, r.visibility, r.created_at, r.updated_at, u.name, u.email, COALESCE(u.username, '')"

// ResourceRepository persists one resource kind and its share-set.
type ResourceRepository[T any] struct {
	// DB is the database handle used outside of transactions.
	DB    *sql.DB
	table Table[T]

	selectSQL string
	insertSQL string
	updateSQL string
	sharesSQL string
}

// NewResourceRepository creates a repository for the kind described by table.
func NewResourceRepository[T any](db *sql.DB, table Table[T]) *ResourceRepository[T] {
	payload := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		payload[i] = "r." + c
	}

	insertCols := append([]string{"id", "user_id", "visibility", "created_at", "updated_at"}, table.Columns...)
	placeholders := make([]string, len(insertCols))
	for i := range insertCols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	assignments := []string{"visibility = $2", "updated_at = $3"}
	for i, c := range table.Columns {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", c, i+4))
	}

	return &ResourceRepository[T]{
		DB:    db,
		table: table,
		selectSQL: fmt.Sprintf("SELECT %s, %s FROM %s r JOIN users u ON u.id = r.user_id",
			headerColumns, strings.Join(payload, ", "), table.Name),
		insertSQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table.Name, strings.Join(insertCols, ", "), strings.Join(placeholders, ", ")),
		updateSQL: fmt.Sprintf("UPDATE %s SET %s WHERE id = $1",
			table.Name, strings.Join(assignments, ", ")),
		sharesSQL: fmt.Sprintf("SELECT s.%[1]s, u.id, u.name, u.email, COALESCE(u.username, '') FROM %[2]s s JOIN users u ON u.id = s.user_id WHERE s.%[1]s = ANY($1) ORDER BY u.name",
			table.ShareKey, table.ShareTable),
	}
}

// ListVisible returns items the requester owns, PUBLIC items passing the
// public gate, and SPECIFIC items the requester is a grantee of.
func (r *ResourceRepository[T]) ListVisible(ctx context.Context, requester string, filter models.ListFilter) ([]*T, error) {
	public := "r.visibility = 'PUBLIC'"
	if r.table.PublicGate != "" {
		public += " AND " + r.table.PublicGate
	}
	query := fmt.Sprintf(
		"%s WHERE (r.user_id = $1 OR (%s) OR (r.visibility = 'SPECIFIC' AND EXISTS (SELECT 1 FROM %s s WHERE s.%s = r.id AND s.user_id = $1)))",
		r.selectSQL, public, r.table.ShareTable, r.table.ShareKey,
	)
	args := []any{requester}
	if r.table.PublishedColumn != "" && filter.Published != nil {
		query += fmt.Sprintf(" AND r.%s = $2", r.table.PublishedColumn)
		args = append(args, *filter.Published)
	}
	query += fmt.Sprintf(" ORDER BY r.%s DESC", r.table.OrderBy)

	items, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table.Name, err)
	}
	if err := r.attachShares(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListOwned returns every item owned by ownerID without share-sets.
func (r *ResourceRepository[T]) ListOwned(ctx context.Context, ownerID string) ([]*T, error) {
	query := fmt.Sprintf("%s WHERE r.user_id = $1 ORDER BY r.%s DESC", r.selectSQL, r.table.OrderBy)
	items, err := r.query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owned %s: %w", r.table.Name, err)
	}
	return items, nil
}

// Get returns the item with the given id and its share-set, or
// models.ErrNotFound. It performs no authorization.
func (r *ResourceRepository[T]) Get(ctx context.Context, id string) (*T, error) {
	row := conn(ctx, r.DB).QueryRowContext(ctx, r.selectSQL+" WHERE r.id = $1", id)
	item, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.table.Name, err)
	}
	if err := r.attachShares(ctx, []*T{item}); err != nil {
		return nil, err
	}
	return item, nil
}

// Insert stores a new item. The header must carry id, owner and timestamps.
func (r *ResourceRepository[T]) Insert(ctx context.Context, item *T) error {
	h := r.table.Header(item)
	args := append([]any{h.ID, h.OwnerID, h.Visibility, h.CreatedAt, h.UpdatedAt}, r.table.Values(item)...)
	if _, err := conn(ctx, r.DB).ExecContext(ctx, r.insertSQL, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.table.Name, err)
	}
	return nil
}

// Update overwrites visibility, updated_at and every payload column.
func (r *ResourceRepository[T]) Update(ctx context.Context, item *T) error {
	h := r.table.Header(item)
	args := append([]any{h.ID, h.Visibility, h.UpdatedAt}, r.table.Values(item)...)
	res, err := conn(ctx, r.DB).ExecContext(ctx, r.updateSQL, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.table.Name, err)
	}
	return requireAffected(res)
}

// Delete removes the item; its share rows go with it through ON DELETE CASCADE.
func (r *ResourceRepository[T]) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table.Name), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.table.Name, err)
	}
	return requireAffected(res)
}

// ReplaceShares makes userIDs the complete share-set of the item.
// An empty userIDs clears it. Callers should run it inside a transaction.
func (r *ResourceRepository[T]) ReplaceShares(ctx context.Context, id string, userIDs []string) error {
	q := conn(ctx, r.DB)
	if _, err := q.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s = $1", r.table.ShareTable, r.table.ShareKey), id,
	); err != nil {
		return fmt.Errorf("clear %s: %w", r.table.ShareTable, err)
	}
	if len(userIDs) == 0 {
		return nil
	}
	if _, err := q.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s, user_id) SELECT $1, unnest($2::text[]) ON CONFLICT DO NOTHING", r.table.ShareTable, r.table.ShareKey),
		id, pq.Array(userIDs),
	); err != nil {
		return fmt.Errorf("insert %s: %w", r.table.ShareTable, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *ResourceRepository[T]) scan(row scanner) (*T, error) {
	item := new(T)
	h := r.table.Header(item)
	dest := []any{&h.ID, &h.OwnerID, &h.Visibility, &h.CreatedAt, &h.UpdatedAt, &h.Owner.Name, &h.Owner.Email, &h.Owner.Username}
	dest = append(dest, r.table.Fields(item)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	h.Owner.ID = h.OwnerID
	h.SharedWith = []models.UserSummary{}
	return item, nil
}

func (r *ResourceRepository[T]) query(ctx context.Context, query string, args ...any) ([]*T, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*T{}
	for rows.Next() {
		item, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *ResourceRepository[T]) attachShares(ctx context.Context, items []*T) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[string]*models.Resource, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		h := r.table.Header(item)
		byID[h.ID] = h
		ids = append(ids, h.ID)
	}

	rows, err := conn(ctx, r.DB).QueryContext(ctx, r.sharesSQL, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load %s: %w", r.table.ShareTable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID string
		var u models.UserSummary
		if err := rows.Scan(&itemID, &u.ID, &u.Name, &u.Email, &u.Username); err != nil {
			return fmt.Errorf("scan share: %w", err)
		}
		if h, ok := byID[itemID]; ok {
			h.SharedWith = append(h.SharedWith, u)
		}
	}
	return rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
