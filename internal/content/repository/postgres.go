package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"parish-platform/internal/content"
)

// PostgresRepository serves content rows with hand-written SQL. Identifiers
// are taken from the table registry only, never from caller input; all
// values travel as query parameters.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a content repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the row for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Get(ctx context.Context, t content.Table, id string) (Row, error) {
	cols := selectColumns(t)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, strings.Join(cols, ", "), t.Name)
	row, err := scanRow(t, r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}

// List returns rows matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, t content.Table, f Filter) ([]Row, error) {
	cols := selectColumns(t)
	var where []string
	var args []interface{}

	if !f.AllRows {
		if f.VisibleTo != "" && t.Owned {
			args = append(args, f.VisibleTo)
			where = append(where, fmt.Sprintf("(is_published = TRUE OR owner_id = $%d)", len(args)))
		} else {
			where = append(where, "is_published = TRUE")
		}
	}
	if f.Owner != "" && t.Owned {
		args = append(args, f.Owner)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if f.Published != nil {
		args = append(args, *f.Published)
		where = append(where, fmt.Sprintf("is_published = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(cols, ", "), t.Name)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		row, err := scanRow(t, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Insert stores a new row with the given id and values and returns it.
// values must already be restricted to writable columns (plus owner_id for
// owned tables).
func (r *PostgresRepository) Insert(ctx context.Context, t content.Table, id string, values Row) (Row, error) {
	names := []string{"id"}
	args := []interface{}{id}
	for _, name := range writeOrder(t) {
		v, ok := values[name]
		if !ok {
			continue
		}
		names = append(names, name)
		args = append(args, v)
	}
	placeholders := make([]string, len(names))
	for i := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s, created_at, updated_at) VALUES (%s, now(), now()) RETURNING %s`,
		t.Name, strings.Join(names, ", "), strings.Join(placeholders, ", "),
		strings.Join(selectColumns(t), ", "))
	return scanRow(t, r.db.QueryRowContext(ctx, query, args...))
}

// Update applies values to the row with id and returns the updated row, or
// nil if no such row exists.
func (r *PostgresRepository) Update(ctx context.Context, t content.Table, id string, values Row) (Row, error) {
	var sets []string
	args := []interface{}{id}
	for _, name := range writeOrder(t) {
		v, ok := values[name]
		if !ok {
			continue
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", name, len(args)))
	}
	sets = append(sets, "updated_at = now()")
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1 RETURNING %s`,
		t.Name, strings.Join(sets, ", "), strings.Join(selectColumns(t), ", "))
	row, err := scanRow(t, r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}

// Delete removes the row with id. Returns whether a row was deleted.
func (r *PostgresRepository) Delete(ctx context.Context, t content.Table, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.Name), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// selectColumns returns the full column list for the table in scan order.
func selectColumns(t content.Table) []string {
	cols := []string{"id"}
	if t.Owned {
		cols = append(cols, "owner_id")
	}
	for _, c := range t.Columns {
		cols = append(cols, c.Name)
	}
	return append(cols, "is_published", "created_at", "updated_at")
}

// writeOrder returns the writable columns in deterministic order.
func writeOrder(t content.Table) []string {
	var names []string
	if t.Owned {
		names = append(names, "owner_id")
	}
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return append(names, "is_published")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRow scans one result row into a Row using kind-typed holders so the
// JSON encoding of every column is predictable.
func scanRow(t content.Table, s scanner) (Row, error) {
	names := selectColumns(t)
	kinds := make([]content.ColumnKind, 0, len(names))
	kinds = append(kinds, content.ColUUID) // id
	if t.Owned {
		kinds = append(kinds, content.ColUUID) // owner_id
	}
	for _, c := range t.Columns {
		kinds = append(kinds, c.Kind)
	}
	kinds = append(kinds, content.ColBool, content.ColTime, content.ColTime)

	holders := make([]interface{}, len(kinds))
	for i, k := range kinds {
		switch k {
		case content.ColBool:
			holders[i] = &sql.NullBool{}
		case content.ColTime:
			holders[i] = &sql.NullTime{}
		default:
			holders[i] = &sql.NullString{}
		}
	}
	if err := s.Scan(holders...); err != nil {
		return nil, err
	}

	row := Row{}
	for i, name := range names {
		switch h := holders[i].(type) {
		case *sql.NullBool:
			if h.Valid {
				row[name] = h.Bool
			} else {
				row[name] = nil
			}
		case *sql.NullTime:
			if h.Valid {
				row[name] = h.Time
			} else {
				row[name] = nil
			}
		case *sql.NullString:
			if h.Valid {
				row[name] = h.String
			} else {
				row[name] = nil
			}
		}
	}
	return row, nil
}

var _ Repository = (*PostgresRepository)(nil)
