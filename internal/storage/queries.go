package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createImport = `INSERT INTO imports (id, source, row_count) VALUES (?, ?, ?)
RETURNING id, source, row_count, created_at`

type CreateImportParams struct {
	ID       string
	Source   string
	RowCount int64
}

func (q *Queries) CreateImport(ctx context.Context, arg CreateImportParams) (Import, error) {
	row := q.db.QueryRowContext(ctx, createImport, arg.ID, arg.Source, arg.RowCount)
	var i Import
	err := row.Scan(&i.ID, &i.Source, &i.RowCount, &i.CreatedAt)
	return i, err
}

const getImport = `SELECT id, source, row_count, created_at FROM imports WHERE id = ?`

func (q *Queries) GetImport(ctx context.Context, id string) (Import, error) {
	row := q.db.QueryRowContext(ctx, getImport, id)
	var i Import
	err := row.Scan(&i.ID, &i.Source, &i.RowCount, &i.CreatedAt)
	return i, err
}

const listImports = `SELECT id, source, row_count, created_at FROM imports
ORDER BY created_at DESC, rowid DESC LIMIT ?`

func (q *Queries) ListImports(ctx context.Context, limit int64) ([]Import, error) {
	rows, err := q.db.QueryContext(ctx, listImports, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Import
	for rows.Next() {
		var i Import
		if err := rows.Scan(&i.ID, &i.Source, &i.RowCount, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteEntriesBySource = `DELETE FROM entries WHERE source = ?`

func (q *Queries) DeleteEntriesBySource(ctx context.Context, source string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEntriesBySource, source)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createEntry = `INSERT INTO entries (import_id, source, occurred_at, purpose, category, amount, kind)
VALUES (?, ?, ?, ?, ?, ?, ?)`

type CreateEntryParams struct {
	ImportID   string
	Source     string
	OccurredAt string
	Purpose    string
	Category   string
	Amount     string
	Kind       string
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) error {
	_, err := q.db.ExecContext(ctx, createEntry,
		arg.ImportID, arg.Source, arg.OccurredAt, arg.Purpose, arg.Category, arg.Amount, arg.Kind)
	return err
}

const listEntries = `SELECT id, import_id, source, occurred_at, purpose, category, amount, kind
FROM entries ORDER BY occurred_at, id`

func (q *Queries) ListEntries(ctx context.Context) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, listEntries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ImportID, &e.Source, &e.OccurredAt, &e.Purpose, &e.Category, &e.Amount, &e.Kind); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const countEntries = `SELECT COUNT(*) FROM entries`

func (q *Queries) CountEntries(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countEntries).Scan(&n)
	return n, err
}
