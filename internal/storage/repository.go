package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expenses/internal/core"
	ports "expenses/internal/sheets"

	_ "modernc.org/sqlite"
)

// SharesSource prefixes the source under which a user's shares are stored.
const SharesSource = "settleup:"

var (
	_ ports.EntryReader = (*SQLiteRepository)(nil)
	_ ports.EntryWriter = (*SQLiteRepository)(nil)
	_ ports.ShareWriter = (*SQLiteRepository)(nil)

	ErrImportNotFound = errors.New("import not found")
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ReplaceEntries swaps every entry of source for entries in one transaction
// and records the import. The import id is returned as reference.
func (r *SQLiteRepository) ReplaceEntries(ctx context.Context, source string, entries []core.Entry) (string, error) {
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return "", fmt.Errorf("entry %d: %w", i, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	removed, err := q.DeleteEntriesBySource(ctx, source)
	if err != nil {
		return "", fmt.Errorf("delete entries: %w", err)
	}
	imp, err := q.CreateImport(ctx, CreateImportParams{
		ID:       uuid.NewString(),
		Source:   source,
		RowCount: int64(len(entries)),
	})
	if err != nil {
		return "", fmt.Errorf("create import: %w", err)
	}
	for _, e := range entries {
		err := q.CreateEntry(ctx, CreateEntryParams{
			ImportID:   imp.ID,
			Source:     source,
			OccurredAt: ports.FormatTime(e.Time),
			Purpose:    e.Purpose,
			Category:   e.Category,
			Amount:     e.Amount.String(),
			Kind:       string(e.Kind),
		})
		if err != nil {
			return "", fmt.Errorf("create entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Entries imported to SQLite",
		"import_id", imp.ID,
		"source", source,
		"rows", len(entries),
		"replaced", removed)
	return imp.ID, nil
}

// WriteShares stores a user's shares as expense entries of their own source.
func (r *SQLiteRepository) WriteShares(ctx context.Context, user string, shares []core.Share) (string, error) {
	entries := make([]core.Entry, len(shares))
	for i, s := range shares {
		entries[i] = s.Entry()
	}
	return r.ReplaceEntries(ctx, SharesSource+user, entries)
}

func (r *SQLiteRepository) ListEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.queries.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out := make([]core.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := toCore(row)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", row.ID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *SQLiteRepository) GetImport(ctx context.Context, id string) (Import, error) {
	imp, err := r.queries.GetImport(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Import{}, ErrImportNotFound
	}
	if err != nil {
		return Import{}, fmt.Errorf("get import: %w", err)
	}
	return imp, nil
}

// ListImports returns the most recent imports first.
func (r *SQLiteRepository) ListImports(ctx context.Context, limit int) ([]Import, error) {
	if limit <= 0 {
		limit = 20
	}
	imps, err := r.queries.ListImports(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return imps, nil
}

func toCore(row Entry) (core.Entry, error) {
	at, err := ports.ParseTime(row.OccurredAt)
	if err != nil {
		return core.Entry{}, err
	}
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Entry{}, fmt.Errorf("amount %q: %w", row.Amount, err)
	}
	return core.Entry{
		Time:     at,
		Purpose:  row.Purpose,
		Category: row.Category,
		Amount:   amount,
		Kind:     core.EntryKind(row.Kind),
	}, nil
}
