// Package xlsx stores ledgers, shares and entries in Excel workbooks.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/xuri/excelize/v2"

	"expenses/internal/core"
	ports "expenses/internal/sheets"
)

// DefaultSheet is the sheet excelize creates in a new workbook.
const DefaultSheet = "Sheet1"

var (
	_ ports.LedgerReader = (*Workbook)(nil)
	_ ports.ShareWriter  = (*Workbook)(nil)
	_ ports.EntryReader  = (*Workbook)(nil)
	_ ports.EntryWriter  = (*Workbook)(nil)

	ErrNoSheets = errors.New("workbook has no sheets")
)

// Workbook is a single .xlsx file. Reads use the named sheet, or the first
// one when sheet is empty. Writes replace the whole file.
type Workbook struct {
	mu    sync.RWMutex
	path  string
	sheet string
}

func New(path, sheet string) *Workbook {
	return &Workbook{path: path, sheet: sheet}
}

// Path returns the file the workbook reads from and writes to.
func (w *Workbook) Path() string {
	return w.path
}

func (w *Workbook) ReadLedger(ctx context.Context) ([]core.Transaction, error) {
	rows, err := w.rows(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := ports.ParseTransactions(rows)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", w.path, err)
	}
	return txs, nil
}

func (w *Workbook) ListEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := w.rows(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := ports.ParseEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", w.path, err)
	}
	return entries, nil
}

// WriteShares writes the processed workbook: Purpose, Category, Month,
// Amount and the transaction date.
func (w *Workbook) WriteShares(ctx context.Context, user string, shares []core.Share) (string, error) {
	rows := make([][]any, 0, len(shares))
	for _, s := range shares {
		rows = append(rows, []any{s.Purpose, s.Category, s.Month, s.Amount.InexactFloat64(), s.Time})
	}
	if err := w.save(ctx, ports.ShareHeader, rows); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Shares written", "user", user, "rows", len(shares), "path", w.path)
	return w.path, nil
}

// ReplaceEntries rewrites the workbook with entries. The workbook holds a
// single source, so source is only logged.
func (w *Workbook) ReplaceEntries(ctx context.Context, source string, entries []core.Entry) (string, error) {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{e.Time, e.Purpose, e.Category, e.Amount.InexactFloat64(), string(e.Kind)})
	}
	if err := w.save(ctx, ports.EntryHeader, rows); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Entries written", "source", source, "rows", len(entries), "path", w.path)
	return w.path, nil
}

func (w *Workbook) rows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.RLock()
	defer w.mu.RUnlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", w.path, err)
	}
	defer f.Close()
	return sheetRows(f, w.sheet)
}

func (w *Workbook) save(ctx context.Context, header []string, rows [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f := excelize.NewFile()
	defer f.Close()

	sheet := DefaultSheet
	if w.sheet != "" && w.sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, w.sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
		sheet = w.sheet
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save %s: %w", w.path, err)
	}
	return nil
}

// ReadRows reads a workbook from r, as uploaded through the dashboard.
func ReadRows(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return sheetRows(f, sheet)
}

// sheetRows returns raw cell values so dates come back as serials and
// amounts without currency formatting.
func sheetRows(f *excelize.File, sheet string) ([][]string, error) {
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, ErrNoSheets
		}
		sheet = list[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}
