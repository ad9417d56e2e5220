// Package csvfile reads Settle Up CSV exports from disk.
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"expenses/internal/core"
	ports "expenses/internal/sheets"
)

var _ ports.LedgerReader = (*Ledger)(nil)

// Ledger is a Settle Up export stored as a CSV file.
type Ledger struct {
	path string
}

func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

func (l *Ledger) ReadLedger(ctx context.Context) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	txs, err := ports.ParseTransactions(rows)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.path, err)
	}
	return txs, nil
}

// ReadRows reads every record of a comma separated file. Rows may have
// different lengths and a leading byte order mark is dropped.
func ReadRows(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && string(b) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

// WriteRows writes rows as CSV.
func WriteRows(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
