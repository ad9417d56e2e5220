package xlsx

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
	ports "expenses/internal/sheets"
)

func TestWorkbook_SharesReadBackAsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "export_processed.xlsx")
	wb := New(path, "")

	at := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	shares := []core.Share{
		{Time: at, Purpose: "Dinner", Category: "Food", Month: 3, Amount: decimal.RequireFromString("12.40")},
		{Time: at.AddDate(0, 1, 0), Purpose: "Train", Category: "Transport", Month: 4, Amount: decimal.RequireFromString("30")},
	}

	ref, err := wb.WriteShares(ctx, "bob", shares)
	require.NoError(t, err)
	assert.Equal(t, path, ref)

	entries, err := wb.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Dinner", entries[0].Purpose)
	assert.True(t, entries[0].Amount.Equal(decimal.RequireFromString("12.4")))
	assert.True(t, at.Equal(entries[0].Time), "got %v", entries[0].Time)
	assert.Equal(t, 4, entries[1].Month())
	assert.Equal(t, core.KindExpense, entries[1].Kind)
}

func TestWorkbook_ReplaceEntriesNamedSheet(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenses.xlsx")
	wb := New(path, "Expenses")

	in := []core.Entry{
		{Time: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), Purpose: "Salary", Category: "Nomina", Amount: decimal.RequireFromString("2000"), Kind: core.KindIngress},
	}
	_, err := wb.ReplaceEntries(ctx, "upload.csv", in)
	require.NoError(t, err)

	out, err := wb.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, core.KindIngress, out[0].Kind)
	assert.Equal(t, 2023, out[0].Year())
}

func TestReadRows_FromUpload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "upload.xlsx")
	_, err := New(path, "").ReplaceEntries(ctx, "test", []core.Entry{
		{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Category: "Food", Amount: decimal.NewFromInt(5), Kind: core.KindExpense},
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := ReadRows(bytes.NewReader(raw), "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ports.EntryHeader, rows[0])
}

func TestReadRows_NotAWorkbook(t *testing.T) {
	_, err := ReadRows(bytes.NewReader([]byte("just text")), "")
	assert.Error(t, err)
}

func TestWorkbook_MissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.xlsx"), "").ListEntries(context.Background())
	assert.Error(t, err)
}
