package sheets

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func TestParseTransactions(t *testing.T) {
	rows := [][]string{
		LedgerHeader,
		{"alice", "10.00", "EUR", "alice;bob", "6.00;4.00", "Groceries", "Food", "2024-01-05 12:00:00", "", "10.00", "expense", ""},
		{"bob", "4.00", "EUR", "alice", "4.00", "Payback", "", "2024-01-06 10:00:00", "", "4.00", "transfer", ""},
		{"", "", "", "", "", "", "", "", "", "", "", ""},
		{"bob", "3.5", "EUR", "bob", "3.5", "Bus", "Transport", "2024-02-01", "", "", "expense", ""},
	}

	txs, err := ParseTransactions(rows)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "alice;bob", txs[0].ForWhom)
	assert.Equal(t, "6.00;4.00", txs[0].SplitAmounts)
	assert.Equal(t, "Food", txs[0].Category)
	assert.Equal(t, time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC), txs[0].Time)
	assert.Equal(t, "10", txs[0].Amount.String())
	assert.Equal(t, core.TypeExpense, txs[0].Type)

	assert.Equal(t, "Bus", txs[1].Purpose)
	assert.True(t, txs[1].ConvertedAmount.IsZero())
}

func TestParseTransactions_MissingColumns(t *testing.T) {
	_, err := ParseTransactions([][]string{{"Who paid", "Amount", "Purpose"}})

	var hdr *HeaderError
	require.ErrorAs(t, err, &hdr)
	assert.Equal(t, []string{ColForWhom, ColSplitAmounts, ColCategory, ColDate}, hdr.Missing)
}

func TestParseTransactions_Empty(t *testing.T) {
	_, err := ParseTransactions(nil)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestParseTransactions_BadDate(t *testing.T) {
	rows := [][]string{
		LedgerHeader,
		{"alice", "1", "EUR", "alice", "1", "x", "Food", "yesterday", "", "", "expense", ""},
	}

	_, err := ParseTransactions(rows)

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Line)
	assert.Equal(t, ColDate, rowErr.Column)
}

func TestParseTransactions_WithoutTypeColumnKeepsAll(t *testing.T) {
	rows := [][]string{
		{ColForWhom, ColSplitAmounts, ColPurpose, ColCategory, ColDate},
		{"alice", "1", "Coffee", "Food", "2024-03-01"},
	}

	txs, err := ParseTransactions(rows)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, core.TypeExpense, txs[0].Type)
}

func TestParseEntries(t *testing.T) {
	rows := [][]string{
		{"", "Purpose", "Category", "Month", "Amount", "Date & time", "Type"},
		{"0", "Rent", "Alquiler", "1", "350", "2024-01-01 00:00:00", "Expense"},
		{"1", "Salary", "Nomina", "1", "2000,50", "2024-01-28 00:00:00", "Ingress"},
	}

	entries, err := ParseEntries(rows)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, core.KindExpense, entries[0].Kind)
	assert.Equal(t, "350", entries[0].Amount.String())
	assert.Equal(t, core.KindIngress, entries[1].Kind)
	assert.Equal(t, "2000.5", entries[1].Amount.String())
	assert.Equal(t, 1, entries[1].Month())
}

func TestParseEntries_RejectsEmptyCategory(t *testing.T) {
	rows := [][]string{
		EntryHeader,
		{"2024-01-01", "Rent", " ", "350", ""},
	}

	_, err := ParseEntries(rows)
	assert.True(t, errors.Is(err, core.ErrEmptyCategory))
}

func TestShareRowsRoundTrip(t *testing.T) {
	at := time.Date(2024, 2, 3, 8, 15, 0, 0, time.UTC)
	shares := []core.Share{{Time: at, Purpose: "Dinner", Category: "Food", Month: 2, Amount: mustAmount(t, "12.40")}}

	rows := ShareRows(shares)
	require.Len(t, rows, 2)
	assert.Equal(t, ShareHeader, rows[0])

	entries, err := ParseEntries(rows)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	want := shares[0].Entry()
	assert.True(t, want.Time.Equal(entries[0].Time))
	assert.Equal(t, want.Purpose, entries[0].Purpose)
	assert.Equal(t, want.Category, entries[0].Category)
	assert.Equal(t, want.Kind, entries[0].Kind)
	assert.True(t, want.Amount.Equal(entries[0].Amount))
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-05 12:30:00", time.Date(2024, 1, 5, 12, 30, 0, 0, time.UTC)},
		{"2024-01-05T12:30:00Z", time.Date(2024, 1, 5, 12, 30, 0, 0, time.UTC)},
		{"2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"05/01/2024 12:30", time.Date(2024, 1, 5, 12, 30, 0, 0, time.UTC)},
		{"45296", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}

	_, err := ParseTime("")
	assert.ErrorIs(t, err, core.ErrZeroTime)
}

func TestIsLedger(t *testing.T) {
	assert.True(t, IsLedger(LedgerHeader))
	assert.False(t, IsLedger(EntryHeader))
}

func mustAmount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := core.ParseAmount(s)
	require.NoError(t, err)
	return d
}
