package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "expenses.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func entry(day int, cat, amount string, kind core.EntryKind) core.Entry {
	return core.Entry{
		Time:     time.Date(2024, 1, day, 9, 30, 0, 0, time.UTC),
		Purpose:  "p-" + cat,
		Category: cat,
		Amount:   decimal.RequireFromString(amount),
		Kind:     kind,
	}
}

func TestReplaceEntries_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	ref, err := repo.ReplaceEntries(ctx, "expenses.xlsx", []core.Entry{
		entry(5, "Comida", "12.345", core.KindExpense),
		entry(1, "Nomina", "2000", core.KindIngress),
	})
	require.NoError(t, err)
	_, err = uuid.Parse(ref)
	require.NoError(t, err)

	got, err := repo.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Nomina", got[0].Category)
	assert.Equal(t, core.KindIngress, got[0].Kind)
	assert.Equal(t, "12.345", got[1].Amount.String())
	assert.True(t, got[1].Time.Equal(time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)))

	imp, err := repo.GetImport(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "expenses.xlsx", imp.Source)
	assert.EqualValues(t, 2, imp.RowCount)
}

func TestReplaceEntries_ReplacesOnlySameSource(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.ReplaceEntries(ctx, "a", []core.Entry{entry(1, "Comida", "1", core.KindExpense)})
	require.NoError(t, err)
	_, err = repo.ReplaceEntries(ctx, "b", []core.Entry{entry(2, "Ocio", "2", core.KindExpense)})
	require.NoError(t, err)
	_, err = repo.ReplaceEntries(ctx, "a", []core.Entry{
		entry(3, "Alquiler", "350", core.KindExpense),
		entry(4, "Alquiler", "350", core.KindExpense),
	})
	require.NoError(t, err)

	got, err := repo.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Ocio", got[0].Category)
	assert.Equal(t, "Alquiler", got[1].Category)

	imps, err := repo.ListImports(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, imps, 3)
}

func TestReplaceEntries_InvalidEntryLeavesDataUntouched(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.ReplaceEntries(ctx, "a", []core.Entry{entry(1, "Comida", "1", core.KindExpense)})
	require.NoError(t, err)

	_, err = repo.ReplaceEntries(ctx, "a", []core.Entry{entry(2, "", "1", core.KindExpense)})
	assert.ErrorIs(t, err, core.ErrEmptyCategory)

	got, err := repo.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestWriteShares(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	ref, err := repo.WriteShares(ctx, "bob", []core.Share{{
		Time: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Purpose: "Dinner", Category: "Food", Month: 2,
		Amount: decimal.RequireFromString("4"),
	}})
	require.NoError(t, err)

	imp, err := repo.GetImport(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, SharesSource+"bob", imp.Source)

	got, err := repo.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.KindExpense, got[0].Kind)
}

func TestGetImport_NotFound(t *testing.T) {
	_, err := newRepo(t).GetImport(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrImportNotFound)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}
