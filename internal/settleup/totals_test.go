package settleup

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func TestCheckTotals(t *testing.T) {
	ok := tx("alice;bob", "6.00;4.00", jan)
	off := tx("alice;bob", "6.00;3.00", feb)
	off.Purpose = "Dinner"
	converted := tx("alice", "20.00", feb)
	converted.ConvertedAmount = decimal.RequireFromString("20")

	s, err := Compute([]core.Transaction{ok, off, converted})
	require.NoError(t, err)

	got := s.CheckTotals(DefaultTolerance)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Row)
	assert.Equal(t, "Dinner", got[0].Purpose)
	assert.Equal(t, "9", got[0].Split.String())
}

func TestMonthlyTotals(t *testing.T) {
	s, err := Compute([]core.Transaction{
		tx("alice;bob", "6.00;4.00", jan),
		tx("bob", "1.00", jan),
		tx("alice;bob", "2.50;2.50", feb),
	})
	require.NoError(t, err)

	got := s.MonthlyTotals()
	require.Len(t, got, 4)
	assert.Equal(t, "alice", got[0].User)
	assert.Equal(t, 1, got[0].Month)
	assert.Equal(t, "6", got[0].Amount.String())
	assert.Equal(t, "2.5", got[1].Amount.String())
	assert.Equal(t, "bob", got[2].User)
	assert.Equal(t, 1, got[2].Month)
	assert.Equal(t, "5", got[2].Amount.String())
	assert.Equal(t, 2, got[3].Month)

	totals := s.UserTotals()
	assert.Equal(t, "8.5", totals["alice"].String())
	assert.Equal(t, "7.5", totals["bob"].String())
}
