package settleup

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func tx(forWhom, amounts string, at time.Time) core.Transaction {
	return core.Transaction{
		WhoPaid:      "alice",
		Amount:       decimal.RequireFromString("10"),
		ForWhom:      forWhom,
		SplitAmounts: amounts,
		Purpose:      "Groceries",
		Category:     "Food",
		Time:         at,
		Type:         core.TypeExpense,
	}
}

var (
	jan = time.Date(2024, time.January, 5, 12, 0, 0, 0, time.UTC)
	feb = time.Date(2024, time.February, 2, 9, 30, 0, 0, time.UTC)
)

func TestReshape_TargetShareIsExtracted(t *testing.T) {
	txs := []core.Transaction{tx("alice;bob", "6.00;4.00", jan)}

	shares, err := Reshape(txs, "bob")
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "4", shares[0].Amount.String())
	assert.Equal(t, "Groceries", shares[0].Purpose)
	assert.Equal(t, "Food", shares[0].Category)
	assert.Equal(t, 1, shares[0].Month)
	assert.True(t, shares[0].Time.Equal(jan))
}

func TestReshape_UnknownUser(t *testing.T) {
	txs := []core.Transaction{tx("alice;bob", "6.00;4.00", jan)}

	shares, err := Reshape(txs, "carol")
	assert.Nil(t, shares)

	var cfgErr *core.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "carol", cfgErr.User)
	assert.Equal(t, []string{"alice", "bob"}, cfgErr.Known)
}

func TestReshape_DuplicateParticipantLastWins(t *testing.T) {
	txs := []core.Transaction{tx("alice;alice", "2.00;3.00", jan)}

	shares, err := Reshape(txs, "alice")
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "3", shares[0].Amount.String())
}

func TestReshape_LengthMismatchFailsWholeRun(t *testing.T) {
	txs := []core.Transaction{
		tx("alice;bob", "6.00;4.00", jan),
		tx("alice;bob", "5.00", feb),
	}

	shares, err := Reshape(txs, "alice")
	assert.Nil(t, shares)

	var integrity *core.DataIntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, 1, integrity.Row)
	assert.Equal(t, 2, integrity.Participants)
	assert.Equal(t, 1, integrity.Amounts)
}

func TestReshape_BadAmountToken(t *testing.T) {
	txs := []core.Transaction{tx("alice;bob", "6.00;four", jan)}

	shares, err := Reshape(txs, "alice")
	assert.Nil(t, shares)

	var conv *core.ValueConversionError
	require.ErrorAs(t, err, &conv)
	assert.Equal(t, 0, conv.Row)
	assert.Equal(t, 1, conv.Position)
	assert.Equal(t, "four", conv.Token)
	assert.True(t, errors.Is(err, core.ErrInvalidAmount))
}

func TestReshape_CommaTokenIsRejected(t *testing.T) {
	txs := []core.Transaction{tx("alice;bob", "1,234;6", jan)}

	shares, err := Reshape(txs, "alice")
	assert.Nil(t, shares)

	var conv *core.ValueConversionError
	require.ErrorAs(t, err, &conv)
	assert.Equal(t, 0, conv.Position)
	assert.Equal(t, "1,234", conv.Token)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestReshape_BadTokenLeavesNoPartialOutput(t *testing.T) {
	txs := []core.Transaction{
		tx("alice;bob", "6.00;4.00", jan),
		tx("alice;bob", "5.00;x", feb),
	}

	shares, err := Reshape(txs, "alice")
	assert.Nil(t, shares)

	var conv *core.ValueConversionError
	require.ErrorAs(t, err, &conv)
	assert.Equal(t, 1, conv.Row)
	assert.Equal(t, 1, conv.Position)
	assert.Equal(t, "x", conv.Token)
}

func TestReshape_ConfigurationCheckedBeforeConversion(t *testing.T) {
	txs := []core.Transaction{tx("alice;bob", "6.00;four", jan)}

	_, err := Reshape(txs, "carol")

	var cfgErr *core.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestReshape_EmptyInput(t *testing.T) {
	shares, err := Reshape(nil, "anyone")
	require.NoError(t, err)
	assert.Empty(t, shares)
}

func TestReshape_SkipsTransactionsWithoutTarget(t *testing.T) {
	txs := []core.Transaction{
		tx("alice;bob", "6.00;4.00", jan),
		tx("alice", "10.00", jan),
		tx("bob;carol", "1.50;8.50", feb),
	}

	shares, err := Reshape(txs, "bob")
	require.NoError(t, err)
	require.Len(t, shares, 2)
	assert.Equal(t, "4", shares[0].Amount.String())
	assert.Equal(t, "1.5", shares[1].Amount.String())
	assert.Equal(t, 2, shares[1].Month)
}

func TestReshape_ZeroShareIsKept(t *testing.T) {
	txs := []core.Transaction{tx("alice;bob", "10.00;0.00", jan)}

	shares, err := Reshape(txs, "bob")
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.True(t, shares[0].Amount.IsZero())
}

func TestReshape_EmptyParticipantTokenIgnored(t *testing.T) {
	txs := []core.Transaction{tx("alice; ;bob", "5.00;0;5.00", jan)}

	assert.Equal(t, []string{"alice", "bob"}, Users(txs))

	shares, err := Reshape(txs, "bob")
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "5", shares[0].Amount.String())
}

func TestReshape_Idempotent(t *testing.T) {
	txs := []core.Transaction{
		tx("alice;bob", "6.00;4.00", jan),
		tx("bob", "3.10", feb),
	}

	first, err := Reshape(txs, "bob")
	require.NoError(t, err)
	second, err := Reshape(txs, "bob")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompute_UserSetCoversEveryParticipant(t *testing.T) {
	txs := []core.Transaction{
		tx("dave;alice", "1;2", jan),
		tx("carol", "3", feb),
		tx("", "", feb),
	}

	s, err := Compute(txs)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol", "dave"}, s.Users())
	assert.Equal(t, 3, s.Len())

	amount, ok := s.Owed(0, "dave")
	require.True(t, ok)
	assert.Equal(t, "1", amount.String())

	_, ok = s.Owed(1, "dave")
	assert.False(t, ok)
}
