package settleup

import (
	"sort"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// DefaultTolerance is the largest difference between a transaction total and
// the sum of its split amounts that is not reported.
var DefaultTolerance = decimal.New(1, -2)

// Mismatch is a transaction whose split amounts do not add up to its total.
type Mismatch struct {
	Row     int
	Purpose string
	Total   decimal.Decimal
	Split   decimal.Decimal
}

// CheckTotals compares every transaction total with the sum of its split
// amounts. Transactions carrying a converted amount are compared against it,
// since Settle Up splits in the group currency.
func (s *Split) CheckTotals(tolerance decimal.Decimal) []Mismatch {
	var out []Mismatch
	for i, tx := range s.txs {
		total := tx.Amount
		if !tx.ConvertedAmount.IsZero() {
			total = tx.ConvertedAmount
		}
		if total.Sub(s.sums[i]).Abs().GreaterThan(tolerance) {
			out = append(out, Mismatch{Row: i, Purpose: tx.Purpose, Total: total, Split: s.sums[i]})
		}
	}
	return out
}

// MonthlyTotals sums the owed amounts per user and calendar month, ordered by
// user then month.
func (s *Split) MonthlyTotals() []core.UserMonthAmount {
	type key struct {
		user        string
		year, month int
	}
	sums := map[key]decimal.Decimal{}
	for i, tx := range s.txs {
		for user, amount := range s.owed[i] {
			k := key{user, tx.Time.Year(), tx.Month()}
			sums[k] = sums[k].Add(amount)
		}
	}
	out := make([]core.UserMonthAmount, 0, len(sums))
	for k, v := range sums {
		out = append(out, core.UserMonthAmount{User: k.user, Year: k.year, Month: k.month, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.User != b.User {
			return a.User < b.User
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return out
}

// UserTotals sums everything each user owes across the split.
func (s *Split) UserTotals() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.users))
	for i := range s.txs {
		for user, amount := range s.owed[i] {
			out[user] = out[user].Add(amount)
		}
	}
	return out
}
