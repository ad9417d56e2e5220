// Package settleup turns a Settle Up export, where one transaction is shared
// among several people, into the amounts owed by each of them.
package settleup

import (
	"sort"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// Split holds, for every transaction, the amount owed by each participant.
// A user missing from a transaction's map did not participate in it, which is
// different from owing zero.
type Split struct {
	txs   []core.Transaction
	users []string
	owed  []map[string]decimal.Decimal
	sums  []decimal.Decimal
}

// Reshape extracts targetUser's share of every transaction it participated
// in, preserving input order. It fails without returning partial output when
// any transaction is malformed.
func Reshape(txs []core.Transaction, targetUser string) ([]core.Share, error) {
	if len(txs) == 0 {
		return nil, nil
	}
	parts, amounts, err := tokenize(txs)
	if err != nil {
		return nil, err
	}
	users := userSet(parts)
	if !contains(users, targetUser) {
		return nil, &core.ConfigurationError{User: targetUser, Known: users}
	}
	s, err := build(txs, users, parts, amounts)
	if err != nil {
		return nil, err
	}
	return s.Shares(targetUser)
}

// Compute parses every transaction into per-user owed amounts.
func Compute(txs []core.Transaction) (*Split, error) {
	parts, amounts, err := tokenize(txs)
	if err != nil {
		return nil, err
	}
	return build(txs, userSet(parts), parts, amounts)
}

// Users returns the distinct non-empty participants across all transactions,
// sorted.
func Users(txs []core.Transaction) []string {
	parts := make([][]string, len(txs))
	for i, tx := range txs {
		parts[i] = tx.Participants()
	}
	return userSet(parts)
}

// Users returns the global user set of the split.
func (s *Split) Users() []string {
	return append([]string(nil), s.users...)
}

// Len returns the number of transactions in the split.
func (s *Split) Len() int {
	return len(s.txs)
}

// Owed returns what user owes for transaction i. ok is false when the user
// did not participate.
func (s *Split) Owed(i int, user string) (amount decimal.Decimal, ok bool) {
	amount, ok = s.owed[i][user]
	return amount, ok
}

// Shares projects the split onto a single user.
func (s *Split) Shares(user string) ([]core.Share, error) {
	if len(s.txs) == 0 {
		return nil, nil
	}
	if !contains(s.users, user) {
		return nil, &core.ConfigurationError{User: user, Known: s.Users()}
	}
	out := make([]core.Share, 0, len(s.txs))
	for i, tx := range s.txs {
		amount, ok := s.owed[i][user]
		if !ok {
			continue
		}
		out = append(out, core.Share{
			Time:     tx.Time,
			Purpose:  tx.Purpose,
			Category: tx.Category,
			Month:    tx.Month(),
			Amount:   amount,
		})
	}
	return out, nil
}

func tokenize(txs []core.Transaction) (parts, amounts [][]string, err error) {
	parts = make([][]string, len(txs))
	amounts = make([][]string, len(txs))
	for i, tx := range txs {
		p, a := tx.Participants(), tx.SplitTokens()
		if len(p) != len(a) {
			return nil, nil, &core.DataIntegrityError{Row: i, Participants: len(p), Amounts: len(a)}
		}
		parts[i], amounts[i] = p, a
	}
	return parts, amounts, nil
}

func build(txs []core.Transaction, users []string, parts, amounts [][]string) (*Split, error) {
	s := &Split{
		txs:   txs,
		users: users,
		owed:  make([]map[string]decimal.Decimal, len(txs)),
		sums:  make([]decimal.Decimal, len(txs)),
	}
	for i := range txs {
		owed := make(map[string]decimal.Decimal, len(parts[i]))
		sum := decimal.Zero
		for pos, who := range parts[i] {
			if who == "" {
				continue
			}
			amount, err := core.ParseSplitAmount(amounts[i][pos])
			if err != nil {
				return nil, &core.ValueConversionError{Row: i, Position: pos, Token: amounts[i][pos], Err: err}
			}
			// Positions are visited in order, so a repeated participant
			// keeps the amount of its last position.
			owed[who] = amount
			sum = sum.Add(amount)
		}
		s.owed[i] = owed
		s.sums[i] = sum
	}
	return s, nil
}

func userSet(parts [][]string) []string {
	seen := map[string]struct{}{}
	for _, p := range parts {
		for _, who := range p {
			if who != "" {
				seen[who] = struct{}{}
			}
		}
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

func contains(users []string, user string) bool {
	i := sort.SearchStrings(users, user)
	return i < len(users) && users[i] == user
}
