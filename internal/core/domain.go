package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"

	KindExpense EntryKind = "Expense"
	KindIngress EntryKind = "Ingress"
)

// SplitDelimiter separates participants and split amounts in a Settle Up export.
const SplitDelimiter = ";"

type (
	TransactionType string
	EntryKind       string

	// Transaction is one row of a Settle Up export. ForWhom and SplitAmounts
	// are position aligned, delimited lists.
	Transaction struct {
		WhoPaid         string
		Amount          decimal.Decimal
		Currency        string
		ForWhom         string
		SplitAmounts    string
		Purpose         string
		Category        string
		Time            time.Time
		ExchangeRate    string
		ConvertedAmount decimal.Decimal
		Type            TransactionType
		Receipt         string
	}

	// Share is the part of a transaction owed by a single user.
	Share struct {
		Time     time.Time
		Purpose  string
		Category string
		Month    int
		Amount   decimal.Decimal
	}

	// Entry is one row of the expenses workbook consumed by the analyzer.
	Entry struct {
		Time     time.Time
		Purpose  string
		Category string
		Amount   decimal.Decimal
		Kind     EntryKind
	}
)

var (
	ErrEmptyCategory = errors.New("empty category")
	ErrZeroTime      = errors.New("date cannot be zero")
)

// Participants returns the ForWhom tokens in order. Empty tokens are kept so
// positions stay aligned with SplitTokens.
func (t Transaction) Participants() []string {
	return splitTokens(t.ForWhom)
}

// SplitTokens returns the SplitAmounts tokens in order.
func (t Transaction) SplitTokens() []string {
	return splitTokens(t.SplitAmounts)
}

// Month returns the month number (1-12) of the transaction.
func (t Transaction) Month() int {
	return int(t.Time.Month())
}

func splitTokens(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, SplitDelimiter)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// Year returns the calendar year of the entry.
func (e Entry) Year() int {
	return e.Time.Year()
}

// Month returns the month number (1-12) of the entry.
func (e Entry) Month() int {
	return int(e.Time.Month())
}

// IsExpense reports whether the entry counts as spending.
func (e Entry) IsExpense() bool {
	return e.Kind != KindIngress
}

func (e Entry) Validate() error {
	if e.Time.IsZero() {
		return ErrZeroTime
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Entry converts a share into an expense entry of the analyzer workbook.
func (s Share) Entry() Entry {
	return Entry{
		Time:     s.Time,
		Purpose:  s.Purpose,
		Category: s.Category,
		Amount:   s.Amount,
		Kind:     KindExpense,
	}
}

// ParseEntryKind maps the workbook "Type" column to an EntryKind. Anything
// other than Ingress is treated as an expense.
func ParseEntryKind(s string) EntryKind {
	if strings.EqualFold(strings.TrimSpace(s), string(KindIngress)) {
		return KindIngress
	}
	return KindExpense
}
