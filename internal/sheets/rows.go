package sheets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"expenses/internal/core"
)

// Settle Up export columns.
const (
	ColWhoPaid         = "Who paid"
	ColAmount          = "Amount"
	ColCurrency        = "Currency"
	ColForWhom         = "For whom"
	ColSplitAmounts    = "Split amounts"
	ColPurpose         = "Purpose"
	ColCategory        = "Category"
	ColDate            = "Date & time"
	ColExchangeRate    = "Exchange rate"
	ColConvertedAmount = "Converted amount"
	ColType            = "Type"
	ColReceipt         = "Receipt"
	ColMonth           = "Month"
)

var (
	LedgerHeader = []string{
		ColWhoPaid, ColAmount, ColCurrency, ColForWhom, ColSplitAmounts, ColPurpose,
		ColCategory, ColDate, ColExchangeRate, ColConvertedAmount, ColType, ColReceipt,
	}
	// ShareHeader is the layout of the processed workbook. The date column
	// comes last so the file can be read back as entries.
	ShareHeader = []string{ColPurpose, ColCategory, ColMonth, ColAmount, ColDate}
	EntryHeader = []string{ColDate, ColPurpose, ColCategory, ColAmount, ColType}

	ledgerRequired = []string{ColForWhom, ColSplitAmounts, ColPurpose, ColCategory, ColDate}
	entryRequired  = []string{ColDate, ColCategory, ColAmount}

	ErrNoHeader = errors.New("missing header row")
)

// DateLayouts are tried in order when a date cell is not a spreadsheet serial.
var DateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// HeaderError reports required columns absent from a header row.
type HeaderError struct {
	Missing []string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("missing columns: %s", strings.Join(e.Missing, ", "))
}

// RowError points at the spreadsheet line (1-based, header included) that
// failed to parse.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %q: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// IsLedger reports whether a header row looks like a Settle Up export.
func IsLedger(header []string) bool {
	idx := headerIndex(header)
	_, who := idx[ColForWhom]
	_, split := idx[ColSplitAmounts]
	return who && split
}

// ParseTransactions converts the rows of a Settle Up export, header first,
// into expense transactions. Rows whose Type is not "expense" are dropped.
func ParseTransactions(rows [][]string) ([]core.Transaction, error) {
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}
	idx := headerIndex(rows[0])
	if err := requireColumns(idx, ledgerRequired); err != nil {
		return nil, err
	}
	_, hasType := idx[ColType]

	var out []core.Transaction
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		line := i + 2
		get := func(col string) string { return cell(row, idx, col) }

		typ := core.TransactionType(strings.ToLower(get(ColType)))
		if hasType && typ != core.TypeExpense {
			continue
		}
		if !hasType {
			typ = core.TypeExpense
		}

		at, err := ParseTime(get(ColDate))
		if err != nil {
			return nil, &RowError{Line: line, Column: ColDate, Err: err}
		}
		amount, err := optionalAmount(get(ColAmount))
		if err != nil {
			return nil, &RowError{Line: line, Column: ColAmount, Err: err}
		}
		converted, err := optionalAmount(get(ColConvertedAmount))
		if err != nil {
			return nil, &RowError{Line: line, Column: ColConvertedAmount, Err: err}
		}

		out = append(out, core.Transaction{
			WhoPaid:         get(ColWhoPaid),
			Amount:          amount,
			Currency:        get(ColCurrency),
			ForWhom:         rawCell(row, idx, ColForWhom),
			SplitAmounts:    rawCell(row, idx, ColSplitAmounts),
			Purpose:         get(ColPurpose),
			Category:        get(ColCategory),
			Time:            at,
			ExchangeRate:    get(ColExchangeRate),
			ConvertedAmount: converted,
			Type:            typ,
			Receipt:         get(ColReceipt),
		})
	}
	return out, nil
}

// ParseEntries converts the rows of an expenses workbook, header first. A
// missing Type column means every row is an expense. Month and Year columns
// are ignored since both derive from the date.
func ParseEntries(rows [][]string) ([]core.Entry, error) {
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}
	idx := headerIndex(rows[0])
	if err := requireColumns(idx, entryRequired); err != nil {
		return nil, err
	}

	var out []core.Entry
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		line := i + 2
		get := func(col string) string { return cell(row, idx, col) }

		at, err := ParseTime(get(ColDate))
		if err != nil {
			return nil, &RowError{Line: line, Column: ColDate, Err: err}
		}
		amount, err := core.ParseAmount(get(ColAmount))
		if err != nil {
			return nil, &RowError{Line: line, Column: ColAmount, Err: err}
		}
		e := core.Entry{
			Time:     at,
			Purpose:  get(ColPurpose),
			Category: get(ColCategory),
			Amount:   amount,
			Kind:     core.ParseEntryKind(get(ColType)),
		}
		if err := e.Validate(); err != nil {
			return nil, &RowError{Line: line, Column: ColCategory, Err: err}
		}
		out = append(out, e)
	}
	return out, nil
}

// ShareRows renders shares with ShareHeader as first row.
func ShareRows(shares []core.Share) [][]string {
	rows := make([][]string, 0, len(shares)+1)
	rows = append(rows, append([]string(nil), ShareHeader...))
	for _, s := range shares {
		rows = append(rows, []string{
			s.Purpose,
			s.Category,
			strconv.Itoa(s.Month),
			s.Amount.String(),
			FormatTime(s.Time),
		})
	}
	return rows
}

// EntryRows renders entries with EntryHeader as first row.
func EntryRows(entries []core.Entry) [][]string {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, append([]string(nil), EntryHeader...))
	for _, e := range entries {
		rows = append(rows, []string{
			FormatTime(e.Time),
			e.Purpose,
			e.Category,
			e.Amount.String(),
			string(e.Kind),
		})
	}
	return rows
}

// ParseTime accepts the textual layouts in DateLayouts as well as
// spreadsheet date serials, which is what Excel and the Sheets API return
// for unformatted date cells.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, core.ErrZeroTime
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// FormatTime is the inverse of ParseTime for the first layout.
func FormatTime(t time.Time) string {
	return t.Format(DateLayouts[0])
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup && h != "" {
			idx[h] = i
		}
	}
	return idx
}

func requireColumns(idx map[string]int, required []string) error {
	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &HeaderError{Missing: missing}
	}
	return nil
}

func rawCell(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func cell(row []string, idx map[string]int, col string) string {
	return strings.TrimSpace(rawCell(row, idx, col))
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func optionalAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return core.ParseAmount(s)
}
