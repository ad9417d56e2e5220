// Package google reads and writes the expenses spreadsheet through the
// Google Sheets API.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expenses/internal/core"
	ports "expenses/internal/sheets"
)

// Options names the spreadsheet and its tabs.
type Options struct {
	SpreadsheetID   string
	LedgerSheet     string
	ExpensesSheet   string
	SharesSheet     string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
	expensesSheet string
	sharesSheet   string
}

// Ensure interface conformance
var (
	_ ports.LedgerReader = (*Client)(nil)
	_ ports.ShareWriter  = (*Client)(nil)
	_ ports.EntryReader  = (*Client)(nil)
	_ ports.EntryWriter  = (*Client)(nil)

	ErrNoService = errors.New("sheets service not initialized")
)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, opts), nil
}

// NewWithService wraps an existing service. Empty tab names fall back to
// "Settle Up", "Expenses" and "Shares".
func NewWithService(svc *gsheet.Service, opts Options) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		ledgerSheet:   orDefault(opts.LedgerSheet, "Settle Up"),
		expensesSheet: orDefault(opts.ExpensesSheet, "Expenses"),
		sharesSheet:   orDefault(opts.SharesSheet, "Shares"),
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials,
// taken from the options or from GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(opts.CredentialsJSON))
	file := strings.TrimSpace(opts.CredentialsFile)
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case len(credentialsJSON) > 0:
		slog.InfoContext(ctx, "Using inline JSON credentials")
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set google_credentials_file or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", opts.SpreadsheetID)
	return service, nil
}

func (c *Client) ReadLedger(ctx context.Context) ([]core.Transaction, error) {
	rows, err := c.readAll(ctx, c.ledgerSheet)
	if err != nil {
		return nil, err
	}
	txs, err := ports.ParseTransactions(rows)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.ledgerSheet, err)
	}
	return txs, nil
}

func (c *Client) ListEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := c.readAll(ctx, c.expensesSheet)
	if err != nil {
		return nil, err
	}
	entries, err := ports.ParseEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.expensesSheet, err)
	}
	return entries, nil
}

// WriteShares appends shares below the existing rows of the shares tab,
// writing the header first when the tab is empty.
func (c *Client) WriteShares(ctx context.Context, user string, shares []core.Share) (string, error) {
	if c.svc == nil {
		return "", ErrNoService
	}
	rng := fmt.Sprintf("%s!A:A", c.sharesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", c.sharesSheet, err)
	}

	rows := ports.ShareRows(shares)
	if len(resp.Values) > 0 {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return "", nil
	}
	nextRow := len(resp.Values) + 1
	lastRow := nextRow + len(rows) - 1
	dataRange := fmt.Sprintf("%s!A%d:E%d", c.sharesSheet, nextRow, lastRow)

	vr := &gsheet.ValueRange{Values: toValues(rows)}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", dataRange, err)
	}
	slog.InfoContext(ctx, "Shares appended", "user", user, "range", dataRange)
	return dataRange, nil
}

// ReplaceEntries clears the expenses tab and writes entries from A1. The
// tab holds a single source, so source is only logged.
func (c *Client) ReplaceEntries(ctx context.Context, source string, entries []core.Entry) (string, error) {
	if c.svc == nil {
		return "", ErrNoService
	}
	clearRange := fmt.Sprintf("%s!A:Z", c.expensesSheet)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rows := ports.EntryRows(entries)
	dataRange := fmt.Sprintf("%s!A1:E%d", c.expensesSheet, len(rows))
	vr := &gsheet.ValueRange{Values: toValues(rows)}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", dataRange, err)
	}
	slog.InfoContext(ctx, "Entries replaced", "source", source, "range", dataRange)
	return dataRange, nil
}

// readAll returns every row of a tab with unformatted values and dates as
// serial numbers.
func (c *Client) readAll(ctx context.Context, sheetName string) ([][]string, error) {
	if c.svc == nil {
		return nil, ErrNoService
	}
	rng := fmt.Sprintf("%s!A:Z", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = toStrings(row)
	}
	return rows, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(x))
		}
	}
	return out
}

func toValues(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		out[i] = vals
	}
	return out
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
