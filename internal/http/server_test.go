package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
	"expenses/internal/services"
	"expenses/internal/sheets/memory"
)

type failingReader struct{}

func (failingReader) ListEntries(context.Context) ([]core.Entry, error) {
	return nil, errors.New("backend down")
}

func testEntry(y int, m time.Month, cat, amount string, kind core.EntryKind) core.Entry {
	return core.Entry{
		Time:     time.Date(y, m, 3, 12, 0, 0, 0, time.UTC),
		Purpose:  cat + " purpose",
		Category: cat,
		Amount:   decimal.RequireFromString(amount),
		Kind:     kind,
	}
}

func seededStore() *memory.Store {
	return memory.New(nil, []core.Entry{
		testEntry(2023, time.March, "Food", "30", core.KindExpense),
		testEntry(2024, time.May, "Salary", "2000", core.KindIngress),
		testEntry(2024, time.May, "Rent", "700", core.KindExpense),
		testEntry(2024, time.May, "Food", "50.25", core.KindExpense),
	})
}

func newTestServer(t *testing.T, mutate func(*Options)) *Server {
	t.Helper()
	store := seededStore()
	opts := Options{
		Entries:       store,
		Importer:      services.NewImportService(store, nil),
		SettleUp:      services.NewSettleUpService(nil, nil, true),
		User:          "bob",
		RentCategory:  "Rent",
		CurrentRent:   decimal.NewFromInt(700),
		SavingsTarget: decimal.NewFromInt(500),
		UploadRate:    100,
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := NewServer(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func do(s *Server, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, r)
	return w
}

func get(s *Server, target string, htmx bool) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	if htmx {
		r.Header.Set("HX-Request", "true")
	}
	return do(s, r)
}

func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/table/upload", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	r.Header.Set("HX-Request", "true")
	return r
}

var uploadIDRe = regexp.MustCompile(`name="upload" value="([0-9a-f-]+)"`)

func uploadID(t *testing.T, body string) string {
	t.Helper()
	m := uploadIDRe.FindStringSubmatch(body)
	require.Len(t, m, 2, "upload id not found in %s", body)
	return m[1]
}

const ledgerCSV = "Who paid,Amount,Currency,For whom,Split amounts,Purpose,Category,Date & time,Exchange rate,Converted amount,Type,Receipt\n" +
	"alice,10,EUR,alice;bob,6;4,Dinner,Food,2024-05-03 20:00:00,1,10,expense,\n" +
	"alice,5,EUR,alice,5,Coffee,Food,2024-05-04 09:00:00,1,5,expense,\n" +
	"bob,20,EUR,alice,20,Refund,,2024-05-05 10:00:00,1,20,transfer,\n"

const entriesCSV = "Date & time,Purpose,Category,Amount,Type\n" +
	"2024-06-01,Gym,Sport,30,Expense\n" +
	"2024-06-02,Books,Leisure,12.5,Expense\n"

func TestNewServerRequiresEntries(t *testing.T) {
	_, err := NewServer(Options{})
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, nil)

	w := get(s, "/", false)
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "2023")
	assert.Contains(t, body, "2024")
	assert.Contains(t, body, "€2000,00")
	assert.Contains(t, body, "/charts/summary.svg")

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestIndexBackendFailure(t *testing.T) {
	s := newTestServer(t, func(o *Options) { o.Entries = failingReader{} })

	w := get(s, "/", false)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), errLoadEntries)
}

func TestUnknownPathIsNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, get(s, "/nope", false).Code)
}

func TestCategories(t *testing.T) {
	s := newTestServer(t, nil)

	w := get(s, "/categories", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Food")
	assert.Contains(t, w.Body.String(), "Rent")

	w = get(s, "/categories?tab=year&year=2024", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<html")
	assert.Contains(t, w.Body.String(), "categories-year.svg")
}

func TestPredict(t *testing.T) {
	s := newTestServer(t, nil)

	w := get(s, "/predict?rent=900", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rent=900")

	w = get(s, "/predict?rent=-5", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rent=0")
}

func TestCharts(t *testing.T) {
	s := newTestServer(t, nil)

	names := []string{
		"summary", "categories-total", "categories-year", "monthly",
		"month-categories", "month-shares", "predict", "predict-years",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			w := get(s, "/charts/"+name+".svg?year=2024&month=5&rent=900", false)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), "<svg")
		})
	}

	assert.Equal(t, http.StatusNotFound, get(s, "/charts/pie.svg", false).Code)
	assert.Equal(t, http.StatusNotFound, get(s, "/charts/summary.png", false).Code)
}

func TestChartsWithoutData(t *testing.T) {
	s := newTestServer(t, func(o *Options) { o.Entries = memory.New(nil, nil) })

	targets := []string{
		"/charts/summary.svg",
		"/charts/monthly.svg?year=2099",
		"/charts/month-categories.svg?year=2099&month=1",
		"/charts/month-shares.svg?year=2099&month=1",
		"/charts/categories-year.svg?year=2099",
		"/charts/categories-total.svg",
		"/charts/predict.svg",
		"/charts/predict-years.svg",
	}
	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			w := get(s, target, false)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), "<svg")
		})
	}
}

func TestTableShowsStoredEntries(t *testing.T) {
	s := newTestServer(t, nil)

	w := get(s, "/table", false)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Rent purpose")
	assert.Contains(t, body, "4 rows")
	assert.Contains(t, body, `name="import"`)

	w = get(s, "/table?q=rent", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "1 rows")
	assert.NotContains(t, w.Body.String(), "Salary purpose")
}

func TestTableWithoutImporterHidesImport(t *testing.T) {
	s := newTestServer(t, func(o *Options) { o.Importer = nil })

	w := get(s, "/table", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `name="import"`)
}

func TestTableExpiredUpload(t *testing.T) {
	s := newTestServer(t, nil)

	w := get(s, "/table?upload=missing", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestUploadEntriesCSV(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, uploadRequest(t, "june.csv", entriesCSV, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Contains(t, body, "Gym")
	assert.Contains(t, body, "2 rows")
	assert.Empty(t, w.Header().Get("HX-Trigger"))

	id := uploadID(t, body)
	w = get(s, "/table?upload="+id+"&q=books", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Books")
	assert.NotContains(t, w.Body.String(), "Gym")

	// Not imported.
	w = get(s, "/table?q=gym", true)
	assert.Contains(t, w.Body.String(), "0 rows")
}

func TestUploadLedgerReshapesForUser(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, uploadRequest(t, "settleup.csv", ledgerCSV, map[string]string{"import": "1"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Contains(t, body, "Shares of bob")
	assert.Contains(t, body, "Dinner")
	assert.NotContains(t, body, "Coffee")
	assert.Contains(t, body, "1 rows")

	var triggers map[string]any
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers))
	assert.Contains(t, triggers, "entries:imported")

	// The cached entries were invalidated by the import.
	w = get(s, "/table?q=dinner", true)
	assert.Contains(t, w.Body.String(), "1 rows")
}

func TestUploadLedgerWithoutUser(t *testing.T) {
	s := newTestServer(t, func(o *Options) { o.User = "" })

	w := do(s, uploadRequest(t, "settleup.csv", ledgerCSV, map[string]string{"import": "1"}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "no user is configured")

	var triggers map[string]any
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers))
	note := triggers["show-notification"].(map[string]any)
	assert.Equal(t, "error", note["type"])
}

func TestUploadUnknownSheetShownAsIs(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, uploadRequest(t, "misc.csv", "a,b\n1\n2,3\n", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shown as is")
	assert.Contains(t, w.Body.String(), "2 rows")
}

func TestUploadRejectsBadFiles(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name, filename, content string
	}{
		{"unsupported extension", "notes.txt", "hello"},
		{"empty csv", "empty.csv", ""},
		{"bad ledger date", "settleup.csv", strings.Replace(ledgerCSV, "2024-05-03 20:00:00", "yesterday", 1)},
		{"broken workbook", "book.xlsx", "not a zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, uploadRequest(t, tt.filename, tt.content, nil))
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, w.Body.String(), errBadFile)
		})
	}
}

func TestUploadRejectsLegacyWorkbook(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, uploadRequest(t, "Expenses 2019.XLS", "\xd0\xcf\x11\xe0\xa1\xb1\x1a\xe1", map[string]string{"import": "1"}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Legacy .xls workbooks are not supported")
	assert.NotContains(t, w.Body.String(), errBadFile)
	assert.Empty(t, w.Header().Get("HX-Trigger"))
}

func TestUploadMissingFile(t *testing.T) {
	s := newTestServer(t, nil)

	r := httptest.NewRequest(http.MethodPost, "/table/upload", strings.NewReader("import=1"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := do(s, r)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUploadRateLimited(t *testing.T) {
	s := newTestServer(t, func(o *Options) { o.UploadRate = 1 })

	w := do(s, uploadRequest(t, "june.csv", entriesCSV, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = do(s, uploadRequest(t, "june.csv", entriesCSV, nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// Reads are not limited.
	assert.Equal(t, http.StatusOK, get(s, "/table", true).Code)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, nil)

	w := get(s, "/healthz", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	w = get(s, "/readyz", false)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
	checks := body["checks"].(map[string]any)
	assert.EqualValues(t, 4, checks["entries"])
}

func TestReadyReportsBackendFailure(t *testing.T) {
	s := newTestServer(t, func(o *Options) {
		o.Ready = func(context.Context) error { return errors.New("ping failed") }
	})

	w := get(s, "/readyz", false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "ping failed")
}

func TestStaticAssets(t *testing.T) {
	s := newTestServer(t, nil)

	w := get(s, "/static/style.css", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Cache-Control"), "max-age=3600")
}
