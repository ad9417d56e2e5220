package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/sheets"
	"expenses/internal/sheets/csvfile"
	"expenses/internal/sheets/xlsx"
)

var (
	errUnsupportedFile = errors.New("unsupported file type")
	// excelize only reads the Office Open XML format.
	errLegacyWorkbook = errors.New("legacy .xls workbook")
)

// uploadTable is a parsed upload kept for paging and filtering.
type uploadTable struct {
	Name   string
	Header []string
	Rows   [][]string
	// Entries is empty when the upload cannot be imported.
	Entries []core.Entry
	Note    string
}

type tableView struct {
	Error    string
	Name     string
	Note     string
	UploadID string
	Query    string
	Header   []string
	Rows     [][]string
	Page     int
	Pages    int
	Total    int
}

func (v tableView) Prev() int { return v.Page - 1 }
func (v tableView) Next() int { return v.Page + 1 }

// PageURL links to another page of the same table and filter.
func (v tableView) PageURL(page int) string {
	q := url.Values{}
	if v.UploadID != "" {
		q.Set("upload", v.UploadID)
	}
	if v.Query != "" {
		q.Set("q", v.Query)
	}
	q.Set("page", itoa(page))
	return "/table?" + q.Encode()
}

type tableData struct {
	pageData
	CanImport bool
	View      tableView
}

// handleTable shows the stored entries, or a previous upload when the
// upload parameter names one still in cache.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := tableData{
		pageData:  pageData{Title: "Table", Page: "table"},
		CanImport: s.opts.Importer != nil,
	}
	query := ParseQuery(q)
	page := ParsePage(q)

	if id := q.Get("upload"); id != "" {
		t, ok := s.uploads.Get(id)
		if !ok {
			data.View.Error = "This upload has expired. Please upload the file again."
			s.renderTable(w, r, http.StatusNotFound, data)
			return
		}
		data.View = newTableView(t, id, query, page)
		s.renderTable(w, r, http.StatusOK, data)
		return
	}

	entries, err := s.loadEntries(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Table load failed", log.FieldError, err)
		data.View.Error = errLoadEntries
		s.renderTable(w, r, http.StatusInternalServerError, data)
		return
	}
	rows := sheets.EntryRows(entries)
	t := &uploadTable{Name: "Expenses", Header: rows[0], Rows: rows[1:]}
	data.View = newTableView(t, "", query, page)
	s.renderTable(w, r, http.StatusOK, data)
}

// handleUpload parses an uploaded CSV or workbook. Settle Up exports are
// reshaped into the configured user's shares; expense sheets may also be
// imported into the backend.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		logger.WarnContext(ctx, "Upload form rejected", log.FieldError, err)
		s.writeTableError(w, r, http.StatusUnprocessableEntity, errBadFile)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeTableError(w, r, http.StatusUnprocessableEntity, "Please choose a file to upload.")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	t, err := s.readUpload(ctx, name, file)
	if err != nil {
		logger.WarnContext(ctx, "Upload parsing failed",
			log.FieldFile, name,
			log.FieldError, err)
		msg := errBadFile
		if errors.Is(err, errLegacyWorkbook) {
			msg = errLegacyXLS
		}
		s.writeTableError(w, r, http.StatusUnprocessableEntity, msg)
		return
	}

	id := uuid.NewString()
	s.uploads.Set(id, t)
	logger.InfoContext(ctx, "Upload parsed",
		log.FieldFile, name,
		log.FieldRows, len(t.Rows),
		"upload_id", id)

	resp := NewHTMXResponse()
	if r.FormValue("import") == "1" {
		s.importUpload(ctx, resp, name, t)
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "table_view", newTableView(t, id, "", 1)); err != nil {
		logger.ErrorContext(ctx, "Template execution failed", log.FieldError, err)
		InternalServerError(errBadFile).Write(w)
		return
	}
	resp.BodyHTML(buf.String()).Write(w)
}

func (s *Server) importUpload(ctx context.Context, resp *HTMXResponseBuilder, name string, t *uploadTable) {
	switch {
	case s.opts.Importer == nil:
		resp.TriggerErrorNotification("Importing is not enabled for this backend.")
		return
	case len(t.Entries) == 0:
		resp.TriggerErrorNotification("This file has no entries to import.")
		return
	}

	res, err := s.opts.Importer.Import(ctx, "upload:"+name, t.Entries)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Upload import failed",
			log.FieldFile, name,
			log.FieldError, err)
		resp.TriggerErrorNotification("The import failed.")
		return
	}
	s.invalidateEntries()
	resp.TriggerEntriesImported(res.Ref, res.Rows).
		TriggerSuccessNotification(fmt.Sprintf("Imported %d entries.", res.Rows))
}

// readUpload dispatches on the file extension and recognises the sheet by
// its header.
func (s *Server) readUpload(ctx context.Context, name string, r io.Reader) (*uploadTable, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		rows, err = csvfile.ReadRows(r)
	case ".xlsx":
		rows, err = xlsx.ReadRows(r, "")
	case ".xls":
		return nil, fmt.Errorf("%w: %s", errLegacyWorkbook, name)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedFile, name)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, sheets.ErrNoHeader
	}

	if sheets.IsLedger(rows[0]) {
		return s.reshapeUpload(ctx, name, rows)
	}

	t := &uploadTable{Name: name}
	entries, err := sheets.ParseEntries(rows)
	if err != nil {
		log.FromContext(ctx).DebugContext(ctx, "Upload is not an expenses sheet",
			log.FieldFile, name,
			log.FieldError, err)
		t.Header, t.Rows = rows[0], padRows(rows[1:], len(rows[0]))
		t.Note = "Not an expenses sheet; shown as is."
		return t, nil
	}
	norm := sheets.EntryRows(entries)
	t.Header, t.Rows, t.Entries = norm[0], norm[1:], entries
	return t, nil
}

func (s *Server) reshapeUpload(ctx context.Context, name string, rows [][]string) (*uploadTable, error) {
	txs, err := sheets.ParseTransactions(rows)
	if err != nil {
		return nil, err
	}
	t := &uploadTable{Name: name}
	if s.opts.SettleUp == nil || s.opts.User == "" {
		t.Header, t.Rows = rows[0], padRows(rows[1:], len(rows[0]))
		t.Note = "Settle Up export; no user is configured for reshaping."
		return t, nil
	}

	res, err := s.opts.SettleUp.Reshape(ctx, txs, s.opts.User)
	if err != nil {
		return nil, err
	}
	out := sheets.ShareRows(res.Shares)
	t.Header, t.Rows = out[0], out[1:]
	for _, sh := range res.Shares {
		t.Entries = append(t.Entries, sh.Entry())
	}
	t.Note = fmt.Sprintf("Shares of %s", s.opts.User)
	if n := len(res.Mismatches); n > 0 {
		t.Note += fmt.Sprintf(", %d rows do not add up", n)
	}
	return t, nil
}

// renderTable sends the whole page, or only the view to htmx requests.
func (s *Server) renderTable(w http.ResponseWriter, r *http.Request, code int, data tableData) {
	if isHTMX(r) {
		s.render(w, r, code, "table_view", "", data.View)
		return
	}
	s.render(w, r, code, "table.html", "", data)
}

func (s *Server) writeTableError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	s.render(w, r, code, "table_view", "", tableView{Error: msg})
}

func newTableView(t *uploadTable, id, query string, page int) tableView {
	rows := filterRows(t.Rows, query)
	pageRows, page, pages := paginate(rows, page)
	return tableView{
		Name:     t.Name,
		Note:     t.Note,
		UploadID: id,
		Query:    query,
		Header:   t.Header,
		Rows:     pageRows,
		Page:     page,
		Pages:    pages,
		Total:    len(rows),
	}
}

// padRows evens out ragged rows so every column lines up.
func padRows(rows [][]string, width int) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) < width {
			row = append(append([]string(nil), row...), make([]string, width-len(row))...)
		}
		out = append(out, row)
	}
	return out
}
