package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	pageSize       = 20
	errLoadEntries = "Could not load expenses."
	errBadFile     = "There was an error processing this file."
	errLegacyXLS   = "Legacy .xls workbooks are not supported. Save the file as .xlsx or .csv and upload it again."
)

// pageData is shared by every full page.
type pageData struct {
	Title string
	Page  string
	Error string
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func monthNames() []string {
	out := make([]string, 12)
	for i := range out {
		out[i] = time.Month(i + 1).String()[:3]
	}
	return out
}

// filterRows keeps the rows with a cell containing q, ignoring case.
func filterRows(rows [][]string, q string) [][]string {
	if q == "" {
		return rows
	}
	q = strings.ToLower(q)
	var out [][]string
	for _, row := range rows {
		for _, c := range row {
			if strings.Contains(strings.ToLower(c), q) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// paginate returns page (1-based, clamped to the last page) of rows and the
// number of pages, at least one.
func paginate(rows [][]string, page int) ([][]string, int, int) {
	pages := max((len(rows)+pageSize-1)/pageSize, 1)
	page = min(max(page, 1), pages)
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(rows))
	return rows[start:end], page, pages
}

// chartURL builds a chart link carrying the given query.
func chartURL(name string, query url.Values) string {
	u := "/charts/" + name + ".svg"
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
