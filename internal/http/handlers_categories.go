package http

import (
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/analysis"
	"expenses/internal/core"
	"expenses/internal/log"
)

type categoryOption struct {
	Name     string
	Selected bool
}

type yearOption struct {
	Year     int
	Selected bool
}

type categoryRow struct {
	Name  string
	Cells []string
}

type categoriesData struct {
	pageData
	Tab         string
	Options     []categoryOption
	Years       []int
	YearOptions []yearOption
	MonthNames  []string
	Rows        []categoryRow
	ChartURL    string
}

// handleCategories renders either the per-year totals of a category
// selection or the per-month totals of one year.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := categoriesData{
		pageData: pageData{Title: "Categories", Page: "categories"},
		Tab:      ParseTab(q),
	}

	entries, err := s.loadEntries(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Categories load failed", log.FieldError, err)
		data.Error = errLoadEntries
		s.render(w, r, http.StatusInternalServerError, "categories.html", "categories_panel", data)
		return
	}

	if data.Tab == TabYear {
		s.fillCategoryYear(&data, entries, ParseIntParam(q, "year", time.Now().Year()))
	} else {
		s.fillCategoryTotal(&data, entries, ParseCategories(q))
	}
	s.render(w, r, http.StatusOK, "categories.html", "categories_panel", data)
}

// fillCategoryTotal tabulates a year column per category. Unknown
// categories are dropped; an empty selection means every category ordered
// by spend.
func (s *Server) fillCategoryTotal(data *categoriesData, entries []core.Entry, selected []string) {
	all := analysis.CategoriesByTotal(entries)
	selected = slices.DeleteFunc(selected, func(c string) bool { return !slices.Contains(all, c) })
	explicit := len(selected) > 0
	if !explicit {
		selected = all
	}

	for _, c := range all {
		data.Options = append(data.Options, categoryOption{Name: c, Selected: slices.Contains(selected, c)})
	}

	totals := analysis.YearCategoryTotals(entries, selected)
	data.Years = analysis.Years(entries)
	byKey := map[string]map[int]decimal.Decimal{}
	for _, t := range totals {
		if byKey[t.Category] == nil {
			byKey[t.Category] = map[int]decimal.Decimal{}
		}
		byKey[t.Category][t.Year] = t.Amount
	}
	for _, c := range selected {
		row := categoryRow{Name: c}
		for _, y := range data.Years {
			row.Cells = append(row.Cells, core.FormatEuros(byKey[c][y]))
		}
		data.Rows = append(data.Rows, row)
	}

	query := url.Values{}
	if explicit {
		query["cat"] = selected
	}
	data.ChartURL = chartURL("categories-total", query)
}

// fillCategoryYear tabulates the months of year per category, with a total
// column.
func (s *Server) fillCategoryYear(data *categoriesData, entries []core.Entry, year int) {
	years := analysis.Years(entries)
	if !slices.Contains(years, year) {
		years = append(years, year)
		slices.Sort(years)
	}
	for _, y := range years {
		data.YearOptions = append(data.YearOptions, yearOption{Year: y, Selected: y == year})
	}
	data.MonthNames = monthNames()

	for _, cm := range analysis.CategoryMonthTotals(entries, year, nil) {
		row := categoryRow{Name: cm.Category}
		for _, m := range cm.Months {
			row.Cells = append(row.Cells, core.FormatEuros(m))
		}
		row.Cells = append(row.Cells, core.FormatEuros(cm.Total()))
		data.Rows = append(data.Rows, row)
	}
	data.ChartURL = chartURL("categories-year", url.Values{"year": {itoa(year)}})
}
