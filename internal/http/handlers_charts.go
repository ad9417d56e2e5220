package http

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"expenses/internal/analysis"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/plots"
)

var errUnknownChart = errors.New("unknown chart")

// handleChart renders /charts/{name}.svg from the cached entries.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(r.PathValue("name"), ".svg")
	if !ok {
		NotFoundError("Chart not found").Write(w)
		return
	}

	entries, err := s.loadEntries(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Chart load failed", log.FieldError, err, "chart", name)
		InternalServerError(errLoadEntries).Write(w)
		return
	}

	fig, err := s.chart(name, r, entries)
	if errors.Is(err, errUnknownChart) {
		NotFoundError("Chart not found").Write(w)
		return
	}
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Chart build failed", log.FieldError, err, "chart", name)
		InternalServerError("Could not draw chart.").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := fig.Render(&buf, "svg"); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Chart render failed", log.FieldError, err, "chart", name)
		InternalServerError("Could not draw chart.").Write(w)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) chart(name string, r *http.Request, entries []core.Entry) (plots.Figure, error) {
	q := r.URL.Query()
	now := time.Now()
	year := ParseIntParam(q, "year", now.Year())

	switch name {
	case "summary":
		return plots.Summary(analysis.Summary(entries))
	case "categories-total":
		facets := plots.YearFacets(analysis.YearCategoryTotals(entries, ParseCategories(q)))
		return plots.Grid(facets, plots.FacetColumns)
	case "categories-year":
		cms := analysis.CategoryMonthTotals(entries, year, nil)
		return plots.Grid(plots.CategoryFacets(cms), plots.FacetColumns)
	case "monthly":
		return plots.MonthlyTotals(year, analysis.MonthlyTotals(entries, year))
	case "month-categories":
		month := ParseMonth(q, int(now.Month()))
		return plots.MonthCategories(year, month, analysis.MonthCategoryTotals(entries, year, month))
	case "month-shares":
		month := ParseMonth(q, int(now.Month()))
		return plots.MonthShares(year, month, analysis.MonthCategoryTotals(entries, year, month))
	case "predict":
		pred := analysis.Predict(entries, s.opts.RentCategory, ParseRent(q, DefaultPredictRent))
		return plots.Prediction(pred, s.opts.SavingsTarget)
	case "predict-years":
		pred := analysis.Predict(entries, s.opts.RentCategory, ParseRent(q, DefaultPredictRent))
		return plots.PredictionYears(pred)
	default:
		return nil, errUnknownChart
	}
}
