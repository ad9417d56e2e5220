package http

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"expenses/internal/analysis"
	"expenses/internal/core"
	"expenses/internal/log"
)

// DefaultPredictRent is the rent the what-if starts from.
var DefaultPredictRent = decimal.NewFromInt(800)

type projectionRow struct {
	Label                                                      string
	Expenses, ExpensesPredict, Ingress, Savings, SavingsPredict string
}

func newProjectionRow(label string, p core.Projection) projectionRow {
	return projectionRow{
		Label:           label,
		Expenses:        core.FormatEuros(p.Expenses),
		ExpensesPredict: core.FormatEuros(p.ExpensesPredict),
		Ingress:         core.FormatEuros(p.Ingress),
		Savings:         core.FormatEuros(p.Savings),
		SavingsPredict:  core.FormatEuros(p.SavingsPredict),
	}
}

// handlePredict renders the rent what-if for the rent query parameter.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	rent := ParseRent(r.URL.Query(), DefaultPredictRent)
	data := struct {
		pageData
		Rent          string
		CurrentRent   string
		Months        []projectionRow
		Years         []projectionRow
		ChartURL      string
		YearsChartURL string
	}{
		pageData:    pageData{Title: "Predict", Page: "predict"},
		Rent:        rent.String(),
		CurrentRent: core.FormatEuros(s.opts.CurrentRent),
	}

	entries, err := s.loadEntries(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Predict load failed", log.FieldError, err)
		data.Error = errLoadEntries
		s.render(w, r, http.StatusInternalServerError, "predict.html", "predict_view", data)
		return
	}

	pred := analysis.Predict(entries, s.opts.RentCategory, rent)
	for _, m := range pred.Months {
		data.Months = append(data.Months, newProjectionRow(fmt.Sprintf("%d-%02d", m.Year, m.Month), m))
	}
	for _, y := range pred.Years {
		data.Years = append(data.Years, newProjectionRow(itoa(y.Year), y))
	}
	query := url.Values{"rent": {rent.String()}}
	data.ChartURL = chartURL("predict", query)
	data.YearsChartURL = chartURL("predict-years", query)
	s.render(w, r, http.StatusOK, "predict.html", "predict_view", data)
}
