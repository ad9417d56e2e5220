package plots

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"expenses/internal/analysis"
	"expenses/internal/core"
)

const euroLabel = "€"

var (
	barWidth  = vg.Points(18)
	pageW     = 10 * vg.Inch
	pageH     = 6 * vg.Inch
	facetSize = 3 * vg.Inch
)

// Facet is one small chart of a grid: a bar per label.
type Facet struct {
	Title  string
	Labels []string
	Values []float64
}

// Series is one named set of bars or points sharing the X labels of a chart.
type Series struct {
	Name   string
	Values []float64
}

// MonthlyTotals draws the expense total of each month of year.
func MonthlyTotals(year int, totals []core.MonthAmount) (Figure, error) {
	labels := make([]string, len(totals))
	values := make([]float64, len(totals))
	for i, t := range totals {
		labels[i] = monthLabel(t.Month)
		values[i] = core.Float(t.Amount)
	}
	p, err := barPlot(fmt.Sprintf("Monthly expenses %d", year), labels, values)
	if err != nil {
		return nil, err
	}
	return single{p: p, w: pageW, h: pageH}, nil
}

// MonthCategories draws the spend per category of one month.
func MonthCategories(year, month int, cats []core.CategoryAmount) (Figure, error) {
	labels := make([]string, len(cats))
	values := make([]float64, len(cats))
	for i, c := range cats {
		labels[i] = c.Name
		values[i] = core.Float(c.Amount)
	}
	p, err := barPlot(fmt.Sprintf("Expenses %d-%02d", year, month), labels, values)
	if err != nil {
		return nil, err
	}
	p.X.Tick.Label.Rotation = math.Pi / 4
	return single{p: p, w: pageW, h: pageW}, nil
}

// MonthShares draws each category's percentage of one month's spend,
// largest first.
func MonthShares(year, month int, cats []core.CategoryAmount) (Figure, error) {
	labels := make([]string, len(cats))
	values := make([]float64, len(cats))
	for i, c := range cats {
		labels[i] = fmt.Sprintf("%s %.1f%%", c.Name, c.Percent)
		values[i] = c.Percent
	}
	p, err := barPlot(fmt.Sprintf("Expenses by category %d-%02d", year, month), labels, values)
	if err != nil {
		return nil, err
	}
	p.Y.Label.Text = "%"
	p.X.Tick.Label.Rotation = math.Pi / 4
	return single{p: p, w: pageW, h: pageH}, nil
}

// Grid draws facets in rows of cols charts sharing one style.
func Grid(facets []Facet, cols int) (Figure, error) {
	plots := make([]*plot.Plot, 0, len(facets))
	for _, f := range facets {
		p, err := barPlot(f.Title, f.Labels, f.Values)
		if err != nil {
			return nil, fmt.Errorf("facet %q: %w", f.Title, err)
		}
		plots = append(plots, p)
	}
	return newGrid(plots, cols, facetSize, facetSize), nil
}

// CategoryFacets turns category month totals into one facet per category
// with a bar per month.
func CategoryFacets(cms []analysis.CategoryMonths) []Facet {
	labels := make([]string, 12)
	for m := range labels {
		labels[m] = monthLabel(m + 1)
	}
	out := make([]Facet, len(cms))
	for i, cm := range cms {
		values := make([]float64, 12)
		for m, v := range cm.Months {
			values[m] = core.Float(v)
		}
		out[i] = Facet{Title: cm.Category, Labels: labels, Values: values}
	}
	return out
}

// MonthFacets turns category month totals into one facet per month with
// a bar per category, in the order of categories. Months without spend are
// skipped.
func MonthFacets(cms []analysis.CategoryMonths, categories []string) []Facet {
	byCat := make(map[string]analysis.CategoryMonths, len(cms))
	for _, cm := range cms {
		byCat[cm.Category] = cm
	}
	var out []Facet
	for m := 0; m < 12; m++ {
		f := Facet{Title: time.Month(m + 1).String()}
		total := 0.0
		for _, c := range categories {
			cm, ok := byCat[c]
			if !ok {
				continue
			}
			v := core.Float(cm.Months[m])
			f.Labels = append(f.Labels, c)
			f.Values = append(f.Values, v)
			total += v
		}
		if total != 0 {
			out = append(out, f)
		}
	}
	return out
}

// YearFacets turns year category totals into one facet per category with a
// bar per year, keeping the category order of totals.
func YearFacets(totals []analysis.YearCategory) []Facet {
	var out []Facet
	index := map[string]int{}
	for _, t := range totals {
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, Facet{Title: t.Category})
		}
		out[i].Labels = append(out[i].Labels, fmt.Sprint(t.Year))
		out[i].Values = append(out[i].Values, core.Float(t.Amount))
	}
	return out
}

// Summary draws Ingress, Expenses and Savings side by side for each year.
func Summary(years []core.YearSummary) (Figure, error) {
	labels := make([]string, len(years))
	series := []Series{{Name: "Ingress"}, {Name: "Expenses"}, {Name: "Savings"}}
	for i, y := range years {
		labels[i] = fmt.Sprint(y.Year)
		series[0].Values = append(series[0].Values, core.Float(y.Ingress))
		series[1].Values = append(series[1].Values, core.Float(y.Expenses))
		series[2].Values = append(series[2].Values, core.Float(y.Savings))
	}
	p, err := groupedBars("Summary", labels, series)
	if err != nil {
		return nil, err
	}
	return single{p: p, w: pageW, h: pageH}, nil
}

// Prediction draws monthly Ingress, Savings and Savings Predict with
// horizontal reference lines at target and at zero.
func Prediction(pred analysis.Prediction, target decimal.Decimal) (Figure, error) {
	labels := make([]string, len(pred.Months))
	series := []Series{{Name: "Ingress"}, {Name: "Savings"}, {Name: "Savings Predict"}}
	for i, m := range pred.Months {
		labels[i] = fmt.Sprintf("%d-%02d", m.Year, m.Month)
		series[0].Values = append(series[0].Values, core.Float(m.Ingress))
		series[1].Values = append(series[1].Values, core.Float(m.Savings))
		series[2].Values = append(series[2].Values, core.Float(m.SavingsPredict))
	}
	p, err := scatterPlot("Prediction", labels, series)
	if err != nil {
		return nil, err
	}
	if len(labels) > 0 {
		for i, ref := range []float64{core.Float(target), 0} {
			line, err := plotter.NewLine(plotter.XYs{{X: 0, Y: ref}, {X: float64(len(labels) - 1), Y: ref}})
			if err != nil {
				return nil, err
			}
			line.Color = plotutil.Color(len(series) + i)
			line.Dashes = plotutil.Dashes(1)
			p.Add(line)
			p.Legend.Add(fmt.Sprintf("%g", ref), line)
		}
	}
	p.X.Tick.Label.Rotation = math.Pi / 4
	return single{p: p, w: pageW, h: pageH}, nil
}

// PredictionYears draws yearly Ingress, Savings and Savings Predict.
func PredictionYears(pred analysis.Prediction) (Figure, error) {
	labels := make([]string, len(pred.Years))
	series := []Series{{Name: "Ingress"}, {Name: "Savings"}, {Name: "Savings Predict"}}
	for i, y := range pred.Years {
		labels[i] = fmt.Sprint(y.Year)
		series[0].Values = append(series[0].Values, core.Float(y.Ingress))
		series[1].Values = append(series[1].Values, core.Float(y.Savings))
		series[2].Values = append(series[2].Values, core.Float(y.SavingsPredict))
	}
	p, err := groupedBars("Prediction by year", labels, series)
	if err != nil {
		return nil, err
	}
	return single{p: p, w: pageW, h: pageH}, nil
}

// UserTotals draws a point per user and month with what each user owes.
func UserTotals(totals []core.UserMonthAmount) (Figure, error) {
	type ym struct{ year, month int }
	var months []ym
	pos := map[ym]int{}
	for _, t := range totals {
		k := ym{t.Year, t.Month}
		if _, ok := pos[k]; !ok {
			pos[k] = 0
			months = append(months, k)
		}
	}
	sort.Slice(months, func(i, j int) bool {
		a, b := months[i], months[j]
		return a.year < b.year || (a.year == b.year && a.month < b.month)
	})
	labels := make([]string, len(months))
	for i, k := range months {
		pos[k] = i
		labels[i] = fmt.Sprintf("%d-%02d", k.year, k.month)
	}

	var series []Series
	index := map[string]int{}
	for _, t := range totals {
		i, ok := index[t.User]
		if !ok {
			i = len(series)
			index[t.User] = i
			series = append(series, Series{Name: t.User, Values: nanValues(len(labels))})
		}
		series[i].Values[pos[ym{t.Year, t.Month}]] = core.Float(t.Amount)
	}
	p, err := scatterPlot("Monthly total expenses", labels, series)
	if err != nil {
		return nil, err
	}
	p.X.Label.Text = "Month"
	p.X.Tick.Label.Rotation = math.Pi / 4
	return single{p: p, w: pageW, h: pageW}, nil
}

func barPlot(title string, labels []string, values []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = euroLabel
	if len(values) > 0 {
		bars, err := plotter.NewBarChart(plotter.Values(values), barWidth)
		if err != nil {
			return nil, err
		}
		bars.Color = plotutil.Color(0)
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
	}
	nominalX(p, labels)
	return p, nil
}

func groupedBars(title string, labels []string, series []Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = euroLabel
	p.Legend.Top = true
	if len(labels) > 0 {
		w := barWidth
		for i, s := range series {
			bars, err := plotter.NewBarChart(plotter.Values(s.Values), w)
			if err != nil {
				return nil, fmt.Errorf("series %q: %w", s.Name, err)
			}
			bars.Color = plotutil.Color(i)
			bars.LineStyle.Width = vg.Length(0)
			bars.Offset = w * vg.Length(float64(i)-float64(len(series)-1)/2)
			p.Add(bars)
			p.Legend.Add(s.Name, bars)
		}
	}
	nominalX(p, labels)
	return p, nil
}

// scatterPlot places series points at the index of their label. NaN values
// are left out.
func scatterPlot(title string, labels []string, series []Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = euroLabel
	p.Legend.Top = true
	for i, s := range series {
		var xys plotter.XYs
		for x, v := range s.Values {
			if math.IsNaN(v) {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(x), Y: v})
		}
		if len(xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Name, err)
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Shape = plotutil.Shape(i)
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		p.Legend.Add(s.Name, sc)
	}
	nominalX(p, labels)
	return p, nil
}

// nominalX labels the X axis with names. gonum panics on an empty list,
// so an empty chart keeps its numeric axis.
func nominalX(p *plot.Plot, names []string) {
	if len(names) > 0 {
		p.NominalX(names...)
	}
}

func monthLabel(m int) string {
	return time.Month(m).String()[:3]
}

func nanValues(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
