package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// Prediction is the rent what-if: actual and predicted figures per month
// and the same figures summed per year (Month is 0 in Years).
type Prediction struct {
	Months []core.Projection
	Years  []core.Projection
}

// Predict recomputes expenses as if every rent entry had cost rent. Months
// without ingress or without expenses count them as zero.
func Predict(entries []core.Entry, rentCategory string, rent decimal.Decimal) Prediction {
	type key struct{ year, month int }
	byMonth := map[key]*core.Projection{}
	for _, e := range entries {
		k := key{e.Year(), e.Month()}
		p, ok := byMonth[k]
		if !ok {
			p = &core.Projection{Year: k.year, Month: k.month}
			byMonth[k] = p
		}
		if !e.IsExpense() {
			p.Ingress = p.Ingress.Add(e.Amount)
			continue
		}
		p.Expenses = p.Expenses.Add(e.Amount)
		if e.Category == rentCategory {
			p.ExpensesPredict = p.ExpensesPredict.Add(rent)
		} else {
			p.ExpensesPredict = p.ExpensesPredict.Add(e.Amount)
		}
	}

	var pred Prediction
	years := map[int]*core.Projection{}
	for _, p := range byMonth {
		p.Savings = p.Ingress.Sub(p.Expenses)
		p.SavingsPredict = p.Ingress.Sub(p.ExpensesPredict)
		pred.Months = append(pred.Months, *p)

		y, ok := years[p.Year]
		if !ok {
			y = &core.Projection{Year: p.Year}
			years[p.Year] = y
		}
		y.Ingress = y.Ingress.Add(p.Ingress)
		y.Expenses = y.Expenses.Add(p.Expenses)
		y.ExpensesPredict = y.ExpensesPredict.Add(p.ExpensesPredict)
		y.Savings = y.Savings.Add(p.Savings)
		y.SavingsPredict = y.SavingsPredict.Add(p.SavingsPredict)
	}
	for _, y := range years {
		pred.Years = append(pred.Years, *y)
	}
	sort.Slice(pred.Months, func(i, j int) bool {
		a, b := pred.Months[i], pred.Months[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	sort.Slice(pred.Years, func(i, j int) bool { return pred.Years[i].Year < pred.Years[j].Year })
	return pred
}
