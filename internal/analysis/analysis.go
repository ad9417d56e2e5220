// Package analysis aggregates expense entries for plots and dashboard pages.
// Only entries of kind Expense are counted unless a function says otherwise.
package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

var hundred = decimal.NewFromInt(100)

// CategoryMonths is the monthly spend of one category in a year. Index 0 is
// January.
type CategoryMonths struct {
	Category string
	Months   [12]decimal.Decimal
}

// Total returns the sum of every category month.
func (c CategoryMonths) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range c.Months {
		sum = sum.Add(m)
	}
	return sum
}

// YearCategory is the spend of one category in one year.
type YearCategory struct {
	Year     int
	Category string
	Amount   decimal.Decimal
}

// Total sums all expenses.
func Total(entries []core.Entry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		if e.IsExpense() {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}

// Years returns the distinct years present in entries, ascending.
func Years(entries []core.Entry) []int {
	seen := map[int]struct{}{}
	for _, e := range entries {
		seen[e.Year()] = struct{}{}
	}
	return sortedInts(seen)
}

// Months returns the distinct months with expenses in year, ascending.
func Months(entries []core.Entry, year int) []int {
	seen := map[int]struct{}{}
	for _, e := range entries {
		if e.IsExpense() && e.Year() == year {
			seen[e.Month()] = struct{}{}
		}
	}
	return sortedInts(seen)
}

// MonthlyTotals sums the expenses of each month of year that has any.
func MonthlyTotals(entries []core.Entry, year int) []core.MonthAmount {
	sums := map[int]decimal.Decimal{}
	for _, e := range entries {
		if e.IsExpense() && e.Year() == year {
			sums[e.Month()] = sums[e.Month()].Add(e.Amount)
		}
	}
	out := make([]core.MonthAmount, 0, len(sums))
	for m, v := range sums {
		out = append(out, core.MonthAmount{Year: year, Month: m, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// CategoryMonthTotals sums expenses per category and month of year, leaving
// out the categories in excluded. Categories are ordered by name.
func CategoryMonthTotals(entries []core.Entry, year int, excluded []string) []CategoryMonths {
	skip := make(map[string]struct{}, len(excluded))
	for _, c := range excluded {
		skip[c] = struct{}{}
	}
	byCat := map[string]*CategoryMonths{}
	for _, e := range entries {
		if !e.IsExpense() || e.Year() != year {
			continue
		}
		if _, ok := skip[e.Category]; ok {
			continue
		}
		cm, ok := byCat[e.Category]
		if !ok {
			cm = &CategoryMonths{Category: e.Category}
			byCat[e.Category] = cm
		}
		cm.Months[e.Month()-1] = cm.Months[e.Month()-1].Add(e.Amount)
	}
	out := make([]CategoryMonths, 0, len(byCat))
	for _, cm := range byCat {
		out = append(out, *cm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// MonthCategoryTotals sums the expenses of one month per category, rounded
// to cents and sorted by amount descending. Percent is the share of the
// month total.
func MonthCategoryTotals(entries []core.Entry, year, month int) []core.CategoryAmount {
	sums := map[string]decimal.Decimal{}
	for _, e := range entries {
		if e.IsExpense() && e.Year() == year && e.Month() == month {
			sums[e.Category] = sums[e.Category].Add(e.Amount)
		}
	}
	out := categoryAmounts(sums)
	total := decimal.Zero
	for i := range out {
		out[i].Amount = out[i].Amount.Round(2)
		total = total.Add(out[i].Amount)
	}
	if !total.IsZero() {
		for i := range out {
			out[i].Percent = core.Float(out[i].Amount.Mul(hundred).Div(total))
		}
	}
	return out
}

// CategoriesByTotal returns every expense category ordered by total spend,
// largest first. Ties are broken by name.
func CategoriesByTotal(entries []core.Entry) []string {
	sums := map[string]decimal.Decimal{}
	for _, e := range entries {
		if e.IsExpense() {
			sums[e.Category] = sums[e.Category].Add(e.Amount)
		}
	}
	amounts := categoryAmounts(sums)
	out := make([]string, len(amounts))
	for i, a := range amounts {
		out[i] = a.Name
	}
	return out
}

// YearCategoryTotals sums expenses per year for each of categories, in the
// given category order then by year. An empty filter selects every category
// ordered by total spend.
func YearCategoryTotals(entries []core.Entry, categories []string) []YearCategory {
	if len(categories) == 0 {
		categories = CategoriesByTotal(entries)
	}
	rank := make(map[string]int, len(categories))
	for i, c := range categories {
		if _, dup := rank[c]; !dup {
			rank[c] = i
		}
	}
	type key struct {
		year int
		cat  string
	}
	sums := map[key]decimal.Decimal{}
	for _, e := range entries {
		if !e.IsExpense() {
			continue
		}
		if _, ok := rank[e.Category]; !ok {
			continue
		}
		k := key{e.Year(), e.Category}
		sums[k] = sums[k].Add(e.Amount)
	}
	out := make([]YearCategory, 0, len(sums))
	for k, v := range sums {
		out = append(out, YearCategory{Year: k.year, Category: k.cat, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if ri, rj := rank[out[i].Category], rank[out[j].Category]; ri != rj {
			return ri < rj
		}
		return out[i].Year < out[j].Year
	})
	return out
}

// Summary returns, per year, what came in, what went out and the difference.
func Summary(entries []core.Entry) []core.YearSummary {
	byYear := map[int]*core.YearSummary{}
	for _, e := range entries {
		ys, ok := byYear[e.Year()]
		if !ok {
			ys = &core.YearSummary{Year: e.Year()}
			byYear[e.Year()] = ys
		}
		if e.IsExpense() {
			ys.Expenses = ys.Expenses.Add(e.Amount)
		} else {
			ys.Ingress = ys.Ingress.Add(e.Amount)
		}
	}
	out := make([]core.YearSummary, 0, len(byYear))
	for _, ys := range byYear {
		ys.Savings = ys.Ingress.Sub(ys.Expenses)
		out = append(out, *ys)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func categoryAmounts(sums map[string]decimal.Decimal) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(sums))
	for name, v := range sums {
		out = append(out, core.CategoryAmount{Name: name, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
