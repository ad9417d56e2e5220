package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name    string
	Amount  decimal.Decimal
	Percent float64 // share of the period total, 0-100
}

// MonthAmount is a total for one month (1-12) of a year.
type MonthAmount struct {
	Year   int
	Month  int
	Amount decimal.Decimal
}

// YearSummary is the home page row: what came in, what went out, what stayed.
type YearSummary struct {
	Year     int
	Ingress  decimal.Decimal
	Expenses decimal.Decimal
	Savings  decimal.Decimal
}

// Projection is one month of the rent what-if.
type Projection struct {
	Year            int
	Month           int
	Ingress         decimal.Decimal
	Expenses        decimal.Decimal
	ExpensesPredict decimal.Decimal
	Savings         decimal.Decimal
	SavingsPredict  decimal.Decimal
}

// UserMonthAmount is the amount owed by one user in one month.
type UserMonthAmount struct {
	User   string
	Year   int
	Month  int
	Amount decimal.Decimal
}
