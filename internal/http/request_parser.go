// Query parameter parsing. Invalid values fall back to defaults.

package http

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// Category page tabs.
const (
	TabTotal = "total"
	TabYear  = "year"
)

// ParseIntParam returns the integer value of key, or def when missing or
// malformed.
func ParseIntParam(query url.Values, key string, def int) int {
	if v := strings.TrimSpace(query.Get(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// ParseMonth returns the month of the query, or def when missing or out of
// the 1-12 range.
func ParseMonth(query url.Values, def int) int {
	m := ParseIntParam(query, "month", def)
	if m < 1 || m > 12 {
		return def
	}
	return m
}

// ParsePage returns the 1-based page number of the query.
func ParsePage(query url.Values) int {
	return max(ParseIntParam(query, "page", 1), 1)
}

// ParseTab returns the categories tab, total unless year is asked for.
func ParseTab(query url.Values) string {
	if strings.TrimSpace(query.Get("tab")) == TabYear {
		return TabYear
	}
	return TabTotal
}

// ParseCategories returns the distinct non-empty cat values in order.
func ParseCategories(query url.Values) []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range query["cat"] {
		c = sanitizeInput(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// ParseRent returns the rent of the what-if. Negative values are raised to
// zero.
func ParseRent(query url.Values, def decimal.Decimal) decimal.Decimal {
	v := strings.TrimSpace(query.Get("rent"))
	if v == "" {
		return def
	}
	rent, err := core.ParseAmount(v)
	if err != nil {
		return def
	}
	if rent.IsNegative() {
		return decimal.Zero
	}
	return rent
}

// ParseQuery returns the sanitized table filter.
func ParseQuery(query url.Values) string {
	return sanitizeInput(query.Get("q"))
}
