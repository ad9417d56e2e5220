package plots

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"expenses/internal/analysis"
	"expenses/internal/core"
	"expenses/internal/log"
)

// FacetColumns is the number of category facets per row.
const FacetColumns = 4

// Renderer writes the analyzer charts of each year under Dir:
//
//	<Dir>/<year>_Monthly Expenses.png
//	<Dir>/<year>_Expenses by Category and Month - <idx>.png
//	<Dir>/<year>/<year>_<MM>_Expenses.png
//	<Dir>/<year>/<year>_<MM>_Expenses_by_category.png
type Renderer struct {
	Dir string
	// Filters holds groups of categories left out of the category grids.
	// One grid is written per group.
	Filters [][]string
	// Limit bounds the years rendered concurrently; 0 means no limit.
	Limit  int
	Logger *log.Logger
}

// RenderAll renders years concurrently, or every year present in entries
// when years is empty. It returns the written files sorted.
func (r *Renderer) RenderAll(ctx context.Context, entries []core.Entry, years []int) ([]string, error) {
	if len(years) == 0 {
		years = analysis.Years(entries)
	}
	g, ctx := errgroup.WithContext(ctx)
	if r.Limit > 0 {
		g.SetLimit(r.Limit)
	}
	var (
		mu    sync.Mutex
		files []string
	)
	for _, year := range years {
		g.Go(func() error {
			written, err := r.RenderYear(ctx, entries, year)
			mu.Lock()
			files = append(files, written...)
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()
	sort.Strings(files)
	return files, err
}

// RenderYear writes every chart of one year. A year without expenses
// writes nothing.
func (r *Renderer) RenderYear(ctx context.Context, entries []core.Entry, year int) ([]string, error) {
	logger := r.logger().With(log.FieldYear, year)
	months := analysis.Months(entries, year)
	if len(months) == 0 {
		logger.DebugContext(ctx, "Year has no expenses, nothing to plot")
		return nil, nil
	}
	var files []string
	save := func(fig Figure, err error, name string) error {
		if err != nil {
			return fmt.Errorf("build %s: %w", name, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(r.Dir, name)
		if err := Save(fig, path); err != nil {
			return err
		}
		files = append(files, path)
		logger.DebugContext(ctx, "Plot written", log.FieldFile, path)
		return nil
	}

	fig, err := MonthlyTotals(year, analysis.MonthlyTotals(entries, year))
	if err := save(fig, err, fmt.Sprintf("%d_Monthly Expenses.png", year)); err != nil {
		return files, err
	}

	filters := r.Filters
	if len(filters) == 0 {
		filters = [][]string{nil}
	}
	for idx, excluded := range filters {
		facets := CategoryFacets(analysis.CategoryMonthTotals(entries, year, excluded))
		fig, err := Grid(facets, FacetColumns)
		name := fmt.Sprintf("%d_Expenses by Category and Month - %d.png", year, idx)
		if err := save(fig, err, name); err != nil {
			return files, err
		}
	}

	for _, month := range months {
		cats := analysis.MonthCategoryTotals(entries, year, month)
		dir := fmt.Sprint(year)

		fig, err := MonthCategories(year, month, cats)
		if err := save(fig, err, filepath.Join(dir, fmt.Sprintf("%d_%02d_Expenses.png", year, month))); err != nil {
			return files, err
		}
		fig, err = MonthShares(year, month, cats)
		if err := save(fig, err, filepath.Join(dir, fmt.Sprintf("%d_%02d_Expenses_by_category.png", year, month))); err != nil {
			return files, err
		}
	}
	logger.InfoContext(ctx, "Year plots rendered", "files", len(files))
	return files, nil
}

func (r *Renderer) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger.WithComponent(log.ComponentPlots)
	}
	return log.FromContext(context.Background()).WithComponent(log.ComponentPlots)
}
