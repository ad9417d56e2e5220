package main

import (
	"context"
	"time"

	"expenses/internal/analysis"
	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/plots"
	"expenses/internal/sheets/xlsx"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig(nil)
	if err != nil {
		cli.Fatal("Failed to load configuration", err)
	}
	logger, closer, err := cli.SetupLogger(cfg, log.ComponentAnalysis)
	if err != nil {
		cli.Fatal("Failed to set up logging", err)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Analysis failed", log.FieldError, err)
		closer.Close()
		cli.Fatal("Analysis failed", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	start := time.Now()
	book := xlsx.New(cfg.ExpensesPath(), cfg.ExpensesSheet)
	entries, err := book.ListEntries(ctx)
	if err != nil {
		return err
	}
	logger.Info("Expenses loaded",
		log.FieldFile, book.Path(),
		log.FieldRows, len(entries),
		"total", core.FormatEuros(analysis.Total(entries)))

	r := &plots.Renderer{
		Dir:     cfg.PlotsDir(),
		Filters: cfg.CategoryFilters,
		Limit:   cfg.PlotWorkers,
		Logger:  logger.WithComponent(log.ComponentPlots),
	}
	files, err := r.RenderAll(ctx, entries, nil)
	if err != nil {
		return err
	}
	logger.Info("Plots written",
		"dir", r.Dir,
		"files", len(files),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}
