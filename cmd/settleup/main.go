package main

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/log"
	"expenses/internal/plots"
	"expenses/internal/services"
	"expenses/internal/sheets"
	"expenses/internal/sheets/csvfile"
	"expenses/internal/sheets/xlsx"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig((*config.Config).ValidateSettleUp)
	if err != nil {
		cli.Fatal("Failed to load configuration", err)
	}
	logger, closer, err := cli.SetupLogger(cfg, log.ComponentSettleUp)
	if err != nil {
		cli.Fatal("Failed to set up logging", err)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Settle up failed", log.FieldError, err)
		closer.Close()
		cli.Fatal("Settle up failed", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	start := time.Now()
	in := cfg.ProcessPath()
	out := cfg.ProcessedPath()

	var ledger sheets.LedgerReader
	if strings.EqualFold(filepath.Ext(in), ".csv") {
		ledger = csvfile.NewLedger(in)
	} else {
		ledger = xlsx.New(in, "")
	}

	svc := services.NewSettleUpService(ledger, xlsx.New(out, ""), cfg.CheckSplitTotals)
	res, err := svc.Process(ctx, cfg.UserToAnalyse)
	if err != nil {
		return err
	}
	logger.Info("Ledger reshaped",
		log.FieldUser, res.User,
		log.FieldRows, len(res.Shares),
		log.FieldFile, res.Ref)

	fig, err := plots.UserTotals(res.Split.MonthlyTotals())
	if err != nil {
		return err
	}
	if err := plots.Save(fig, cfg.UserTotalsPlotPath()); err != nil {
		return err
	}

	for user, total := range res.Split.UserTotals() {
		logger.Debug("User total", log.FieldUser, user, "total", total.StringFixed(2))
	}
	logger.Info("Settle up complete",
		log.FieldFile, cfg.UserTotalsPlotPath(),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}
