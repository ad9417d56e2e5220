package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/config"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
	"expenses/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig((*config.Config).Validate)
	if err != nil {
		cli.Fatal("Failed to load configuration", err)
	}
	logger, closer, err := cli.SetupLogger(cfg, log.ComponentApp)
	if err != nil {
		cli.Fatal("Failed to set up logging", err)
	}
	defer closer.Close()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		return
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		return
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	opts := apphttp.Options{
		Addr:           ":" + cfg.Port,
		Entries:        res.Backend,
		User:           cfg.UserToAnalyse,
		SettleUp:       services.NewSettleUpService(nil, nil, cfg.CheckSplitTotals),
		RentCategory:   cfg.RentCategory,
		CurrentRent:    decimal.NewFromFloat(cfg.CurrentRent),
		SavingsTarget:  decimal.NewFromFloat(cfg.SavingsTarget),
		CacheTTL:       cfg.CacheTTL,
		MaxUploadBytes: cfg.MaxUploadBytes,
		UploadRate:     cfg.UploadRate,
		Logger:         logger,
	}
	// Only the sqlite backend records imports.
	if res.Imports != nil {
		var pub amqp.Publisher
		if res.Publisher != nil {
			pub = res.Publisher
		}
		opts.Importer = services.NewImportService(res.Backend, pub)
		opts.Ready = res.Imports.Ping
	}

	srv, err := apphttp.NewServer(opts)
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		return
	}
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting dashboard",
		"addr", opts.Addr,
		"backend", cfg.DataBackend,
		"imports", opts.Importer != nil,
		"render_jobs", res.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "addr", opts.Addr)
		return
	}
	cli.WaitForShutdown(ctx, done)
}
