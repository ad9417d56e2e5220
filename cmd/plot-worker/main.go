package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/log"
	"expenses/internal/plots"
	"expenses/internal/worker"
)

func validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return fmt.Errorf("configuration validation failed:\n- amqp_url is required for the plot worker")
	}
	return nil
}

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig(validate)
	if err != nil {
		cli.Fatal("Failed to load configuration", err)
	}
	logger, closer, err := cli.SetupLogger(cfg, log.ComponentWorker)
	if err != nil {
		cli.Fatal("Failed to set up logging", err)
	}
	defer closer.Close()

	logger.Info("Starting plot worker", "backend", cfg.DataBackend, "queue", cfg.AMQPQueue)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		return
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		return
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()
	if res.Publisher == nil {
		logger.Error("Broker unreachable", "url_set", cfg.AMQPURL != "")
		return
	}

	var imports worker.ImportLookup
	if res.Imports != nil {
		imports = res.Imports
	}
	renderer := &plots.Renderer{
		Dir:     cfg.PlotsDir(),
		Filters: cfg.CategoryFilters,
		Limit:   cfg.PlotWorkers,
		Logger:  logger.WithComponent(log.ComponentPlots),
	}
	w := worker.NewRenderWorker(res.Backend, imports, renderer)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := w.StartupRender(ctx); err != nil {
		logger.Error("Startup render failed", log.FieldError, err)
	}

	err = res.Publisher.ConsumeRenderRequests(ctx, w.HandleRenderRequest)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		return
	}
	cli.WaitForShutdown(ctx, done)
}
