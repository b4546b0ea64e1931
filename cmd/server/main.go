// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/retention/internal/api"
	"github.com/tomtom215/retention/internal/app"
	"github.com/tomtom215/retention/internal/cache"
	"github.com/tomtom215/retention/internal/logging"
	"github.com/tomtom215/retention/internal/pipeline"
	"github.com/tomtom215/retention/internal/supervisor"
	"github.com/tomtom215/retention/internal/supervisor/services"
)

// httpShutdownTimeout bounds connection draining on shutdown.
const httpShutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (overrides CONFIG_PATH)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config path]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Serves the retention API and runs the scheduled pipeline.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*configPath); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
}

//nolint:gocyclo // sequential setup steps
func run(configPath string) error {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.InitLogging(cfg)

	logging.Info().
		Str("driver", cfg.Database.Driver).
		Str("dataset", cfg.Warehouse.Dataset).
		Dur("schedule", cfg.Pipeline.Interval).
		Msg("Starting retention server with supervisor tree")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := app.OpenPipeline(ctx, cfg, logging.WithComponent("pipeline"))
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing pipeline resources")
		}
	}()

	runner := pipeline.NewRunner(p.Orchestrator, p.LastSummary(ctx), logging.WithComponent("runner"))
	defer runner.Close()

	opts := []api.HandlerOption{
		api.WithWarehouse(p.Warehouse),
		api.WithRunner(runner),
	}
	if cfg.Server.CacheTTL > 0 {
		responseCache := cache.New("api", cfg.Server.CacheTTL)
		defer responseCache.Close()
		opts = append(opts, api.WithCache(responseCache))
	}
	handler := api.NewHandler(p.DB, logging.WithComponent("api"), opts...)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(handler, &cfg.Server),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	treeConfig := supervisor.DefaultTreeConfig()
	treeConfig.ShutdownTimeout = httpShutdownTimeout + 5*time.Second
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeConfig)
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}

	tree.AddAPIService(services.NewHTTPServerService(server, httpShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	if cfg.Pipeline.Interval > 0 || cfg.Pipeline.RunOnStartup {
		tree.AddPipelineService(services.NewPipelineScheduleService(runner, services.ScheduleConfig{
			Interval:     cfg.Pipeline.Interval,
			RunOnStartup: cfg.Pipeline.RunOnStartup,
		}, logging.WithComponent("scheduler")))
		logging.Info().
			Dur("interval", cfg.Pipeline.Interval).
			Bool("run_on_startup", cfg.Pipeline.RunOnStartup).
			Msg("Pipeline schedule service added")
	}

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Server stopped gracefully")
	return nil
}
