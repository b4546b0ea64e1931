// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

/*
Package supervisor provides process supervision for the retention server
using suture v4.

# Overview

	RootSupervisor ("retention")
	├── PipelineSupervisor ("pipeline-layer")
	│   └── PipelineScheduleService (if pipeline.interval > 0 or run_on_startup)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashed service is restarted with suture's backoff. Failures are counted
per layer, so a warehouse outage that keeps failing scheduled runs does not
restart the HTTP server.

Supervisor events (start, failure, backoff, restart) are logged through
sutureslog, which writes to the slog adapter over the zerolog logger.

# Usage Example

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	tree.AddPipelineService(services.NewPipelineScheduleService(runner, services.ScheduleConfig{
	    Interval:     cfg.Pipeline.Interval,
	    RunOnStartup: cfg.Pipeline.RunOnStartup,
	}, logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

# Shutdown

Canceling the context stops all services. The root waits up to
TreeConfig.ShutdownTimeout per service; services that did not stop in time
are listed by UnstoppedServiceReport.
*/
package supervisor
