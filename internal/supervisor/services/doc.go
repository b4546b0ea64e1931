// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

/*
Package services provides suture.Service wrappers for the retention server.

Each wrapper implements suture's Service interface and fmt.Stringer, which
names the service in supervisor events:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server, translating ListenAndServe into Serve
  - Drains connections on cancellation within a shutdown timeout
  - A listen failure is returned, so suture restarts the service

Pipeline Schedule (PipelineScheduleService):
  - Runs the pipeline every ScheduleConfig.Interval, optionally at startup
  - Goes through pipeline.Runner, so scheduled and API-triggered runs
    never overlap; overlapping ticks are skipped
  - A failed run is logged and does not restart the service
  - Canceling the Serve context cancels the active run

# Example

	runner := pipeline.NewRunner(orchestrator, last, logger)
	defer runner.Close()

	tree.AddPipelineService(services.NewPipelineScheduleService(runner,
	    services.ScheduleConfig{Interval: time.Hour, RunOnStartup: true}, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
*/
package services
