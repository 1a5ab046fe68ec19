// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package supervisor provides process supervision for Civitas using suture v4.

# Overview

Long-running work is organized into three layers for failure isolation:

	RootSupervisor ("civitas")
	├── IngestSupervisor ("ingest-layer")
	│   ├── sensor-refresh
	│   ├── weather-refresh
	│   └── venue-feed (if FEED_ENABLED)
	├── AnalysisSupervisor ("analysis-layer")
	│   └── insight-generator
	└── APISupervisor ("api-layer")
	    ├── websocket-hub (if STREAM_ENABLED)
	    └── http-server

Periodic tasks run each tick synchronously inside Serve, so cancellation
stops future ticks while an in-flight tick finishes or observes the context.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddIngestService(services.NewSensorRefreshService(registry, 30*time.Second, nil))
	tree.AddAPIService(services.NewHTTPServerService(server, ":8484", 10*time.Second))

	err = tree.Serve(ctx)

Services lists the names added to each Layer, and Remove stops a single
service by the token Add returned.

# Service Interface

All services implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return an error: the service crashed and will be restarted
  - Return ctx.Err() after cancellation: shutdown was requested

Restarts follow a decaying failure counter. When the counter exceeds
FailureThreshold the supervisor waits FailureBackoff before the next restart.

# Debugging Shutdown Issues

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}
*/
package supervisor
