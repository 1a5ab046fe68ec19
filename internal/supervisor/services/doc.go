// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package services provides suture.Service wrappers for Civitas components.

Each wrapper translates a component lifecycle into suture's context-aware
Serve pattern and implements fmt.Stringer so supervisor log lines name it.

# Available Services

HTTP Server (HTTPServerService):
  - Binds the listen address itself and exposes the bound address via Addr
  - Drains connections on cancel, bounded by a shutdown timeout
  - A server closed outside the supervisor is not restarted

Periodic Services (PeriodicService):
  - Runs a task on a clockwork ticker; cycles never overlap
  - NewSensorRefreshService and NewWeatherRefreshService drive the venue registry
  - NewInsightService regenerates civic insights
  - A failed cycle is logged and the loop continues

Venue Feed (FeedService):
  - Wraps the Watermill change feed consumer
  - Any exit while the context is live is returned as an error so the
    supervisor resubscribes with backoff

# Error Handling

Return values determine supervisor behavior:

	error                  -> Service crashed, supervisor will restart
	suture.ErrDoNotRestart -> Service is removed from the tree (may be wrapped)
	ctx.Err()              -> Shutdown requested, normal termination

# Usage

	tree, _ := supervisor.NewSupervisorTree(logger, supervisor.TreeConfigFrom(&cfg.Supervisor))
	tree.AddIngestService(services.NewSensorRefreshService(registry, cfg.Venues.SensorInterval, clock))
	tree.AddIngestService(services.NewFeedService(consumer))
	tree.AddAnalysisService(services.NewInsightService(generator, cfg.Insights.Interval, clock))
	tree.AddAPIService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))
*/
package services
