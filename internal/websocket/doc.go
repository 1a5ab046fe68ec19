// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package websocket pushes live venue state to connected clients.

A Hub owns the set of connected clients and fans out typed messages:

  - venue_change: a change feed event that the registry applied
  - venue_refresh: the summary of a sensor or weather refresh cycle
  - insights: the list published by an insight cycle

Clients may send {"type":"ping"} and receive {"type":"pong"}. Every other
client message is ignored.

The Hub is a suture service. Serve runs the fan-out loop until its context is
canceled, then closes every client. Broadcasts never block: when the hub
queue or a client queue is full the message is dropped for that client and
counted in civitas_stream_messages_total.

Example:

	hub := websocket.NewHub(clock)
	tree.AddAPIService(hub)
	r.Get("/api/v1/stream", websocket.Handler(hub, cfg.Security.CORSOrigins))
	hub.BroadcastVenueChange(ev)
*/
package websocket
