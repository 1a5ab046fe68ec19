// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package venue owns the in-memory venue registry.

The Registry mirrors the external venue-management system. It is filled once
at startup from a Store, kept current by change events, and refreshed on a
schedule from a WeatherProvider and a TelemetrySource. Readers get deep
copies; writers replace one venue record at a time under a write lock, so a
reader never sees a half-updated venue.

# Change Ordering

Change events may arrive out of order. The registry keeps the timestamp of
the last applied event per venue id, including removals, and drops any event
older than that (last write wins).

# Refresh Cycles

RefreshWeather and RefreshSensors fan out one call per venue with bounded
concurrency and a per-call timeout. A failing or slow venue is isolated:

  - weather failures substitute models.DefaultWeather
  - telemetry failures keep the previous readings for that cycle

Occupancy above the venue maximum is clamped before it is stored.
*/
package venue
