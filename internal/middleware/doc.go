// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package middleware provides HTTP middleware shared by the Civitas router.
//
// PrometheusMetrics records request counts, latencies and in-flight requests.
// It labels requests with the chi route pattern rather than the raw path so
// that ids such as /api/v1/venues/{venueID} do not explode label cardinality.
package middleware
