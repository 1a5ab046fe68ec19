// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package api serves the Civitas HTTP API on a chi router.

# Routes

	GET   /api/v1/health/live
	GET   /api/v1/health/ready
	GET   /api/v1/recommendations/{userID}   ?lat&lon&precipitation&at
	GET   /api/v1/venues                     ?sport&amenity&availability&min_price&max_price&max_distance&lat&lon
	GET   /api/v1/venues/{venueID}
	POST  /api/v1/venues/{venueID}/issues
	POST  /api/v1/venues/{venueID}/issues/{issueID}/resolve
	GET   /api/v1/analytics
	GET   /api/v1/insights
	PATCH /api/v1/profiles/{userID}
	POST  /api/v1/profiles/{userID}/activity
	GET   /api/v1/stream                     websocket upgrade, when enabled
	GET   /metrics

# Middleware

Every request gets a request id in its logging trace,
chi RealIP and Recoverer, and go-chi/cors. API routes are rate limited per IP
with go-chi/httprate and recorded by the Prometheus middleware.

# Responses

Every response uses the models.APIResponse envelope. Query parameters and
bodies are validated with go-playground/validator; failures return 400 with
code VALIDATION_ERROR and per-field details. An unknown user on the
recommendations route is a 404 PROFILE_NOT_FOUND carrying an empty list.
*/
package api
