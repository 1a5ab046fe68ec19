// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/civitas/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil middleware factory uses the defaults.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// Setup returns the configured http.Handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())

		// The stream upgrade hijacks the connection, so it skips the
		// metrics response wrapper.
		if router.handler.stream != nil {
			r.Get("/stream", router.handler.stream.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.PrometheusMetrics)

			r.Get("/recommendations/{userID}", router.handler.Recommendations)

			r.Route("/venues", func(r chi.Router) {
				r.Get("/", router.handler.Venues)
				r.Get("/{venueID}", router.handler.Venue)
				r.Post("/{venueID}/issues", router.handler.ReportIssue)
				r.Post("/{venueID}/issues/{issueID}/resolve", router.handler.ResolveIssue)
			})

			r.Get("/analytics", router.handler.Analytics)
			r.Get("/insights", router.handler.Insights)
			r.Patch("/profiles/{userID}", router.handler.UpdateProfile)
			r.Post("/profiles/{userID}/activity", router.handler.RecordActivity)
		})
	})

	r.With(router.chiMiddleware.RateLimitHealth()).Handle("/metrics", promhttp.Handler())

	return r
}
