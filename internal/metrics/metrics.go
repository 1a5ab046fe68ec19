// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package metrics exposes Prometheus instrumentation for Civitas.
//
// Metrics are registered with the default registry through promauto and served
// by promhttp at /metrics. Components call the Record* helpers rather than
// touching collectors directly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Venue Registry Metrics
	VenuesTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "civitas_venues_tracked",
			Help: "Current number of venues held by the registry",
		},
	)

	VenueRefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civitas_venue_refresh_duration_seconds",
			Help:    "Duration of a full venue refresh cycle in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"}, // "sensors", "weather"
	)

	VenueRefreshFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civitas_venue_refresh_failures_total",
			Help: "Per-venue refresh failures, isolated from the rest of the cycle",
		},
		[]string{"kind", "reason"}, // reason: "error", "timeout"
	)

	WeatherFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "civitas_weather_fallbacks_total",
			Help: "Number of times the default weather snapshot was substituted",
		},
	)

	OccupancyClamps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "civitas_occupancy_clamps_total",
			Help: "Sensor readings whose occupancy exceeded the venue maximum and was clamped",
		},
	)

	ChangeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civitas_change_events_total",
			Help: "Venue change events by kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: "applied", "stale", "invalid"
	)

	// Recommendation Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civitas_recommendation_requests_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"outcome"}, // "success", "profile_not_found", "error"
	)

	RecommendationsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civitas_recommendations_generated_total",
			Help: "Recommendations produced by type",
		},
		[]string{"type"},
	)

	RecommendationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "civitas_recommendation_latency_seconds",
			Help:    "End-to-end recommendation generation latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	GeneratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civitas_generator_failures_total",
			Help: "Recommendation generator failures that degraded a single category",
		},
		[]string{"generator"},
	)

	// Insight Metrics
	InsightCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "civitas_insight_cycles_total",
			Help: "Completed insight generation cycles",
		},
	)

	InsightsPublished = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "civitas_insights_published",
			Help: "Number of insights in the current list",
		},
	)

	// Profile Metrics
	ProfilesLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "civitas_profiles_loaded",
			Help: "Number of user profiles held in memory",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civitas_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civitas_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "civitas_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Live stream metrics
	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "civitas_stream_clients",
			Help: "Connected live stream clients",
		},
	)

	StreamMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civitas_stream_messages_total",
			Help: "Live stream messages by type and outcome",
		},
		[]string{"type", "outcome"}, // outcome: "queued", "dropped"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "civitas_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civitas_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civitas_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordVenueRefresh records one completed refresh cycle.
func RecordVenueRefresh(kind string, duration time.Duration) {
	VenueRefreshDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordVenueRefreshFailure records a single venue failing within a cycle.
func RecordVenueRefreshFailure(kind, reason string) {
	VenueRefreshFailures.WithLabelValues(kind, reason).Inc()
}

// RecordChangeEvent records how a change event was handled.
func RecordChangeEvent(kind, outcome string) {
	ChangeEventsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordRecommendationRequest records a finished recommendation request.
func RecordRecommendationRequest(outcome string, duration time.Duration) {
	RecommendationRequests.WithLabelValues(outcome).Inc()
	RecommendationLatency.Observe(duration.Seconds())
}

// RecordRecommendationsGenerated counts recommendations by type.
func RecordRecommendationsGenerated(counts map[string]int) {
	for typ, n := range counts {
		RecommendationsGenerated.WithLabelValues(typ).Add(float64(n))
	}
}

// RecordInsightCycle records a completed insight cycle and the list size.
func RecordInsightCycle(published int) {
	InsightCycles.Inc()
	InsightsPublished.Set(float64(published))
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordStreamMessage records a live stream broadcast attempt.
func RecordStreamMessage(msgType, outcome string) {
	StreamMessages.WithLabelValues(msgType, outcome).Inc()
}
