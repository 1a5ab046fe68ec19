// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordChangeEvent(t *testing.T) {
	before := testutil.ToFloat64(ChangeEventsTotal.WithLabelValues("modified", "stale"))
	RecordChangeEvent("modified", "stale")
	RecordChangeEvent("modified", "stale")
	after := testutil.ToFloat64(ChangeEventsTotal.WithLabelValues("modified", "stale"))

	if after-before != 2 {
		t.Errorf("stale modified events increased by %v, want 2", after-before)
	}
}

func TestRecordRecommendationsGenerated(t *testing.T) {
	before := testutil.ToFloat64(RecommendationsGenerated.WithLabelValues("venue"))
	RecordRecommendationsGenerated(map[string]int{"venue": 3, "economic": 1})
	after := testutil.ToFloat64(RecommendationsGenerated.WithLabelValues("venue"))

	if after-before != 3 {
		t.Errorf("venue recommendations increased by %v, want 3", after-before)
	}
}

func TestRecordInsightCycle(t *testing.T) {
	before := testutil.ToFloat64(InsightCycles)
	RecordInsightCycle(5)

	if got := testutil.ToFloat64(InsightCycles) - before; got != 1 {
		t.Errorf("InsightCycles increased by %v, want 1", got)
	}
	if got := testutil.ToFloat64(InsightsPublished); got != 5 {
		t.Errorf("InsightsPublished = %v, want 5", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("APIActiveRequests = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("APIActiveRequests = %v, want %v", got, before)
	}
}

func TestRecordTimings(t *testing.T) {
	// Histograms only need to accept observations without panicking.
	RecordVenueRefresh("weather", 120*time.Millisecond)
	RecordVenueRefreshFailure("weather", "timeout")
	RecordRecommendationRequest("success", 3*time.Millisecond)
	RecordAPIRequest("GET", "/api/v1/venues", "200", 2*time.Millisecond)

	if got := testutil.ToFloat64(VenueRefreshFailures.WithLabelValues("weather", "timeout")); got < 1 {
		t.Errorf("VenueRefreshFailures(weather, timeout) = %v, want >= 1", got)
	}
}

// TestMetricGathering checks that every collector passes the Prometheus linter.
func TestMetricGathering(t *testing.T) {
	RecordAPIRequest("GET", "/api/v1/health/live", "200", time.Millisecond)

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("GatherAndLint() error = %v", err)
	}
	for _, p := range problems {
		t.Errorf("metric %s: %s", p.Metric, p.Text)
	}
}
