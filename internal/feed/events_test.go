// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/civitas/internal/config"
	"github.com/tomtom215/civitas/internal/geo"
	"github.com/tomtom215/civitas/internal/models"
)

var (
	feedNow  = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	downtown = geo.Coordinate{Lat: 40.7128, Lon: -74.0060}
)

func sampleEvents() []models.EventCandidate {
	return []models.EventCandidate{
		{ID: "e-late", Title: "Evening League", Sport: "soccer", Location: geo.Coordinate{Lat: 40.72, Lon: -74.00}, StartsAt: feedNow.Add(48 * time.Hour), Fee: 10},
		{ID: "e-early", Title: "Morning Pickup", Sport: "soccer", Location: geo.Coordinate{Lat: 40.71, Lon: -74.01}, StartsAt: feedNow.Add(2 * time.Hour)},
		{ID: "e-tennis", Title: "Tennis Ladder", Sport: "tennis", Location: downtown, StartsAt: feedNow.Add(24 * time.Hour)},
		{ID: "e-far", Title: "Boston Cup", Sport: "soccer", Location: geo.Coordinate{Lat: 42.3601, Lon: -71.0589}, StartsAt: feedNow.Add(24 * time.Hour)},
		{ID: "e-next-month", Title: "Summer Cup", Sport: "soccer", Location: downtown, StartsAt: feedNow.Add(30 * 24 * time.Hour)},
		{ID: "e-past", Title: "Yesterday", Sport: "soccer", Location: downtown, StartsAt: feedNow.Add(-24 * time.Hour)},
	}
}

func weekQuery() models.EventQuery {
	loc := downtown
	return models.EventQuery{
		Sports:   []string{"soccer"},
		Location: &loc,
		Radius:   10,
		From:     feedNow,
		To:       feedNow.Add(7 * 24 * time.Hour),
	}
}

func eventIDs(events []models.EventCandidate) []string {
	ids := make([]string, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}
	return ids
}

func TestStaticEventFeed_Filters(t *testing.T) {
	t.Parallel()

	f := NewStaticEventFeed(sampleEvents()...)

	tests := []struct {
		name  string
		query models.EventQuery
		want  []string
	}{
		{"sport radius and window", weekQuery(), []string{"e-early", "e-late"}},
		{"no filters", models.EventQuery{}, []string{"e-past", "e-early", "e-far", "e-tennis", "e-late", "e-next-month"}},
		{"tennis only", models.EventQuery{Sports: []string{"tennis"}}, []string{"e-tennis"}},
		{"unknown sport", models.EventQuery{Sports: []string{"curling"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.UpcomingEvents(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("UpcomingEvents() error = %v", err)
			}
			ids := eventIDs(got)
			if len(ids) != len(tt.want) {
				t.Fatalf("UpcomingEvents() = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("UpcomingEvents()[%d] = %s, want %s", i, ids[i], tt.want[i])
				}
			}
		})
	}
}

func TestStaticEventFeed_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStaticEventFeed(sampleEvents()...).UpcomingEvents(ctx, weekQuery()); err == nil {
		t.Error("UpcomingEvents() error = nil, want context error")
	}
}

func TestLoadStaticEventFeed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.json")
	data, err := json.Marshal(sampleEvents())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	f, err := LoadStaticEventFeed(path)
	if err != nil {
		t.Fatalf("LoadStaticEventFeed() error = %v", err)
	}
	got, err := f.UpcomingEvents(context.Background(), weekQuery())
	if err != nil {
		t.Fatalf("UpcomingEvents() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("UpcomingEvents() returned %d events, want 2", len(got))
	}

	if _, err := LoadStaticEventFeed(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadStaticEventFeed(missing) error = nil, want error")
	}
}

func TestHTTPEventFeed(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/events" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q, want Bearer secret", got)
		}
		if got := r.URL.Query().Get("sport"); got != "soccer" {
			t.Errorf("sport param = %q, want soccer", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(eventsResponse{Events: sampleEvents()})
	}))
	defer server.Close()

	f := NewHTTPEventFeed(&config.EventsConfig{
		URL:     server.URL,
		APIKey:  "secret",
		Timeout: time.Second,
	}, clockwork.NewFakeClockAt(feedNow))

	got, err := f.UpcomingEvents(context.Background(), weekQuery())
	if err != nil {
		t.Fatalf("UpcomingEvents() error = %v", err)
	}
	ids := eventIDs(got)
	if len(ids) != 2 || ids[0] != "e-early" || ids[1] != "e-late" {
		t.Errorf("UpcomingEvents() = %v, want [e-early e-late]", ids)
	}

	if _, err := f.UpcomingEvents(context.Background(), weekQuery()); err != nil {
		t.Fatalf("second UpcomingEvents() error = %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1 (second call cached)", got)
	}
}

func TestHTTPEventFeed_SlidingWindowSharesCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if from := r.URL.Query().Get("from"); from != "2026-05-04T12:00:00Z" {
			t.Errorf("from param = %q, want whole hour", from)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(eventsResponse{Events: sampleEvents()})
	}))
	defer server.Close()

	clock := clockwork.NewFakeClockAt(feedNow)
	f := NewHTTPEventFeed(&config.EventsConfig{URL: server.URL, Timeout: time.Second}, clock)

	for i := 0; i < 500; i++ {
		q := weekQuery()
		q.From = clock.Now()
		q.To = q.From.Add(7 * 24 * time.Hour)
		if _, err := f.UpcomingEvents(context.Background(), q); err != nil {
			t.Fatalf("UpcomingEvents() #%d error = %v", i, err)
		}
		clock.Advance(2 * time.Second)
	}

	if keys := f.CacheStats().Keys; keys > 2 {
		t.Errorf("cache keys after 500 sliding queries = %d, want at most 2", keys)
	}
	if got := hits.Load(); got > 25 {
		t.Errorf("server hits = %d, want one per cache expiry", got)
	}

	clock.Advance(time.Hour)
	if n := f.Sweep(); n == 0 {
		t.Error("Sweep() = 0, want expired entries removed")
	}
	if keys := f.CacheStats().Keys; keys != 0 {
		t.Errorf("cache keys after sweep = %d, want 0", keys)
	}
}

func TestHTTPEventFeed_ExactWindowFromWideFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(eventsResponse{Events: sampleEvents()})
	}))
	defer server.Close()

	f := NewHTTPEventFeed(&config.EventsConfig{URL: server.URL, Timeout: time.Second}, clockwork.NewFakeClockAt(feedNow))

	// e-early starts at 14:00, inside the widened window but before From.
	q := weekQuery()
	q.From = feedNow.Add(2*time.Hour + 30*time.Minute)
	got, err := f.UpcomingEvents(context.Background(), q)
	if err != nil {
		t.Fatalf("UpcomingEvents() error = %v", err)
	}
	if ids := eventIDs(got); len(ids) != 1 || ids[0] != "e-late" {
		t.Errorf("UpcomingEvents() = %v, want [e-late]", ids)
	}
}

func TestWidenWindow(t *testing.T) {
	t.Parallel()

	q := models.EventQuery{
		From: time.Date(2026, 5, 4, 12, 17, 3, 0, time.UTC),
		To:   time.Date(2026, 5, 11, 12, 17, 3, 0, time.UTC),
	}
	got := widenWindow(q, time.Hour)
	if want := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC); !got.From.Equal(want) {
		t.Errorf("From = %v, want %v", got.From, want)
	}
	if want := time.Date(2026, 5, 11, 13, 0, 0, 0, time.UTC); !got.To.Equal(want) {
		t.Errorf("To = %v, want %v", got.To, want)
	}

	open := widenWindow(models.EventQuery{}, time.Hour)
	if !open.From.IsZero() || !open.To.IsZero() {
		t.Errorf("open window = %v..%v, want both zero", open.From, open.To)
	}
}

func TestHTTPEventFeed_ServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "scheduler down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewHTTPEventFeed(&config.EventsConfig{URL: server.URL, Timeout: time.Second}, nil)
	if _, err := f.UpcomingEvents(context.Background(), weekQuery()); err == nil {
		t.Error("UpcomingEvents() error = nil, want error for 503")
	}
}
