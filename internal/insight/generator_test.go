// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package insight

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/civitas/internal/models"
)

// fakeSource returns the current summary; tests swap it between cycles.
type fakeSource struct {
	summary atomic.Pointer[models.AnalyticsSummary]
}

func newFakeSource(s models.AnalyticsSummary) *fakeSource {
	f := &fakeSource{}
	f.set(s)
	return f
}

func (f *fakeSource) set(s models.AnalyticsSummary) { f.summary.Store(&s) }

func (f *fakeSource) Analytics() models.AnalyticsSummary { return *f.summary.Load() }

func find(t *testing.T, list []models.CivicInsight, category models.InsightCategory) models.CivicInsight {
	t.Helper()
	for _, in := range list {
		if in.Category == category {
			return in
		}
	}
	t.Fatalf("no insight with category %s", category)
	return models.CivicInsight{}
}

func TestChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		current, previous float64
		want              float64
	}{
		{"up", 120, 100, 20},
		{"down", 80, 100, -20},
		{"flat", 100, 100, 0},
		{"from zero uses epsilon", 5, 0, 500},
		{"fractional previous uses epsilon", 1, 0.5, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Change(tt.current, tt.previous, 1); got != tt.want {
				t.Errorf("Change(%v, %v, 1) = %v, want %v", tt.current, tt.previous, got, tt.want)
			}
		})
	}
}

func TestGenerate_Trends(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		next       float64
		wantChange float64
		wantTrend  models.Trend
	}{
		{"100 to 120", 120, 20, models.TrendUp},
		{"100 to 80", 80, -20, models.TrendDown},
		{"100 to 100", 100, 0, models.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := newFakeSource(models.AnalyticsSummary{AverageOccupancy: 100})
			g := NewGenerator(src, 1, clockwork.NewFakeClock())

			first, err := g.Generate(context.Background())
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if got := find(t, first, models.InsightUsage).Metrics.Trend; got != models.TrendStable {
				t.Errorf("first cycle trend = %s, want stable", got)
			}

			src.set(models.AnalyticsSummary{AverageOccupancy: tt.next})
			second, err := g.Generate(context.Background())
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			usage := find(t, second, models.InsightUsage)
			if usage.Metrics.Previous != 100 || usage.Metrics.Current != tt.next {
				t.Errorf("metrics = %+v, want previous 100 current %v", usage.Metrics, tt.next)
			}
			if usage.Metrics.Change != tt.wantChange {
				t.Errorf("change = %v, want %v", usage.Metrics.Change, tt.wantChange)
			}
			if usage.Metrics.Trend != tt.wantTrend {
				t.Errorf("trend = %s, want %s", usage.Metrics.Trend, tt.wantTrend)
			}
		})
	}
}

func TestGenerate_EveryCategoryHasRecommendations(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	g := NewGenerator(newFakeSource(models.AnalyticsSummary{OpenVenues: 3}), 0, clockwork.NewFakeClockAt(now))

	list, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(list) != 5 {
		t.Fatalf("Generate() returned %d insights, want 5", len(list))
	}
	for _, in := range list {
		if n := len(in.Recommendations); n < 1 || n > 3 {
			t.Errorf("%s has %d recommendations, want 1-3", in.Category, n)
		}
		if !in.Timestamp.Equal(now) {
			t.Errorf("%s timestamp = %v, want %v", in.Category, in.Timestamp, now)
		}
		if in.ID == "" {
			t.Errorf("%s has empty id", in.Category)
		}
	}

	last, ok := g.LastGenerated()
	if !ok || !last.Equal(now) {
		t.Errorf("LastGenerated() = %v, %v, want %v, true", last, ok, now)
	}
}

func TestInsights_ReplacedNotMerged(t *testing.T) {
	t.Parallel()

	src := newFakeSource(models.AnalyticsSummary{MaintenanceIssues: 2})
	g := NewGenerator(src, 1, nil)

	if got := g.Insights(); len(got) != 0 {
		t.Errorf("Insights() before first cycle = %d items, want 0", len(got))
	}
	if _, ok := g.LastGenerated(); ok {
		t.Error("LastGenerated() before first cycle = ok, want false")
	}

	first, _ := g.Generate(context.Background())
	second, _ := g.Generate(context.Background())
	current := g.Insights()

	if len(current) != len(second) {
		t.Fatalf("Insights() = %d items, want %d", len(current), len(second))
	}
	for i := range current {
		if current[i].ID != second[i].ID {
			t.Errorf("Insights()[%d] = %s, want id from latest cycle", i, current[i].ID)
		}
		if current[i].ID == first[i].ID {
			t.Errorf("Insights()[%d] kept id from first cycle", i)
		}
	}
}

func TestInsights_ConcurrentReadDuringGenerate(t *testing.T) {
	t.Parallel()

	src := newFakeSource(models.AnalyticsSummary{ActiveParticipants: 10})
	g := NewGenerator(src, 1, nil)
	if _, err := g.Generate(context.Background()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = g.Generate(context.Background())
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if got := len(g.Insights()); got != 5 {
					t.Errorf("Insights() = %d items mid-cycle, want 5", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestGenerate_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGenerator(newFakeSource(models.AnalyticsSummary{}), 1, nil)
	if _, err := g.Generate(ctx); err == nil {
		t.Error("Generate() with canceled context error = nil, want error")
	}
}
