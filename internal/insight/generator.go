// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package insight derives civic trend insights from venue analytics.
//
// Each cycle compares the current value of every tracked metric with the
// value from the previous cycle and publishes a new list. Readers always see
// a complete list; the previous one is discarded, never merged.
package insight

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/metrics"
	"github.com/tomtom215/civitas/internal/models"
)

// DefaultEpsilon is the smallest divisor used when the previous value is
// zero or close to it.
const DefaultEpsilon = 1.0

// AnalyticsSource provides the current venue analytics. It is implemented by
// *venue.Registry.
type AnalyticsSource interface {
	Analytics() models.AnalyticsSummary
}

// metric is one tracked value and how it is presented.
type metric struct {
	key      string
	category models.InsightCategory
	title    string
	unit     string
	value    func(s *models.AnalyticsSummary) float64
}

var trackedMetrics = []metric{
	{
		key:      "average_occupancy",
		category: models.InsightUsage,
		title:    "Venue occupancy",
		unit:     "%",
		value:    func(s *models.AnalyticsSummary) float64 { return s.AverageOccupancy },
	},
	{
		key:      "total_revenue",
		category: models.InsightRevenue,
		title:    "Hourly revenue",
		unit:     "$",
		value:    func(s *models.AnalyticsSummary) float64 { return s.TotalRevenue },
	},
	{
		key:      "active_participants",
		category: models.InsightEngagement,
		title:    "Active participants",
		value:    func(s *models.AnalyticsSummary) float64 { return float64(s.ActiveParticipants) },
	},
	{
		key:      "maintenance_issues",
		category: models.InsightInfrastructure,
		title:    "Open maintenance issues",
		value:    func(s *models.AnalyticsSummary) float64 { return float64(s.MaintenanceIssues) },
	},
	{
		key:      "open_venues",
		category: models.InsightCommunity,
		title:    "Venues open to the public",
		value:    func(s *models.AnalyticsSummary) float64 { return float64(s.OpenVenues) },
	},
}

// categoryRecommendations are the static suggestions attached to each insight.
var categoryRecommendations = map[models.InsightCategory][]string{
	models.InsightUsage: {
		"Promote underutilized venues",
		"Spread peak demand with off-peak programming",
	},
	models.InsightRevenue: {
		"Review pricing at low-occupancy venues",
		"Bundle off-peak sessions into memberships",
	},
	models.InsightEngagement: {
		"Organize community leagues",
		"Add beginner-friendly sessions",
		"Recognize regular participants",
	},
	models.InsightInfrastructure: {
		"Prioritize high-severity maintenance issues",
		"Schedule inspections for venues with repeat reports",
	},
	models.InsightCommunity: {
		"Share venue availability with neighborhood groups",
	},
}

// Recommendations returns the static suggestions for category.
func Recommendations(category models.InsightCategory) []string {
	return slices.Clone(categoryRecommendations[category])
}

// Change returns the percentage change from previous to current. The divisor
// is max(previous, eps), so a zero previous value never divides by zero.
func Change(current, previous, eps float64) float64 {
	return (current - previous) / math.Max(previous, eps) * 100
}

// Generator computes insights. Generate is serialized; Insights may be called
// concurrently with it.
type Generator struct {
	source  AnalyticsSource
	clock   clockwork.Clock
	epsilon float64
	logger  zerolog.Logger

	mu       sync.Mutex
	previous map[string]float64

	insights atomic.Pointer[[]models.CivicInsight]
	lastRun  atomic.Pointer[time.Time]
}

// NewGenerator creates a generator. A non-positive epsilon uses DefaultEpsilon.
func NewGenerator(source AnalyticsSource, epsilon float64, clock clockwork.Clock) *Generator {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	g := &Generator{
		source:   source,
		clock:    clock,
		epsilon:  epsilon,
		logger:   logging.WithComponent("insight"),
		previous: make(map[string]float64),
	}
	empty := []models.CivicInsight{}
	g.insights.Store(&empty)
	return g
}

// Generate runs one cycle and publishes the new list. On the first cycle the
// previous value of every metric equals the current one, so every trend is
// stable.
func (g *Generator) Generate(ctx context.Context) ([]models.CivicInsight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	summary := g.source.Analytics()
	now := g.clock.Now()

	list := make([]models.CivicInsight, 0, len(trackedMetrics))
	for _, m := range trackedMetrics {
		current := m.value(&summary)
		previous, ok := g.previous[m.key]
		if !ok {
			previous = current
		}
		g.previous[m.key] = current

		change := Change(current, previous, g.epsilon)
		trend := models.TrendFor(change)
		list = append(list, models.CivicInsight{
			ID:          uuid.NewString(),
			Category:    m.category,
			Title:       m.title,
			Description: describe(m, current, change, trend),
			Metrics: models.InsightMetrics{
				Current:  current,
				Previous: previous,
				Change:   change,
				Trend:    trend,
			},
			Recommendations: Recommendations(m.category),
			Timestamp:       now,
		})
	}

	g.insights.Store(&list)
	g.lastRun.Store(&now)
	metrics.RecordInsightCycle(len(list))

	g.logger.Debug().Int("insights", len(list)).Msg("Insight cycle complete")
	return slices.Clone(list), nil
}

// Insights returns the current list.
func (g *Generator) Insights() []models.CivicInsight {
	return slices.Clone(*g.insights.Load())
}

// LastGenerated returns the time of the last completed cycle.
func (g *Generator) LastGenerated() (time.Time, bool) {
	t := g.lastRun.Load()
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}

func describe(m metric, current, change float64, trend models.Trend) string {
	var value string
	switch m.unit {
	case "%":
		value = fmt.Sprintf("%.1f%%", current)
	case "$":
		value = fmt.Sprintf("$%.2f", current)
	default:
		value = fmt.Sprintf("%.0f", current)
	}

	switch trend {
	case models.TrendUp:
		return fmt.Sprintf("%s rose %.1f%% to %s since the last cycle.", m.title, change, value)
	case models.TrendDown:
		return fmt.Sprintf("%s fell %.1f%% to %s since the last cycle.", m.title, -change, value)
	default:
		return fmt.Sprintf("%s held steady at %s.", m.title, value)
	}
}
