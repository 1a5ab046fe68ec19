// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package models

import (
	"time"
)

// RecommendationType is the category of a recommendation.
type RecommendationType string

const (
	RecommendationVenue          RecommendationType = "venue"
	RecommendationEvent          RecommendationType = "event"
	RecommendationTraining       RecommendationType = "training"
	RecommendationSocial         RecommendationType = "social"
	RecommendationInfrastructure RecommendationType = "infrastructure"
	RecommendationEconomic       RecommendationType = "economic"
)

// Priority is the urgency tier and primary sort key of a recommendation.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank maps the priority to critical=4, high=3, medium=2, low=1, unknown=0.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Impact estimates the effect of acting on a recommendation. Values are
// comparable across recommendations but carry no absolute unit.
type Impact struct {
	Participants float64 `json:"participants"`
	Revenue      float64 `json:"revenue"`
	Engagement   float64 `json:"engagement"`
	Community    float64 `json:"community"`
}

// Recommendation is a scored suggestion for a user. Values are created fresh
// per request and never mutated afterwards.
type Recommendation struct {
	ID          string                 `json:"id"`
	Type        RecommendationType     `json:"type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Confidence  float64                `json:"confidence"`
	Priority    Priority               `json:"priority"`
	Impact      Impact                 `json:"impact"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	ExpiresAt   *time.Time             `json:"expires_at,omitempty"`
}

// ClampConfidence limits c to [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// InsightCategory groups civic insights.
type InsightCategory string

const (
	InsightUsage          InsightCategory = "usage"
	InsightRevenue        InsightCategory = "revenue"
	InsightEngagement     InsightCategory = "engagement"
	InsightInfrastructure InsightCategory = "infrastructure"
	InsightCommunity      InsightCategory = "community"
)

// Trend is the direction of an insight metric.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// TrendFor derives the trend from a percentage change.
func TrendFor(change float64) Trend {
	switch {
	case change > 0:
		return TrendUp
	case change < 0:
		return TrendDown
	default:
		return TrendStable
	}
}

// InsightMetrics compares the current value of a metric to the previous cycle.
type InsightMetrics struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Change   float64 `json:"change"`
	Trend    Trend   `json:"trend"`
}

// CivicInsight is an aggregate trend over venue and usage data.
type CivicInsight struct {
	ID              string          `json:"id"`
	Category        InsightCategory `json:"category"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Metrics         InsightMetrics  `json:"metrics"`
	Recommendations []string        `json:"recommendations"`
	Timestamp       time.Time       `json:"timestamp"`
}
