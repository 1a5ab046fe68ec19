// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/civitas/internal/models"
	"github.com/tomtom215/civitas/internal/recommend"
	"github.com/tomtom215/civitas/internal/venue"
)

// VenueService is satisfied by *venue.Registry.
type VenueService interface {
	Filter(c venue.FilterCriteria) []models.Venue
	Get(id string) (models.Venue, error)
	Analytics() models.AnalyticsSummary
	ReportIssue(venueID string, req models.IssueReportRequest) (models.MaintenanceIssue, error)
	ResolveIssue(venueID, issueID string) (models.MaintenanceIssue, error)
	Len() int
	Loaded() bool
	Degraded() bool
}

// Recommender is satisfied by *recommend.Engine.
type Recommender interface {
	Recommend(ctx context.Context, userID string, sit recommend.Situation) ([]models.Recommendation, error)
}

// ProfileService is satisfied by *profile.Store.
type ProfileService interface {
	Get(ctx context.Context, id string) (models.UserProfile, error)
	Update(ctx context.Context, id string, update models.ProfileUpdate) (models.UserProfile, error)
	Len() int
}

// ActivityRecorder is satisfied by *profile.BadgerSource.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, rec models.ActivityRecord) error
}

// InsightSource is satisfied by *insight.Generator.
type InsightSource interface {
	Insights() []models.CivicInsight
	LastGenerated() (time.Time, bool)
}

// Handler serves the Civitas HTTP API.
type Handler struct {
	venues    VenueService
	engine    Recommender
	profiles  ProfileService
	activity  ActivityRecorder
	insights  InsightSource
	stream    http.Handler
	version   string
	startTime time.Time
}

// HandlerDeps bundles the components behind the API.
type HandlerDeps struct {
	Venues   VenueService
	Engine   Recommender
	Profiles ProfileService
	// Activity stores reported user activity. Nil answers 503.
	Activity ActivityRecorder
	Insights InsightSource
	// Stream serves the live venue stream. Nil disables the route.
	Stream  http.Handler
	Version string
}

// NewHandler creates a handler over deps.
func NewHandler(deps HandlerDeps) *Handler {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		venues:    deps.Venues,
		engine:    deps.Engine,
		profiles:  deps.Profiles,
		activity:  deps.Activity,
		insights:  deps.Insights,
		stream:    deps.Stream,
		version:   version,
		startTime: time.Now(),
	}
}
