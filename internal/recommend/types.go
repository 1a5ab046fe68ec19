// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/civitas/internal/geo"
	"github.com/tomtom215/civitas/internal/models"
	"github.com/tomtom215/civitas/internal/venue"
)

// ErrProfileNotFound is returned when the requested user has no profile.
// The accompanying recommendation list is empty, never nil.
var ErrProfileNotFound = errors.New("profile not found")

// VenueIndex answers proximity queries over current venue state.
// It is implemented by *venue.Registry.
type VenueIndex interface {
	Nearby(center geo.Coordinate, radius float64) []venue.Nearby
}

// ProfileReader reads user profiles. It is implemented by *profile.Store.
type ProfileReader interface {
	Get(ctx context.Context, id string) (models.UserProfile, error)
	All() []models.UserProfile
}

// EventFeed returns upcoming events. It is implemented by the feed package.
type EventFeed interface {
	UpcomingEvents(ctx context.Context, q models.EventQuery) ([]models.EventCandidate, error)
}

// ActivityLog returns a user's recent activity, newest first. Reads are
// best-effort; errors only reduce the context available for scoring.
type ActivityLog interface {
	RecentActivity(ctx context.Context, userID string, limit int) ([]models.ActivityRecord, error)
}

// Situation is optional request-time context. Zero values fall back to the
// profile's home location, the current time and the weather at the nearest
// venue. Precipitation is an hourly amount on the WeatherSnapshot scale.
type Situation struct {
	Location      *geo.Coordinate
	At            time.Time
	Precipitation *float64
}

// Metrics is a snapshot of engine counters.
type Metrics struct {
	RequestCount      int64            `json:"request_count"`
	ProfileMisses     int64            `json:"profile_misses"`
	ErrorCount        int64            `json:"error_count"`
	CacheHits         int64            `json:"cache_hits"`
	CacheMisses       int64            `json:"cache_misses"`
	CachedUsers       int              `json:"cached_users"`
	GeneratorFailures map[string]int64 `json:"generator_failures"`
	LastLatencyMS     int64            `json:"last_latency_ms"`
}

// requestContext is everything a generator may read for one request.
type requestContext struct {
	profile models.UserProfile

	// location is nil when neither the situation nor the profile has one;
	// proximity-based generators then emit nothing.
	location      *geo.Coordinate
	radius        float64
	now           time.Time
	precipitation float64

	// createdAt is the engine clock at request time. now may be a
	// hypothetical instant from the situation.
	createdAt time.Time

	// nearby is the set of venues within radius, nearest first.
	nearby []venue.Nearby

	// preferredTimes comes from the profile or, when empty there, from
	// recent activity.
	preferredTimes []models.TimeOfDay
}

// generator produces one category of recommendations.
type generator struct {
	name string
	run  func(ctx context.Context, rc *requestContext) ([]models.Recommendation, error)
}
