// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package venue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tomtom215/civitas/internal/cache"
	"github.com/tomtom215/civitas/internal/geo"
	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/metrics"
	"github.com/tomtom215/civitas/internal/models"
)

var (
	// ErrNotFound is returned when a venue id is unknown.
	ErrNotFound = errors.New("venue not found")

	// ErrIssueNotFound is returned when a maintenance issue id is unknown.
	ErrIssueNotFound = errors.New("maintenance issue not found")

	// ErrInvalidChange is returned for change events that cannot be applied.
	ErrInvalidChange = errors.New("invalid change event")
)

// Config holds registry tuning.
type Config struct {
	WeatherTimeout time.Duration
	SensorTimeout  time.Duration
	Concurrency    int
	GridCellSize   float64
}

// DefaultConfig returns the registry defaults.
func DefaultConfig() Config {
	return Config{
		WeatherTimeout: 5 * time.Second,
		SensorTimeout:  2 * time.Second,
		Concurrency:    8,
		GridCellSize:   cache.DefaultCellSize,
	}
}

// Deps are the registry collaborators. Weather and Telemetry may be nil, in
// which case the matching refresh is a no-op.
type Deps struct {
	Store     Store
	Weather   WeatherProvider
	Telemetry TelemetrySource
	Clock     clockwork.Clock
}

// Registry is the in-memory venue mirror.
//
// Stored *models.Venue values are never mutated in place. Every write builds
// a new record from a clone and swaps the map entry under the write lock.
type Registry struct {
	mu      sync.RWMutex
	venues  map[string]*models.Venue
	applied map[string]time.Time // last applied change per id, kept after removal
	grid    *cache.SpatialGrid

	store     Store
	weather   WeatherProvider
	telemetry TelemetrySource
	clock     clockwork.Clock
	cfg       Config
	logger    zerolog.Logger

	loaded   atomic.Bool
	degraded atomic.Bool
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config, deps Deps) *Registry {
	d := DefaultConfig()
	if cfg.WeatherTimeout <= 0 {
		cfg.WeatherTimeout = d.WeatherTimeout
	}
	if cfg.SensorTimeout <= 0 {
		cfg.SensorTimeout = d.SensorTimeout
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = d.Concurrency
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	return &Registry{
		venues:    make(map[string]*models.Venue),
		applied:   make(map[string]time.Time),
		grid:      cache.NewSpatialGrid(cfg.GridCellSize),
		store:     deps.Store,
		weather:   deps.Weather,
		telemetry: deps.Telemetry,
		clock:     deps.Clock,
		cfg:       cfg,
		logger:    logging.WithComponent("venue-registry"),
	}
}

// LoadAll bulk-loads venues from the store. On failure the registry is left
// as it was, marked degraded, and the error is returned for the caller to log.
func (r *Registry) LoadAll(ctx context.Context) ([]models.Venue, error) {
	if r.store == nil {
		r.degraded.Store(true)
		return nil, fmt.Errorf("load venues: no store configured")
	}

	venues, err := r.store.LoadAll(ctx)
	if err != nil {
		r.degraded.Store(true)
		r.logger.Error().Err(err).Msg("Venue store unreachable, starting with an empty registry")
		return nil, fmt.Errorf("load venues: %w", err)
	}

	now := r.clock.Now()
	loaded := make([]models.Venue, 0, len(venues))

	r.mu.Lock()
	for i := range venues {
		v := venues[i]
		if v.ID == "" {
			r.logger.Warn().Str("name", v.Name).Msg("Skipping venue without id")
			continue
		}
		// A change event that raced ahead of the bulk load wins.
		if _, seen := r.applied[v.ID]; seen {
			continue
		}
		r.normalizeLocked(&v, nil, now)
		r.putLocked(&v)
		loaded = append(loaded, v.Clone())
	}
	count := len(r.venues)
	r.mu.Unlock()

	r.loaded.Store(true)
	r.degraded.Store(false)
	metrics.VenuesTracked.Set(float64(count))
	r.logger.Info().Int("venues", len(loaded)).Msg("Venues loaded")
	return loaded, nil
}

// ApplyChange applies one change event. It reports whether the event changed
// registry state; stale events (older than the last applied event for the
// same venue) are dropped and report false.
func (r *Registry) ApplyChange(ev models.ChangeEvent) (bool, error) {
	id := ev.ID()
	if id == "" {
		metrics.RecordChangeEvent(string(ev.Kind), "invalid")
		return false, fmt.Errorf("%w: missing venue id", ErrInvalidChange)
	}

	switch ev.Kind {
	case models.ChangeAdded, models.ChangeModified:
		if ev.Venue == nil {
			metrics.RecordChangeEvent(string(ev.Kind), "invalid")
			return false, fmt.Errorf("%w: %s event for %s has no venue", ErrInvalidChange, ev.Kind, id)
		}
	case models.ChangeRemoved:
	default:
		metrics.RecordChangeEvent(string(ev.Kind), "invalid")
		return false, fmt.Errorf("%w: unknown kind %q", ErrInvalidChange, ev.Kind)
	}

	now := r.clock.Now()
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = now
	}

	r.mu.Lock()
	if last, ok := r.applied[id]; ok && ts.Before(last) {
		r.mu.Unlock()
		metrics.RecordChangeEvent(string(ev.Kind), "stale")
		r.logger.Debug().Str("venue_id", id).Str("kind", string(ev.Kind)).
			Time("event_time", ts).Time("last_applied", last).Msg("Dropping stale change event")
		return false, nil
	}
	r.applied[id] = ts

	if ev.Kind == models.ChangeRemoved {
		delete(r.venues, id)
		r.grid.Remove(id)
	} else {
		v := ev.Venue.Clone()
		v.ID = id
		r.normalizeLocked(&v, r.venues[id], now)
		r.putLocked(&v)
	}
	count := len(r.venues)
	r.mu.Unlock()

	metrics.VenuesTracked.Set(float64(count))
	metrics.RecordChangeEvent(string(ev.Kind), "applied")
	return true, nil
}

// normalizeLocked fills live state the change feed does not carry and
// enforces the occupancy bound. prev is the record being replaced, if any.
func (r *Registry) normalizeLocked(v, prev *models.Venue, now time.Time) {
	if v.Weather.UpdatedAt.IsZero() {
		if prev != nil {
			v.Weather = prev.Clone().Weather
		} else {
			v.Weather = models.DefaultWeather(now)
		}
	}
	if v.Sensors.Occupancy.UpdatedAt.IsZero() && prev != nil {
		v.Sensors = prev.Clone().Sensors
	}
	if v.Capacity < 0 {
		r.logger.Warn().Str("venue_id", v.ID).Int("capacity", v.Capacity).Msg("Negative venue capacity, treating as unknown")
		v.Capacity = 0
	}
	if v.Sensors.Occupancy.Max < 0 {
		v.Sensors.Occupancy.Max = 0
	}
	if v.Sensors.Occupancy.Max == 0 && v.Capacity > 0 {
		v.Sensors.Occupancy.Max = v.Capacity
	}
	r.clampOccupancy(v)
}

func (r *Registry) clampOccupancy(v *models.Venue) {
	before := v.Sensors.Occupancy
	if v.Sensors.Occupancy.Clamp() {
		metrics.OccupancyClamps.Inc()
		r.logger.Warn().Str("venue_id", v.ID).Int("current", before.Current).Int("max", before.Max).
			Msg("Occupancy out of range, clamped")
	}
}

func (r *Registry) putLocked(v *models.Venue) {
	r.venues[v.ID] = v
	r.grid.Insert(v.ID, v.Location.Coordinate())
}

// update replaces venue id with a modified clone. It returns ErrNotFound if
// the venue is gone.
func (r *Registry) update(id string, mutate func(v *models.Venue) error) (models.Venue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.venues[id]
	if !ok {
		return models.Venue{}, ErrNotFound
	}
	next := cur.Clone()
	if err := mutate(&next); err != nil {
		return models.Venue{}, err
	}
	r.putLocked(&next)
	return next.Clone(), nil
}

// snapshot returns the current records. The pointers must not be mutated.
func (r *Registry) snapshot() []*models.Venue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Venue, 0, len(r.venues))
	for _, v := range r.venues {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All returns copies of every venue ordered by id.
func (r *Registry) All() []models.Venue {
	snap := r.snapshot()
	out := make([]models.Venue, len(snap))
	for i, v := range snap {
		out[i] = v.Clone()
	}
	return out
}

// Get returns a copy of the venue with the given id.
func (r *Registry) Get(id string) (models.Venue, error) {
	r.mu.RLock()
	v, ok := r.venues[id]
	r.mu.RUnlock()
	if !ok {
		return models.Venue{}, ErrNotFound
	}
	return v.Clone(), nil
}

// Len returns the number of venues.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.venues)
}

// Loaded reports whether the startup load succeeded.
func (r *Registry) Loaded() bool { return r.loaded.Load() }

// Degraded reports whether the registry started without its store.
func (r *Registry) Degraded() bool { return r.degraded.Load() }

// Nearby is a venue with its distance from a query point in miles.
type Nearby struct {
	Venue    models.Venue
	Distance float64
}

// Nearby returns venues within radius miles of center, nearest first.
func (r *Registry) Nearby(center geo.Coordinate, radius float64) []Nearby {
	matches := r.grid.Nearby(center, radius)

	r.mu.RLock()
	out := make([]Nearby, 0, len(matches))
	for _, m := range matches {
		if v, ok := r.venues[m.ID]; ok {
			out = append(out, Nearby{Venue: v.Clone(), Distance: m.Distance})
		}
	}
	r.mu.RUnlock()
	return out
}

// ReportIssue appends a new open maintenance issue to a venue.
func (r *Registry) ReportIssue(venueID string, req models.IssueReportRequest) (models.MaintenanceIssue, error) {
	issue := models.MaintenanceIssue{
		ID:          uuid.NewString(),
		Type:        req.Type,
		Severity:    req.Severity,
		Description: req.Description,
		ReportedAt:  r.clock.Now(),
		Status:      models.IssueStatusOpen,
	}
	_, err := r.update(venueID, func(v *models.Venue) error {
		v.Maintenance.Issues = append(v.Maintenance.Issues, issue)
		return nil
	})
	if err != nil {
		return models.MaintenanceIssue{}, err
	}
	r.logger.Info().Str("venue_id", venueID).Str("issue_id", issue.ID).
		Str("severity", string(issue.Severity)).Msg("Maintenance issue reported")
	return issue, nil
}

// ResolveIssue marks an issue resolved. Resolving twice is a no-op.
func (r *Registry) ResolveIssue(venueID, issueID string) (models.MaintenanceIssue, error) {
	var resolved models.MaintenanceIssue
	_, err := r.update(venueID, func(v *models.Venue) error {
		for i := range v.Maintenance.Issues {
			issue := &v.Maintenance.Issues[i]
			if issue.ID != issueID {
				continue
			}
			if issue.Status != models.IssueStatusResolved {
				now := r.clock.Now()
				issue.Status = models.IssueStatusResolved
				issue.ResolvedAt = &now
			}
			resolved = *issue
			return nil
		}
		return ErrIssueNotFound
	})
	if err != nil {
		return models.MaintenanceIssue{}, err
	}
	return resolved, nil
}
