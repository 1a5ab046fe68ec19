// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package recommend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tomtom215/civitas/internal/cache"
	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/metrics"
	"github.com/tomtom215/civitas/internal/models"
	"github.com/tomtom215/civitas/internal/profile"
)

// Deps are the collaborators of an Engine. Events and Activity are optional.
type Deps struct {
	Venues   VenueIndex
	Profiles ProfileReader
	Events   EventFeed
	Activity ActivityLog
	Clock    clockwork.Clock
}

// Engine runs the generators and ranks their output. It is safe for
// concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger
	clock  clockwork.Clock

	venues   VenueIndex
	profiles ProfileReader
	events   EventFeed
	activity ActivityLog

	generators []generator

	// Last ranked list per user.
	results *cache.TTL[[]models.Recommendation]

	requestCount  atomic.Int64
	profileMisses atomic.Int64
	errorCount    atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	lastLatencyMS atomic.Int64

	failuresMu sync.Mutex
	failures   map[string]int64
}

// NewEngine creates an engine. Venues and Profiles are required.
func NewEngine(cfg *Config, deps Deps) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Venues == nil || deps.Profiles == nil {
		return nil, errors.New("venue index and profile reader are required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	e := &Engine{
		config:   cfg,
		logger:   logging.WithComponent("recommend"),
		clock:    clock,
		venues:   deps.Venues,
		profiles: deps.Profiles,
		events:   deps.Events,
		activity: deps.Activity,
		results:  cache.NewTTL[[]models.Recommendation](cfg.Cache.TTL, clock),
		failures: make(map[string]int64),
	}
	e.generators = []generator{
		{name: string(models.RecommendationVenue), run: e.venueRecommendations},
		{name: string(models.RecommendationEvent), run: e.eventRecommendations},
		{name: string(models.RecommendationTraining), run: e.trainingRecommendations},
		{name: string(models.RecommendationSocial), run: e.socialRecommendations},
		{name: string(models.RecommendationInfrastructure), run: e.infrastructureRecommendations},
		{name: string(models.RecommendationEconomic), run: e.economicRecommendations},
	}
	return e, nil
}

// Recommend generates a ranked list for userID. The returned slice is never
// nil. A missing profile yields an empty list and an error wrapping
// ErrProfileNotFound.
//
//nolint:gocritic // hugeParam: situation passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, userID string, sit Situation) ([]models.Recommendation, error) {
	start := time.Now()
	e.requestCount.Add(1)
	logger := e.logger.With().Str("user_id", userID).Logger()

	p, err := e.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			e.profileMisses.Add(1)
			metrics.RecordRecommendationRequest("profile_not_found", time.Since(start))
			logger.Error().Msg("recommendation requested for unknown profile")
			return []models.Recommendation{}, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
		}
		e.errorCount.Add(1)
		metrics.RecordRecommendationRequest("error", time.Since(start))
		return []models.Recommendation{}, fmt.Errorf("load profile %s: %w", userID, err)
	}

	rc := e.buildContext(ctx, &p, &sit)
	recs := e.runGenerators(ctx, rc)
	SortRecommendations(recs)

	e.results.Set(userID, slices.Clone(recs))

	latency := time.Since(start)
	e.lastLatencyMS.Store(latency.Milliseconds())
	metrics.RecordRecommendationRequest("success", latency)
	metrics.RecordRecommendationsGenerated(countByType(recs))

	logger.Debug().
		Int("nearby_venues", len(rc.nearby)).
		Int("returned", len(recs)).
		Int64("latency_ms", latency.Milliseconds()).
		Msg("recommendation complete")

	return recs, nil
}

// Cached returns the last list produced for userID, if it has not expired.
func (e *Engine) Cached(userID string) ([]models.Recommendation, bool) {
	recs, ok := e.results.Get(userID)
	if !ok {
		e.cacheMisses.Add(1)
		return nil, false
	}
	e.cacheHits.Add(1)
	return slices.Clone(recs), true
}

// buildContext resolves the situational context for a request.
func (e *Engine) buildContext(ctx context.Context, p *models.UserProfile, sit *Situation) *requestContext {
	rc := &requestContext{
		profile:        *p,
		radius:         p.Preferences.SearchRadius,
		now:            sit.At,
		createdAt:      e.clock.Now(),
		preferredTimes: p.Behavior.PreferredTimes,
	}
	if rc.radius <= 0 {
		rc.radius = e.config.Venue.DefaultRadius
	}
	if rc.now.IsZero() {
		rc.now = rc.createdAt
	}

	switch {
	case sit.Location != nil:
		loc := *sit.Location
		rc.location = &loc
	case p.Preferences.HomeLocation != nil:
		loc := *p.Preferences.HomeLocation
		rc.location = &loc
	}
	if rc.location != nil {
		rc.nearby = e.venues.Nearby(*rc.location, rc.radius)
	}

	switch {
	case sit.Precipitation != nil:
		rc.precipitation = *sit.Precipitation
	case len(rc.nearby) > 0:
		rc.precipitation = rc.nearby[0].Venue.Weather.Precipitation
	}

	if len(rc.preferredTimes) == 0 {
		rc.preferredTimes = e.inferPreferredTimes(ctx, p.ID)
	}
	return rc
}

// inferPreferredTimes returns the time-of-day buckets seen in recent
// activity, most frequent first.
func (e *Engine) inferPreferredTimes(ctx context.Context, userID string) []models.TimeOfDay {
	if e.activity == nil || e.config.Limits.ActivityLimit == 0 {
		return nil
	}
	records, err := e.activity.RecentActivity(ctx, userID, e.config.Limits.ActivityLimit)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("recent activity unavailable")
		return nil
	}

	counts := make(map[models.TimeOfDay]int)
	var buckets []models.TimeOfDay
	for i := range records {
		b := models.TimeOfDayFor(records[i].At)
		if counts[b] == 0 {
			buckets = append(buckets, b)
		}
		counts[b]++
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return counts[buckets[i]] > counts[buckets[j]]
	})
	return buckets
}

// genResult holds the output of a single generator.
type genResult struct {
	name string
	recs []models.Recommendation
	err  error
}

// runGenerators runs all generators in parallel and concatenates their
// output in generator order.
func (e *Engine) runGenerators(ctx context.Context, rc *requestContext) []models.Recommendation {
	results := make([]genResult, len(e.generators))
	var wg sync.WaitGroup

	for i, g := range e.generators {
		wg.Add(1)
		go func(idx int, g generator) {
			defer wg.Done()
			results[idx] = e.runSingleGenerator(ctx, rc, g)
		}(i, g)
	}
	wg.Wait()

	var out []models.Recommendation
	for _, r := range results {
		if r.err != nil {
			e.recordFailure(r.name)
			e.logger.Warn().
				Str("generator", r.name).
				Str("user_id", rc.profile.ID).
				Err(r.err).
				Msg("generator failed")
			continue
		}
		out = append(out, r.recs...)
	}
	if out == nil {
		out = []models.Recommendation{}
	}
	return out
}

// runSingleGenerator runs g under the generator timeout.
func (e *Engine) runSingleGenerator(ctx context.Context, rc *requestContext, g generator) genResult {
	genCtx, cancel := context.WithTimeout(ctx, e.config.Limits.GeneratorTimeout)
	defer cancel()

	recs, err := g.run(genCtx, rc)
	return genResult{name: g.name, recs: recs, err: err}
}

func (e *Engine) recordFailure(name string) {
	metrics.GeneratorFailures.WithLabelValues(name).Inc()
	e.failuresMu.Lock()
	e.failures[name]++
	e.failuresMu.Unlock()
}

// SortRecommendations orders recs by priority rank, then confidence, both
// descending. Equal entries keep their relative order.
func SortRecommendations(recs []models.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := recs[i].Priority.Rank(), recs[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return recs[i].Confidence > recs[j].Confidence
	})
}

func countByType(recs []models.Recommendation) map[string]int {
	counts := make(map[string]int)
	for i := range recs {
		counts[string(recs[i].Type)]++
	}
	return counts
}

// GetMetrics returns the current engine metrics.
func (e *Engine) GetMetrics() Metrics {
	e.failuresMu.Lock()
	failures := make(map[string]int64, len(e.failures))
	for k, v := range e.failures {
		failures[k] = v
	}
	e.failuresMu.Unlock()

	return Metrics{
		RequestCount:      e.requestCount.Load(),
		ProfileMisses:     e.profileMisses.Load(),
		ErrorCount:        e.errorCount.Load(),
		CacheHits:         e.cacheHits.Load(),
		CacheMisses:       e.cacheMisses.Load(),
		CachedUsers:       e.results.Stats().Keys,
		GeneratorFailures: failures,
		LastLatencyMS:     e.lastLatencyMS.Load(),
	}
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}
