// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/civitas/internal/breaker"
	"github.com/tomtom215/civitas/internal/cache"
	"github.com/tomtom215/civitas/internal/config"
	"github.com/tomtom215/civitas/internal/geo"
	"github.com/tomtom215/civitas/internal/models"
)

// EventCandidateFeed returns upcoming events from the scheduling system.
type EventCandidateFeed interface {
	UpcomingEvents(ctx context.Context, q models.EventQuery) ([]models.EventCandidate, error)
}

// EventFeedFunc adapts a function to EventCandidateFeed.
type EventFeedFunc func(ctx context.Context, q models.EventQuery) ([]models.EventCandidate, error)

// UpcomingEvents calls f.
func (f EventFeedFunc) UpcomingEvents(ctx context.Context, q models.EventQuery) ([]models.EventCandidate, error) {
	return f(ctx, q)
}

// Matches reports whether ev satisfies q. An empty sport list matches every
// sport, a nil location or zero radius disables the distance check, and zero
// From/To leave that side of the window open.
func Matches(ev *models.EventCandidate, q *models.EventQuery) bool {
	if len(q.Sports) > 0 && !slices.Contains(q.Sports, ev.Sport) {
		return false
	}
	if !q.From.IsZero() && ev.StartsAt.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && ev.StartsAt.After(q.To) {
		return false
	}
	if q.Location != nil && q.Radius > 0 && !geo.Within(*q.Location, ev.Location, q.Radius) {
		return false
	}
	return true
}

// filterEvents keeps the events matching q, ordered by start time then id.
func filterEvents(events []models.EventCandidate, q *models.EventQuery) []models.EventCandidate {
	out := make([]models.EventCandidate, 0, len(events))
	for i := range events {
		if Matches(&events[i], q) {
			out = append(out, events[i])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// StaticEventFeed serves a fixed set of events.
type StaticEventFeed struct {
	events []models.EventCandidate
}

// NewStaticEventFeed creates a feed over events.
func NewStaticEventFeed(events ...models.EventCandidate) *StaticEventFeed {
	return &StaticEventFeed{events: slices.Clone(events)}
}

// LoadStaticEventFeed reads a JSON array of events from path.
func LoadStaticEventFeed(path string) (*StaticEventFeed, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("read event seed file: %w", err)
	}
	var events []models.EventCandidate
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode event seed file %s: %w", path, err)
	}
	return &StaticEventFeed{events: events}, nil
}

// UpcomingEvents returns the matching events.
func (f *StaticEventFeed) UpcomingEvents(ctx context.Context, q models.EventQuery) ([]models.EventCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return filterEvents(f.events, &q), nil
}

// eventsResponse is the scheduling API response envelope.
type eventsResponse struct {
	Events []models.EventCandidate `json:"events"`
}

// eventWindowStep is the granularity of the window sent upstream. Queries
// whose windows fall in the same hours share one request and cache entry.
const eventWindowStep = time.Hour

// HTTPEventFeed queries the scheduling system's HTTP API. Results are cached
// for a minute per widened query and calls go through a circuit breaker so
// that an unavailable scheduler fails fast. Sweep must run periodically to
// release expired entries.
type HTTPEventFeed struct {
	client  *http.Client
	baseURL string
	apiKey  string
	breaker *breaker.Breaker
	cache   *cache.TTL[[]models.EventCandidate]
}

// NewHTTPEventFeed creates a feed from the events configuration.
func NewHTTPEventFeed(cfg *config.EventsConfig, clock clockwork.Clock) *HTTPEventFeed {
	return &HTTPEventFeed{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		breaker: breaker.New("events", breaker.DefaultSettings()),
		cache:   cache.NewTTL[[]models.EventCandidate](time.Minute, clock),
	}
}

// UpcomingEvents fetches events matching q. The upstream request covers q's
// window widened to whole hours; the exact window is applied locally.
func (f *HTTPEventFeed) UpcomingEvents(ctx context.Context, q models.EventQuery) ([]models.EventCandidate, error) {
	wide := widenWindow(q, eventWindowStep)
	params := queryParams(&wide)
	key := cache.GenerateKey("events", params.Encode())
	events, ok := f.cache.Get(key)
	if !ok {
		fetched, err := breaker.Execute(f.breaker, func() ([]models.EventCandidate, error) {
			return f.fetch(ctx, params)
		})
		if err != nil {
			return nil, err
		}
		// Upstream filtering is not trusted to be exact.
		events = filterEvents(fetched, &wide)
		f.cache.Set(key, events)
	}
	return filterEvents(events, &q), nil
}

// Sweep removes expired cache entries and returns how many were dropped.
func (f *HTTPEventFeed) Sweep() int {
	return f.cache.Cleanup()
}

// CacheStats reports the query cache counters.
func (f *HTTPEventFeed) CacheStats() cache.Stats {
	return f.cache.Stats()
}

// widenWindow returns q with From truncated and To rounded up to step.
func widenWindow(q models.EventQuery, step time.Duration) models.EventQuery {
	if !q.From.IsZero() {
		q.From = q.From.UTC().Truncate(step)
	}
	if !q.To.IsZero() {
		to := q.To.UTC().Truncate(step)
		if to.Before(q.To) {
			to = to.Add(step)
		}
		q.To = to
	}
	return q
}

func queryParams(q *models.EventQuery) url.Values {
	params := url.Values{}
	sports := slices.Clone(q.Sports)
	slices.Sort(sports)
	for _, s := range sports {
		params.Add("sport", s)
	}
	if q.Location != nil {
		params.Set("lat", strconv.FormatFloat(q.Location.Lat, 'f', 4, 64))
		params.Set("lon", strconv.FormatFloat(q.Location.Lon, 'f', 4, 64))
		if q.Radius > 0 {
			params.Set("radius", strconv.FormatFloat(q.Radius, 'f', 2, 64))
		}
	}
	if !q.From.IsZero() {
		params.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.UTC().Format(time.RFC3339))
	}
	return params
}

func (f *HTTPEventFeed) fetch(ctx context.Context, params url.Values) ([]models.EventCandidate, error) {
	reqURL := f.baseURL + "/events?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create events request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("events request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("events API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode events response: %w", err)
	}
	return out.Events, nil
}
