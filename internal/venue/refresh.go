// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package venue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/civitas/internal/metrics"
	"github.com/tomtom215/civitas/internal/models"
)

// RefreshResult summarizes one refresh cycle.
type RefreshResult struct {
	Venues   int
	Updated  int
	Failed   int
	Duration time.Duration
}

type callResult[T any] struct {
	value T
	err   error
}

// callWithTimeout runs fn with a deadline and returns when either fn returns
// or the deadline passes, whichever is first. A source that ignores its
// context cannot hold up the caller.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	ch := make(chan callResult[T], 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- callResult[T]{err: fmt.Errorf("venue source panicked: %v", p)}
			}
		}()
		v, err := fn(ctx)
		ch <- callResult[T]{value: v, err: err}
	}()

	select {
	case res := <-ch:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}

// forEachVenue runs fn for every venue in the current snapshot with bounded
// concurrency and waits for all calls to return.
func (r *Registry) forEachVenue(ctx context.Context, fn func(v *models.Venue)) int {
	venues := r.snapshot()
	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, v := range venues {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return len(venues)
		}
		wg.Add(1)
		go func(v *models.Venue) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(v)
		}(v)
	}
	wg.Wait()
	return len(venues)
}

// RefreshWeather fetches current weather for every venue. A venue whose
// fetch fails or times out gets models.DefaultWeather. Errors are never
// returned; the cycle always completes.
func (r *Registry) RefreshWeather(ctx context.Context) RefreshResult {
	if r.weather == nil {
		return RefreshResult{}
	}
	start := r.clock.Now()
	var updated, failed atomic.Int64

	total := r.forEachVenue(ctx, func(v *models.Venue) {
		snap, err := callWithTimeout(ctx, r.cfg.WeatherTimeout, func(ctx context.Context) (models.WeatherSnapshot, error) {
			return r.weather.GetWeather(ctx, v.Location.Lat, v.Location.Lon)
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failed.Add(1)
			metrics.RecordVenueRefreshFailure("weather", failureReason(err))
			metrics.WeatherFallbacks.Inc()
			r.logger.Warn().Err(err).Str("venue_id", v.ID).Msg("Weather fetch failed, using default snapshot")
			snap = models.DefaultWeather(r.clock.Now())
		}
		if snap.UpdatedAt.IsZero() {
			snap.UpdatedAt = r.clock.Now()
		}
		if _, err := r.update(v.ID, func(next *models.Venue) error {
			next.Weather = snap
			return nil
		}); err == nil {
			updated.Add(1)
		}
	})

	res := RefreshResult{Venues: total, Updated: int(updated.Load()), Failed: int(failed.Load()), Duration: r.clock.Since(start)}
	metrics.RecordVenueRefresh("weather", res.Duration)
	r.logger.Debug().Int("venues", res.Venues).Int("updated", res.Updated).Int("fallbacks", res.Failed).
		Dur("duration", res.Duration).Msg("Weather refresh complete")
	return res
}

// RefreshSensors reads telemetry for every venue. A venue whose read fails
// or exceeds the sensor timeout keeps its previous readings this cycle.
func (r *Registry) RefreshSensors(ctx context.Context) RefreshResult {
	if r.telemetry == nil {
		return RefreshResult{}
	}
	start := r.clock.Now()
	var updated, failed atomic.Int64

	total := r.forEachVenue(ctx, func(v *models.Venue) {
		input := v.Clone()
		snap, err := callWithTimeout(ctx, r.cfg.SensorTimeout, func(ctx context.Context) (models.SensorSnapshot, error) {
			return r.telemetry.ReadSensors(ctx, &input)
		})
		if err != nil {
			failed.Add(1)
			metrics.RecordVenueRefreshFailure("sensors", failureReason(err))
			r.logger.Warn().Err(err).Str("venue_id", v.ID).Msg("Sensor read failed, keeping previous readings")
			return
		}
		if _, err := r.update(v.ID, func(next *models.Venue) error {
			if snap.Occupancy.Max <= 0 {
				snap.Occupancy.Max = next.Capacity
			}
			next.Sensors = snap
			r.clampOccupancy(next)
			return nil
		}); err == nil {
			updated.Add(1)
		}
	})

	res := RefreshResult{Venues: total, Updated: int(updated.Load()), Failed: int(failed.Load()), Duration: r.clock.Since(start)}
	metrics.RecordVenueRefresh("sensors", res.Duration)
	r.logger.Debug().Int("venues", res.Venues).Int("updated", res.Updated).Int("skipped", res.Failed).
		Dur("duration", res.Duration).Msg("Sensor refresh complete")
	return res
}
