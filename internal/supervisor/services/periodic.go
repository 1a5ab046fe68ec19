// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/models"
	"github.com/tomtom215/civitas/internal/venue"
)

// TaskFunc is one cycle of a periodic service.
type TaskFunc func(ctx context.Context) error

// PeriodicService runs a task on a fixed interval until its context ends.
//
// Cycles never overlap: each tick runs the task synchronously inside Serve,
// so a slow cycle delays the next one instead of piling up. A failed cycle is
// logged and the loop continues; only context cancellation stops the service.
type PeriodicService struct {
	name       string
	interval   time.Duration
	runOnStart bool
	task       TaskFunc
	clock      clockwork.Clock
	logger     zerolog.Logger

	cycles   atomic.Int64
	failures atomic.Int64
}

// NewPeriodicService creates a service named name. A nil clock uses the real clock.
func NewPeriodicService(name string, interval time.Duration, runOnStart bool, task TaskFunc, clock clockwork.Clock) *PeriodicService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &PeriodicService{
		name:       name,
		interval:   interval,
		runOnStart: runOnStart,
		task:       task,
		clock:      clock,
		logger:     logging.WithComponent(name),
	}
}

// Serve implements suture.Service.
func (s *PeriodicService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Bool("run_on_start", s.runOnStart).Msg("Periodic service starting")

	if s.runOnStart {
		s.runCycle(ctx)
	}

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Int64("cycles", s.cycles.Load()).Msg("Periodic service stopping")
			return ctx.Err()
		case <-ticker.Chan():
			s.runCycle(ctx)
		}
	}
}

func (s *PeriodicService) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.cycles.Add(1)
	ctx = logging.WithLogger(logging.WithNewCycle(ctx), s.logger)
	if err := s.task(ctx); err != nil {
		s.failures.Add(1)
		logging.Ctx(ctx).Warn().Err(err).Msg("Periodic cycle failed")
	}
}

// Cycles returns how many cycles have run.
func (s *PeriodicService) Cycles() int64 { return s.cycles.Load() }

// Failures returns how many cycles returned an error.
func (s *PeriodicService) Failures() int64 { return s.failures.Load() }

// String implements fmt.Stringer for suture log lines.
func (s *PeriodicService) String() string { return s.name }

// SensorRefresher is satisfied by *venue.Registry.
type SensorRefresher interface {
	RefreshSensors(ctx context.Context) venue.RefreshResult
}

// WeatherRefresher is satisfied by *venue.Registry.
type WeatherRefresher interface {
	RefreshWeather(ctx context.Context) venue.RefreshResult
}

// InsightSource is satisfied by *insight.Generator.
type InsightSource interface {
	Generate(ctx context.Context) ([]models.CivicInsight, error)
}

// NewSensorRefreshService polls venue sensors every interval.
func NewSensorRefreshService(r SensorRefresher, interval time.Duration, clock clockwork.Clock) *PeriodicService {
	return NewPeriodicService("sensor-refresh", interval, true, refreshTask("sensors", r.RefreshSensors), clock)
}

// NewWeatherRefreshService refreshes venue weather every interval.
func NewWeatherRefreshService(r WeatherRefresher, interval time.Duration, clock clockwork.Clock) *PeriodicService {
	return NewPeriodicService("weather-refresh", interval, true, refreshTask("weather", r.RefreshWeather), clock)
}

// NewInsightService regenerates civic insights every interval. The first
// cycle waits a full interval so the registry has live data to compare.
func NewInsightService(src InsightSource, interval time.Duration, clock clockwork.Clock) *PeriodicService {
	task := func(ctx context.Context) error {
		insights, err := src.Generate(ctx)
		if err != nil {
			return err
		}
		logging.Ctx(ctx).Debug().Int("insights", len(insights)).Msg("Insights regenerated")
		return nil
	}
	return NewPeriodicService("insight-generator", interval, false, task, clock)
}

// CacheSweeper is satisfied by *feed.HTTPEventFeed.
type CacheSweeper interface {
	Sweep() int
}

// NewCacheSweepService drops expired cache entries every interval. Expired
// entries are never read again but stay in memory until swept.
func NewCacheSweepService(name string, c CacheSweeper, interval time.Duration, clock clockwork.Clock) *PeriodicService {
	task := func(ctx context.Context) error {
		if n := c.Sweep(); n > 0 {
			logging.Ctx(ctx).Debug().Int("evicted", n).Msg("Expired cache entries swept")
		}
		return nil
	}
	return NewPeriodicService(name, interval, false, task, clock)
}

func refreshTask(kind string, refresh func(context.Context) venue.RefreshResult) TaskFunc {
	return func(ctx context.Context) error {
		res := refresh(ctx)
		logger := logging.Ctx(ctx)
		ev := logger.Debug()
		if res.Failed > 0 {
			ev = logger.Info()
		}
		ev.Str("kind", kind).
			Int("venues", res.Venues).
			Int("updated", res.Updated).
			Int("failed", res.Failed).
			Dur("duration", res.Duration).
			Msg("Venue refresh cycle complete")
		return nil
	}
}
