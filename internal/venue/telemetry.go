// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package venue

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/civitas/internal/models"
)

// TelemetrySource supplies live sensor readings for one venue.
type TelemetrySource interface {
	ReadSensors(ctx context.Context, v *models.Venue) (models.SensorSnapshot, error)
}

// TelemetryFunc adapts a function to TelemetrySource.
type TelemetryFunc func(ctx context.Context, v *models.Venue) (models.SensorSnapshot, error)

// ReadSensors calls f.
func (f TelemetryFunc) ReadSensors(ctx context.Context, v *models.Venue) (models.SensorSnapshot, error) {
	return f(ctx, v)
}

// SimulatedTelemetry produces plausible readings from a seeded generator.
// It is used until real telemetry is connected and in demos.
type SimulatedTelemetry struct {
	mu    sync.Mutex
	rng   *rand.Rand
	clock clockwork.Clock
}

// NewSimulatedTelemetry creates a simulator. Equal seeds give equal sequences.
func NewSimulatedTelemetry(seed int64, clock clockwork.Clock) *SimulatedTelemetry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if seed == 0 {
		seed = clock.Now().UnixNano()
	}
	return &SimulatedTelemetry{
		rng:   rand.New(rand.NewPCG(uint64(seed), uint64(seed>>1)|1)), //nolint:gosec // simulated readings
		clock: clock,
	}
}

// ReadSensors returns a new snapshot for v.
func (s *SimulatedTelemetry) ReadSensors(ctx context.Context, v *models.Venue) (models.SensorSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.SensorSnapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	maxOcc := v.Sensors.Occupancy.Max
	if maxOcc <= 0 {
		maxOcc = v.Capacity
	}
	if maxOcc < 0 {
		maxOcc = 0
	}

	snap := models.SensorSnapshot{
		Occupancy: models.OccupancyReading{
			Current:   s.rng.IntN(maxOcc + 1),
			Max:       maxOcc,
			UpdatedAt: now,
		},
		Temperature: models.Measurement{Value: 65 + s.rng.Float64()*15, UpdatedAt: now},
		Humidity:    models.Measurement{Value: 30 + s.rng.Float64()*40, UpdatedAt: now},
		AirQuality:  models.Measurement{Value: float64(20 + s.rng.IntN(80)), UpdatedAt: now},
		Equipment:   v.Sensors.Equipment,
	}

	if v.Sensors.Lighting != nil || v.HasAmenity(models.AmenityLighting) {
		hour := now.Hour()
		on := hour >= 18 || hour < 7
		brightness := 0
		if on {
			brightness = 70 + s.rng.IntN(31)
		}
		snap.Lighting = &models.LightingReading{On: on, Brightness: brightness, UpdatedAt: now}
	}

	if total := v.Sensors.Parking.Total; total > 0 {
		snap.Parking = models.ParkingReading{Available: s.rng.IntN(total + 1), Total: total, UpdatedAt: now}
	}

	return snap, nil
}
