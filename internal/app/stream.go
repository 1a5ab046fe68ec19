// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package app

import (
	"context"

	"github.com/tomtom215/civitas/internal/feed"
	"github.com/tomtom215/civitas/internal/models"
	"github.com/tomtom215/civitas/internal/supervisor/services"
	"github.com/tomtom215/civitas/internal/venue"
	"github.com/tomtom215/civitas/internal/websocket"
)

// streamingApplier pushes every applied change to the live stream.
type streamingApplier struct {
	next feed.Applier
	hub  *websocket.Hub
}

func (s streamingApplier) ApplyChange(ev models.ChangeEvent) (bool, error) {
	applied, err := s.next.ApplyChange(ev)
	if applied {
		s.hub.BroadcastVenueChange(ev)
	}
	return applied, err
}

// streamingRegistry announces refresh cycles after they finish.
type streamingRegistry struct {
	registry *venue.Registry
	hub      *websocket.Hub
}

func (s streamingRegistry) RefreshSensors(ctx context.Context) venue.RefreshResult {
	res := s.registry.RefreshSensors(ctx)
	s.hub.BroadcastRefresh("sensors", res.Venues, res.Updated, res.Failed, res.Duration)
	return res
}

func (s streamingRegistry) RefreshWeather(ctx context.Context) venue.RefreshResult {
	res := s.registry.RefreshWeather(ctx)
	s.hub.BroadcastRefresh("weather", res.Venues, res.Updated, res.Failed, res.Duration)
	return res
}

// streamingInsights publishes each successful insight cycle.
type streamingInsights struct {
	next services.InsightSource
	hub  *websocket.Hub
}

func (s streamingInsights) Generate(ctx context.Context) ([]models.CivicInsight, error) {
	insights, err := s.next.Generate(ctx)
	if err == nil {
		s.hub.BroadcastInsights(insights)
	}
	return insights, err
}
