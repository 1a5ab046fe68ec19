// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package venue

import (
	"slices"
	"sort"

	"github.com/tomtom215/civitas/internal/geo"
	"github.com/tomtom215/civitas/internal/models"
)

// Availability filter values.
const (
	AvailabilityAny       = ""
	AvailabilityAvailable = "available"
	AvailabilityFull      = "full"
)

// FilterCriteria selects venues. Every non-empty field must match.
type FilterCriteria struct {
	SportTypes   []models.VenueType
	Amenities    []string // all must be present
	Availability string
	MinPrice     *float64
	MaxPrice     *float64
	MaxDistance  *float64
	UserLocation *geo.Coordinate
}

func (c *FilterCriteria) matches(v *models.Venue) bool {
	if len(c.SportTypes) > 0 && !slices.Contains(c.SportTypes, v.Type) {
		return false
	}
	for _, a := range c.Amenities {
		if !v.HasAmenity(a) {
			return false
		}
	}
	switch c.Availability {
	case AvailabilityAvailable:
		if !v.Sensors.Occupancy.Available() {
			return false
		}
	case AvailabilityFull:
		if v.Sensors.Occupancy.Available() {
			return false
		}
	}
	if c.MinPrice != nil && v.Pricing.HourlyRate < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && v.Pricing.HourlyRate > *c.MaxPrice {
		return false
	}
	return true
}

// Filter returns the venues matching every predicate in c. The distance
// predicate applies only when both UserLocation and MaxDistance are set.
// Results are nearest first when a location is given, otherwise by id.
func (r *Registry) Filter(c FilterCriteria) []models.Venue {
	if c.UserLocation != nil && c.MaxDistance != nil {
		var out []models.Venue
		for _, n := range r.Nearby(*c.UserLocation, *c.MaxDistance) {
			if c.matches(&n.Venue) {
				out = append(out, n.Venue)
			}
		}
		return out
	}

	var out []models.Venue
	for _, v := range r.snapshot() {
		if c.matches(v) {
			out = append(out, v.Clone())
		}
	}
	if c.UserLocation != nil {
		loc := *c.UserLocation
		sort.SliceStable(out, func(i, j int) bool {
			return geo.Distance(loc, out[i].Location.Coordinate()) < geo.Distance(loc, out[j].Location.Coordinate())
		})
	}
	return out
}

// Analytics aggregates the current venue set. AverageOccupancy is the mean
// occupancy ratio in percent; TotalRevenue is the hourly estimate
// sum(hourly rate x current occupancy).
func (r *Registry) Analytics() models.AnalyticsSummary {
	venues := r.snapshot()
	summary := models.AnalyticsSummary{
		TotalVenues: len(venues),
		GeneratedAt: r.clock.Now(),
	}

	var ratioSum float64
	for _, v := range venues {
		if v.Status == models.VenueStatusOpen {
			summary.OpenVenues++
		}
		summary.TotalCapacity += v.Capacity
		summary.ActiveParticipants += v.Sensors.Occupancy.Current
		ratioSum += v.Sensors.Occupancy.Ratio()
		summary.TotalRevenue += v.EstimatedRevenue()
		summary.MaintenanceIssues += len(v.Maintenance.OpenIssues())
		if v.Weather.IsAlert() {
			summary.WeatherAlerts++
		}
	}
	if len(venues) > 0 {
		summary.AverageOccupancy = ratioSum / float64(len(venues)) * 100
	}
	return summary
}
