// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package venue

import (
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/civitas/internal/geo"
	"github.com/tomtom215/civitas/internal/models"
)

func ptr[T any](v T) *T { return &v }

func ids(venues []models.Venue) []string {
	out := make([]string, len(venues))
	for i, v := range venues {
		out[i] = v.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, Deps{})
	home := geo.Coordinate{Lat: 40.7128, Lon: -74.0060}

	tests := []struct {
		name     string
		criteria FilterCriteria
		want     []string
	}{
		{"no criteria", FilterCriteria{}, []string{"v-far", "v-field", "v-gym", "v-soccer"}},
		{"sport", FilterCriteria{SportTypes: []models.VenueType{models.VenueTypeSoccer}}, []string{"v-far", "v-soccer"}},
		{"amenities all of", FilterCriteria{Amenities: []string{models.AmenityLighting, models.AmenityLockers}}, []string{"v-gym"}},
		{"amenities missing one", FilterCriteria{Amenities: []string{models.AmenityLighting, models.AmenityParking}}, nil},
		{"available", FilterCriteria{Availability: AvailabilityAvailable}, []string{"v-far", "v-gym", "v-soccer"}},
		{"full", FilterCriteria{Availability: AvailabilityFull}, []string{"v-field"}},
		{"price range", FilterCriteria{MinPrice: ptr(10.0), MaxPrice: ptr(20.0)}, []string{"v-far", "v-gym"}},
		{"distance", FilterCriteria{UserLocation: &home, MaxDistance: ptr(5.0)}, []string{"v-gym", "v-soccer", "v-field"}},
		{"distance skipped without location", FilterCriteria{MaxDistance: ptr(1.0)}, []string{"v-far", "v-field", "v-gym", "v-soccer"}},
		{"location orders by distance", FilterCriteria{UserLocation: &home, SportTypes: []models.VenueType{models.VenueTypeSoccer}}, []string{"v-soccer", "v-far"}},
		{"intersection", FilterCriteria{
			SportTypes:   []models.VenueType{models.VenueTypeSoccer},
			Availability: AvailabilityAvailable,
			MaxPrice:     ptr(20.0),
			UserLocation: &home,
			MaxDistance:  ptr(5.0),
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ids(r.Filter(tt.criteria))
			if len(got) != len(tt.want) {
				t.Fatalf("Filter() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Filter()[%d] = %q, want %q (full %v)", i, got[i], tt.want[i], got)
				}
			}
		})
	}
}

func TestFilter_ReturnsCopies(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, Deps{})
	got := r.Filter(FilterCriteria{SportTypes: []models.VenueType{models.VenueTypeGym}})
	got[0].Amenities[0] = "mutated"
	got[0].Sensors.Lighting.On = false

	again, _ := r.Get("v-gym")
	if again.Amenities[0] != models.AmenityLighting || !again.Sensors.Lighting.On {
		t.Error("mutating a Filter() result changed registry state")
	}
}

func TestAnalytics(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, Deps{})
	got := r.Analytics()

	if got.TotalVenues != 4 || got.OpenVenues != 4 {
		t.Errorf("TotalVenues/OpenVenues = %d/%d, want 4/4", got.TotalVenues, got.OpenVenues)
	}
	if got.TotalCapacity != 350 {
		t.Errorf("TotalCapacity = %d, want 350", got.TotalCapacity)
	}
	if got.ActiveParticipants != 205 {
		t.Errorf("ActiveParticipants = %d, want 205", got.ActiveParticipants)
	}
	// (0.1 + 0.9 + 1.0 + 0.1) / 4 = 52.5%
	if math.Abs(got.AverageOccupancy-52.5) > 1e-9 {
		t.Errorf("AverageOccupancy = %v, want 52.5", got.AverageOccupancy)
	}
	// 12*5 + 25*90 + 0*100 + 15*10
	if got.TotalRevenue != 2460 {
		t.Errorf("TotalRevenue = %v, want 2460", got.TotalRevenue)
	}
	if got.MaintenanceIssues != 1 {
		t.Errorf("MaintenanceIssues = %d, want 1 open", got.MaintenanceIssues)
	}
	if got.WeatherAlerts != 1 {
		t.Errorf("WeatherAlerts = %d, want 1", got.WeatherAlerts)
	}
	if !got.GeneratedAt.Equal(testNow) {
		t.Errorf("GeneratedAt = %v, want %v", got.GeneratedAt, testNow)
	}
}

func TestNearby(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, Deps{})
	got := r.Nearby(geo.Coordinate{Lat: 40.7128, Lon: -74.0060}, 5)
	if len(got) != 3 {
		t.Fatalf("Nearby() = %d venues, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Errorf("Nearby() not sorted by distance: %v before %v", got[i-1].Distance, got[i].Distance)
		}
	}
}

func TestReportAndResolveIssue(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, Deps{})
	issue, err := r.ReportIssue("v-gym", models.IssueReportRequest{
		Type: "equipment", Severity: models.IssueSeverityMedium, Description: "Treadmill 3 belt slipping",
	})
	if err != nil {
		t.Fatalf("ReportIssue() error = %v", err)
	}
	if issue.ID == "" || issue.Status != models.IssueStatusOpen || !issue.ReportedAt.Equal(testNow) {
		t.Errorf("ReportIssue() = %+v, want open issue with id reported now", issue)
	}
	if got := r.Analytics().MaintenanceIssues; got != 2 {
		t.Errorf("MaintenanceIssues = %d, want 2", got)
	}

	resolved, err := r.ResolveIssue("v-gym", issue.ID)
	if err != nil {
		t.Fatalf("ResolveIssue() error = %v", err)
	}
	if resolved.Status != models.IssueStatusResolved || resolved.ResolvedAt == nil {
		t.Errorf("ResolveIssue() = %+v, want resolved with timestamp", resolved)
	}
	if _, err := r.ResolveIssue("v-gym", issue.ID); err != nil {
		t.Errorf("second ResolveIssue() error = %v, want nil", err)
	}
	if got := r.Analytics().MaintenanceIssues; got != 1 {
		t.Errorf("MaintenanceIssues after resolve = %d, want 1", got)
	}

	if _, err := r.ResolveIssue("v-gym", "nope"); !errors.Is(err, ErrIssueNotFound) {
		t.Errorf("ResolveIssue(unknown issue) error = %v, want ErrIssueNotFound", err)
	}
	if _, err := r.ReportIssue("nope", models.IssueReportRequest{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReportIssue(unknown venue) error = %v, want ErrNotFound", err)
	}
}
