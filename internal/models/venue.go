// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package models

import (
	"slices"
	"time"

	"github.com/tomtom215/civitas/internal/geo"
)

// VenueType identifies the kind of recreation venue.
type VenueType string

const (
	VenueTypeField        VenueType = "field"
	VenueTypeGym          VenueType = "gym"
	VenueTypePool         VenueType = "pool"
	VenueTypeTrack        VenueType = "track"
	VenueTypeTennis       VenueType = "tennis"
	VenueTypeBasketball   VenueType = "basketball"
	VenueTypeBaseball     VenueType = "baseball"
	VenueTypeSoccer       VenueType = "soccer"
	VenueTypeMultiPurpose VenueType = "multi-purpose"
)

// VenueTypes lists every known venue type.
func VenueTypes() []VenueType {
	return []VenueType{
		VenueTypeField, VenueTypeGym, VenueTypePool, VenueTypeTrack, VenueTypeTennis,
		VenueTypeBasketball, VenueTypeBaseball, VenueTypeSoccer, VenueTypeMultiPurpose,
	}
}

// Valid reports whether t is a known venue type.
func (t VenueType) Valid() bool {
	return slices.Contains(VenueTypes(), t)
}

// VenueStatus is the operational state of a venue. Transitions are driven by
// the external venue-management system and are stored as given.
type VenueStatus string

const (
	VenueStatusOpen        VenueStatus = "open"
	VenueStatusClosed      VenueStatus = "closed"
	VenueStatusMaintenance VenueStatus = "maintenance"
	VenueStatusReserved    VenueStatus = "reserved"
)

// Location is a venue's position and street address.
type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address,omitempty"`
}

// Coordinate returns the location as a geo.Coordinate.
func (l Location) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: l.Lat, Lon: l.Lon}
}

// Well-known amenity names. Venues may carry others.
const (
	AmenityParking     = "parking"
	AmenityLighting    = "lighting"
	AmenityRestrooms   = "restrooms"
	AmenityLockers     = "lockers"
	AmenityShowers     = "showers"
	AmenityConcessions = "concessions"
	AmenityWiFi        = "wifi"
	AmenityAccessible  = "accessible"
)

// OccupancyReading is the live head count against the venue maximum.
type OccupancyReading struct {
	Current   int       `json:"current"`
	Max       int       `json:"max"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ratio returns current/max in [0,1], or 0 when max is not positive.
func (o OccupancyReading) Ratio() float64 {
	if o.Max <= 0 {
		return 0
	}
	return float64(o.Current) / float64(o.Max)
}

// Available reports whether there is room for at least one more person.
func (o OccupancyReading) Available() bool {
	return o.Current < o.Max
}

// Clamp forces 0 <= Current <= Max. It reports whether a change was needed.
func (o *OccupancyReading) Clamp() bool {
	switch {
	case o.Max < 0:
		o.Max = 0
		o.Current = 0
		return true
	case o.Current > o.Max:
		o.Current = o.Max
		return true
	case o.Current < 0:
		o.Current = 0
		return true
	}
	return false
}

// LightingReading is the state of the venue lighting system.
type LightingReading struct {
	On         bool      `json:"on"`
	Brightness int       `json:"brightness"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Measurement is a single scalar sensor value.
type Measurement struct {
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParkingReading is the number of free parking spaces.
type ParkingReading struct {
	Available int       `json:"available"`
	Total     int       `json:"total"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EquipmentReading maps equipment names to the count currently free.
type EquipmentReading struct {
	Available map[string]int `json:"available,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SensorSnapshot is the latest telemetry for a venue. Lighting is nil for
// venues without a lighting system.
type SensorSnapshot struct {
	Occupancy   OccupancyReading `json:"occupancy"`
	Lighting    *LightingReading `json:"lighting,omitempty"`
	Temperature Measurement      `json:"temperature"`
	Humidity    Measurement      `json:"humidity"`
	AirQuality  Measurement      `json:"air_quality"`
	Parking     ParkingReading   `json:"parking"`
	Equipment   EquipmentReading `json:"equipment"`
}

// ForecastEntry is one step of a weather forecast.
type ForecastEntry struct {
	Time          time.Time `json:"time"`
	Temperature   float64   `json:"temperature"`
	Condition     string    `json:"condition"`
	Precipitation float64   `json:"precipitation"`
}

// WeatherSnapshot is the current weather at a venue.
type WeatherSnapshot struct {
	Temperature   float64         `json:"temperature"`
	Condition     string          `json:"condition"`
	Humidity      float64         `json:"humidity"`
	WindSpeed     float64         `json:"wind_speed"`
	WindDirection float64         `json:"wind_direction"`
	// Precipitation is rain plus snow over the last hour: inches for
	// imperial units, millimetres otherwise.
	Precipitation float64         `json:"precipitation"`
	Visibility    float64         `json:"visibility"`
	UVIndex       float64         `json:"uv_index"`
	Forecast      []ForecastEntry `json:"forecast,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Default weather values substituted when the provider fails.
const (
	DefaultWeatherTemperature = 72.0
	DefaultWeatherCondition   = "Clear"
)

// DefaultWeather returns the fallback snapshot: 72F, clear, no precipitation.
func DefaultWeather(now time.Time) WeatherSnapshot {
	return WeatherSnapshot{
		Temperature:   DefaultWeatherTemperature,
		Condition:     DefaultWeatherCondition,
		Humidity:      50,
		Precipitation: 0,
		Visibility:    10,
		UpdatedAt:     now,
	}
}

// IsAlert reports whether the weather warrants an alert: precipitation above
// 0.1 or wind above 20.
func (w WeatherSnapshot) IsAlert() bool {
	return w.Precipitation > 0.1 || w.WindSpeed > 20
}

// DailyHours is the opening window for one weekday, as "HH:MM" strings.
type DailyHours struct {
	Day   time.Weekday `json:"day"`
	Open  string       `json:"open"`
	Close string       `json:"close"`
}

// Pricing describes what a venue charges.
type Pricing struct {
	HourlyRate     float64 `json:"hourly_rate"`
	Currency       string  `json:"currency,omitempty"`
	MemberDiscount float64 `json:"member_discount,omitempty"`
}

// IssueSeverity ranks maintenance issues.
type IssueSeverity string

const (
	IssueSeverityLow      IssueSeverity = "low"
	IssueSeverityMedium   IssueSeverity = "medium"
	IssueSeverityHigh     IssueSeverity = "high"
	IssueSeverityCritical IssueSeverity = "critical"
)

// IssueStatus tracks a maintenance issue through its lifecycle.
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
)

// MaintenanceIssue is a single reported problem at a venue.
type MaintenanceIssue struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	Severity    IssueSeverity `json:"severity"`
	Description string        `json:"description"`
	ReportedAt  time.Time     `json:"reported_at"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
	Status      IssueStatus   `json:"status"`
}

// IsOpen reports whether the issue still needs attention.
func (m MaintenanceIssue) IsOpen() bool {
	return m.Status != IssueStatusResolved
}

// MaintenanceRecord is the inspection history and issue list of a venue.
type MaintenanceRecord struct {
	LastInspection *time.Time         `json:"last_inspection,omitempty"`
	Issues         []MaintenanceIssue `json:"issues,omitempty"`
}

// OpenIssues returns the issues that are not yet resolved.
func (r MaintenanceRecord) OpenIssues() []MaintenanceIssue {
	var open []MaintenanceIssue
	for _, issue := range r.Issues {
		if issue.IsOpen() {
			open = append(open, issue)
		}
	}
	return open
}

// Venue is a bookable recreation location.
type Venue struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Type           VenueType         `json:"type"`
	Location       Location          `json:"location"`
	Capacity       int               `json:"capacity"`
	Amenities      []string          `json:"amenities,omitempty"`
	Sensors        SensorSnapshot    `json:"sensors"`
	Weather        WeatherSnapshot   `json:"weather"`
	Status         VenueStatus       `json:"status"`
	OperatingHours []DailyHours      `json:"operating_hours,omitempty"`
	Pricing        Pricing           `json:"pricing"`
	Maintenance    MaintenanceRecord `json:"maintenance"`
}

// HasAmenity reports whether the venue offers the named amenity.
func (v *Venue) HasAmenity(name string) bool {
	return slices.Contains(v.Amenities, name)
}

// IsIndoor reports whether the venue is usable in bad weather: it has a
// lighting system and is not an open field.
func (v *Venue) IsIndoor() bool {
	return v.Sensors.Lighting != nil && v.Type != VenueTypeField
}

// EstimatedRevenue is hourly rate times current occupancy.
func (v *Venue) EstimatedRevenue() float64 {
	return v.Pricing.HourlyRate * float64(v.Sensors.Occupancy.Current)
}

// Clone returns a deep copy so that the registry can swap whole values
// without sharing slices or maps with readers.
func (v *Venue) Clone() Venue {
	c := *v
	c.Amenities = slices.Clone(v.Amenities)
	c.OperatingHours = slices.Clone(v.OperatingHours)
	c.Weather.Forecast = slices.Clone(v.Weather.Forecast)
	c.Maintenance.Issues = slices.Clone(v.Maintenance.Issues)
	if v.Sensors.Lighting != nil {
		l := *v.Sensors.Lighting
		c.Sensors.Lighting = &l
	}
	if v.Sensors.Equipment.Available != nil {
		c.Sensors.Equipment.Available = make(map[string]int, len(v.Sensors.Equipment.Available))
		for k, n := range v.Sensors.Equipment.Available {
			c.Sensors.Equipment.Available[k] = n
		}
	}
	if v.Maintenance.LastInspection != nil {
		t := *v.Maintenance.LastInspection
		c.Maintenance.LastInspection = &t
	}
	for i := range c.Maintenance.Issues {
		if r := c.Maintenance.Issues[i].ResolvedAt; r != nil {
			t := *r
			c.Maintenance.Issues[i].ResolvedAt = &t
		}
	}
	return c
}

// ChangeKind is the type of a venue change notification.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// ChangeEvent is one notification from the venue change feed. For removals
// only VenueID is required. Timestamp orders events per venue.
type ChangeEvent struct {
	Kind      ChangeKind `json:"kind"`
	VenueID   string     `json:"venue_id"`
	Venue     *Venue     `json:"venue,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ID returns the venue id the event refers to.
func (e ChangeEvent) ID() string {
	if e.VenueID != "" {
		return e.VenueID
	}
	if e.Venue != nil {
		return e.Venue.ID
	}
	return ""
}

// AnalyticsSummary aggregates the current venue set.
type AnalyticsSummary struct {
	TotalVenues        int       `json:"total_venues"`
	OpenVenues         int       `json:"open_venues"`
	TotalCapacity      int       `json:"total_capacity"`
	ActiveParticipants int       `json:"active_participants"`
	AverageOccupancy   float64   `json:"average_occupancy"`
	TotalRevenue       float64   `json:"total_revenue"`
	MaintenanceIssues  int       `json:"maintenance_issues"`
	WeatherAlerts      int       `json:"weather_alerts"`
	GeneratedAt        time.Time `json:"generated_at"`
}
