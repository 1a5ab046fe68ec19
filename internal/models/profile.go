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

// TimeOfDay is a coarse bucket used for availability and preference matching.
type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
	TimeOfDayNight     TimeOfDay = "night"
)

// TimeOfDayFor buckets t by hour: morning [5,12), afternoon [12,17),
// evening [17,21), night otherwise.
func TimeOfDayFor(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return TimeOfDayMorning
	case h >= 12 && h < 17:
		return TimeOfDayAfternoon
	case h >= 17 && h < 21:
		return TimeOfDayEvening
	default:
		return TimeOfDayNight
	}
}

// AvailabilityWindow is a recurring weekly slot when the user can play.
// Hours are [StartHour, EndHour) in local time.
type AvailabilityWindow struct {
	Day       time.Weekday `json:"day" validate:"min=0,max=6"`
	StartHour int          `json:"start_hour" validate:"min=0,max=23"`
	EndHour   int          `json:"end_hour" validate:"min=1,max=24,gtfield=StartHour"`
}

// Contains reports whether t falls inside the window.
func (w AvailabilityWindow) Contains(t time.Time) bool {
	return t.Weekday() == w.Day && t.Hour() >= w.StartHour && t.Hour() < w.EndHour
}

// BudgetRange is the acceptable hourly spend.
type BudgetRange struct {
	Min float64 `json:"min" validate:"min=0"`
	Max float64 `json:"max" validate:"min=0,gtefield=Min"`
}

// Preferences is what the user wants.
type Preferences struct {
	Sports       []string             `json:"sports,omitempty"`
	SkillLevel   string               `json:"skill_level,omitempty"`
	Availability []AvailabilityWindow `json:"availability,omitempty"`
	HomeLocation *geo.Coordinate      `json:"home_location,omitempty"`
	SearchRadius float64              `json:"search_radius"`
	Budget       BudgetRange          `json:"budget"`
}

// PlaysSport reports whether sport is among the user's preferred sports.
func (p Preferences) PlaysSport(sport string) bool {
	return slices.Contains(p.Sports, sport)
}

// AvailableAt reports whether t falls in any availability window.
func (p Preferences) AvailableAt(t time.Time) bool {
	for _, w := range p.Availability {
		if w.Contains(t) {
			return true
		}
	}
	return false
}

// Behavior is what the user has done.
type Behavior struct {
	EventsAttended        []string    `json:"events_attended,omitempty"`
	VenuesVisited         []string    `json:"venues_visited,omitempty"`
	AverageSessionMinutes float64     `json:"average_session_minutes"`
	PreferredTimes        []TimeOfDay `json:"preferred_times,omitempty"`
	SocialConnections     []string    `json:"social_connections,omitempty"`
}

// Goals groups the user's goals by kind.
type Goals struct {
	Fitness     []string `json:"fitness,omitempty"`
	Social      []string `json:"social,omitempty"`
	Skill       []string `json:"skill,omitempty"`
	Competitive []string `json:"competitive,omitempty"`
}

// UserProfile holds one user's preferences, behavior and goals.
type UserProfile struct {
	ID          string      `json:"id"`
	Preferences Preferences `json:"preferences"`
	Behavior    Behavior    `json:"behavior"`
	Goals       Goals       `json:"goals"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Clone returns a deep copy of the profile.
func (p *UserProfile) Clone() UserProfile {
	c := *p
	c.Preferences.Sports = slices.Clone(p.Preferences.Sports)
	c.Preferences.Availability = slices.Clone(p.Preferences.Availability)
	if p.Preferences.HomeLocation != nil {
		loc := *p.Preferences.HomeLocation
		c.Preferences.HomeLocation = &loc
	}
	c.Behavior.EventsAttended = slices.Clone(p.Behavior.EventsAttended)
	c.Behavior.VenuesVisited = slices.Clone(p.Behavior.VenuesVisited)
	c.Behavior.PreferredTimes = slices.Clone(p.Behavior.PreferredTimes)
	c.Behavior.SocialConnections = slices.Clone(p.Behavior.SocialConnections)
	c.Goals.Fitness = slices.Clone(p.Goals.Fitness)
	c.Goals.Social = slices.Clone(p.Goals.Social)
	c.Goals.Skill = slices.Clone(p.Goals.Skill)
	c.Goals.Competitive = slices.Clone(p.Goals.Competitive)
	return c
}

// ProfileUpdate is a partial profile update. Nil fields are left unchanged.
type ProfileUpdate struct {
	Sports         *[]string             `json:"sports,omitempty" validate:"omitempty,dive,required,max=50"`
	SkillLevel     *string               `json:"skill_level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced expert"`
	Availability   *[]AvailabilityWindow `json:"availability,omitempty" validate:"omitempty,dive"`
	HomeLocation   *geo.Coordinate       `json:"home_location,omitempty"`
	SearchRadius   *float64              `json:"search_radius,omitempty" validate:"omitempty,gt=0,lte=500"`
	Budget         *BudgetRange          `json:"budget,omitempty"`
	PreferredTimes *[]TimeOfDay          `json:"preferred_times,omitempty" validate:"omitempty,dive,oneof=morning afternoon evening night"`
	Goals          *Goals                `json:"goals,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u *ProfileUpdate) Empty() bool {
	return u.Sports == nil && u.SkillLevel == nil && u.Availability == nil &&
		u.HomeLocation == nil && u.SearchRadius == nil && u.Budget == nil &&
		u.PreferredTimes == nil && u.Goals == nil
}

// Apply merges the update into p.
func (u *ProfileUpdate) Apply(p *UserProfile) {
	if u.Sports != nil {
		p.Preferences.Sports = slices.Clone(*u.Sports)
	}
	if u.SkillLevel != nil {
		p.Preferences.SkillLevel = *u.SkillLevel
	}
	if u.Availability != nil {
		p.Preferences.Availability = slices.Clone(*u.Availability)
	}
	if u.HomeLocation != nil {
		loc := *u.HomeLocation
		p.Preferences.HomeLocation = &loc
	}
	if u.SearchRadius != nil {
		p.Preferences.SearchRadius = *u.SearchRadius
	}
	if u.Budget != nil {
		p.Preferences.Budget = *u.Budget
	}
	if u.PreferredTimes != nil {
		p.Behavior.PreferredTimes = slices.Clone(*u.PreferredTimes)
	}
	if u.Goals != nil {
		g := *u.Goals
		p.Goals = Goals{
			Fitness:     slices.Clone(g.Fitness),
			Social:      slices.Clone(g.Social),
			Skill:       slices.Clone(g.Skill),
			Competitive: slices.Clone(g.Competitive),
		}
	}
}

// EventCandidate is an upcoming event offered by the scheduling system.
type EventCandidate struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Sport      string         `json:"sport"`
	VenueID    string         `json:"venue_id,omitempty"`
	Location   geo.Coordinate `json:"location"`
	StartsAt   time.Time      `json:"starts_at"`
	EndsAt     time.Time      `json:"ends_at"`
	Fee        float64        `json:"fee"`
	Capacity   int            `json:"capacity,omitempty"`
	Registered int            `json:"registered,omitempty"`
}

// EventQuery selects upcoming events by sport, proximity and time.
type EventQuery struct {
	Sports   []string
	Location *geo.Coordinate
	Radius   float64
	From     time.Time
	To       time.Time
}

// ActivityRecord is one entry in a user's recent-activity log.
type ActivityRecord struct {
	UserID          string    `json:"user_id"`
	Kind            string    `json:"kind"`
	VenueID         string    `json:"venue_id,omitempty"`
	EventID         string    `json:"event_id,omitempty"`
	Sport           string    `json:"sport,omitempty"`
	At              time.Time `json:"at"`
	DurationMinutes float64   `json:"duration_minutes,omitempty"`
}
