// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package recommend

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/civitas/internal/geo"
	"github.com/tomtom215/civitas/internal/models"
)

// newRecommendation fills the fields common to every recommendation.
func newRecommendation(rc *requestContext, typ models.RecommendationType, priority models.Priority, confidence float64) models.Recommendation {
	return models.Recommendation{
		ID:         uuid.NewString(),
		Type:       typ,
		Confidence: models.ClampConfidence(confidence),
		Priority:   priority,
		CreatedAt:  rc.createdAt,
		Payload:    make(map[string]interface{}),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// venueRecommendations suggests underutilized venues for the user's sports
// and, when precipitation is high, every nearby indoor venue.
func (e *Engine) venueRecommendations(_ context.Context, rc *requestContext) ([]models.Recommendation, error) {
	cfg := e.config.Venue
	raining := rc.precipitation > cfg.WeatherPrecipitation

	var recs []models.Recommendation
	for i := range rc.nearby {
		v := &rc.nearby[i].Venue
		dist := rc.nearby[i].Distance
		occ := v.Sensors.Occupancy
		free := occ.Max - occ.Current

		if raining && v.IsIndoor() {
			r := newRecommendation(rc, models.RecommendationVenue, models.PriorityHigh, cfg.WeatherConfidence)
			r.Title = fmt.Sprintf("Stay dry at %s", v.Name)
			r.Description = fmt.Sprintf("Rain is expected. %s is an indoor %s venue %.1f miles away.", v.Name, v.Type, dist)
			r.Impact = models.Impact{
				Participants: float64(free),
				Engagement:   0.7,
				Community:    0.4,
			}
			r.Payload["reason"] = "weather"
			r.Payload["venue_id"] = v.ID
			r.Payload["distance"] = round2(dist)
			r.Payload["precipitation"] = rc.precipitation
			recs = append(recs, r)
		}

		if !rc.profile.Preferences.PlaysSport(string(v.Type)) {
			continue
		}
		if float64(occ.Current) >= float64(occ.Max)*cfg.UnderutilizedThreshold {
			continue
		}
		r := newRecommendation(rc, models.RecommendationVenue, models.PriorityMedium, cfg.Confidence)
		r.Title = fmt.Sprintf("%s has room to play", v.Name)
		r.Description = fmt.Sprintf("%s is at %.0f%% occupancy and %.1f miles away.", v.Name, occ.Ratio()*100, dist)
		r.Impact = models.Impact{
			Participants: float64(free),
			Revenue:      v.Pricing.HourlyRate * float64(free),
			Engagement:   0.6,
			Community:    0.5,
		}
		r.Payload["reason"] = "underutilized"
		r.Payload["venue_id"] = v.ID
		r.Payload["distance"] = round2(dist)
		r.Payload["occupancy"] = round2(occ.Ratio())
		r.Payload["hourly_rate"] = v.Pricing.HourlyRate
		recs = append(recs, r)
	}
	return recs, nil
}

// eventRecommendations scores upcoming events in the next window. Feed
// errors are returned so that only this category is dropped.
func (e *Engine) eventRecommendations(ctx context.Context, rc *requestContext) ([]models.Recommendation, error) {
	if e.events == nil {
		return nil, nil
	}
	cfg := e.config.Event
	prefs := rc.profile.Preferences

	q := models.EventQuery{
		Sports: slices.Clone(prefs.Sports),
		Radius: rc.radius,
		From:   rc.now,
		To:     rc.now.Add(cfg.Window),
	}
	if rc.location != nil {
		loc := *rc.location
		q.Location = &loc
	}

	feedCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	events, err := e.events.UpcomingEvents(feedCtx, q)
	if err != nil {
		return nil, fmt.Errorf("query event feed: %w", err)
	}

	var recs []models.Recommendation
	for i := range events {
		ev := &events[i]
		confidence := e.eventConfidence(rc, ev)
		if confidence <= cfg.Base {
			continue
		}

		r := newRecommendation(rc, models.RecommendationEvent, models.PriorityMedium, confidence)
		r.Title = ev.Title
		r.Description = fmt.Sprintf("%s on %s.", ev.Title, ev.StartsAt.Format("Mon Jan 2 at 15:04"))
		spots := 0
		if ev.Capacity > 0 {
			spots = max(ev.Capacity-ev.Registered, 0)
		}
		r.Impact = models.Impact{
			Participants: float64(spots),
			Revenue:      ev.Fee,
			Engagement:   0.8,
			Community:    0.6,
		}
		expires := ev.StartsAt
		r.ExpiresAt = &expires
		r.Payload["event_id"] = ev.ID
		r.Payload["sport"] = ev.Sport
		r.Payload["starts_at"] = ev.StartsAt
		r.Payload["fee"] = ev.Fee
		if ev.VenueID != "" {
			r.Payload["venue_id"] = ev.VenueID
		}
		recs = append(recs, r)
	}
	return recs, nil
}

// eventConfidence scores ev for the request: the base plus weighted sport,
// preferred time-of-day and budget matches, clamped to 1.
func (e *Engine) eventConfidence(rc *requestContext, ev *models.EventCandidate) float64 {
	cfg := e.config.Event
	prefs := rc.profile.Preferences

	c := cfg.Base
	if prefs.PlaysSport(ev.Sport) {
		c += cfg.SportWeight
	}
	if slices.Contains(rc.preferredTimes, models.TimeOfDayFor(ev.StartsAt)) || prefs.AvailableAt(ev.StartsAt) {
		c += cfg.TimeWeight
	}
	if ev.Fee == 0 || (prefs.Budget.Max > 0 && ev.Fee <= prefs.Budget.Max) {
		c += cfg.BudgetWeight
	}
	// Rounded so that summed weights compare exactly.
	return models.ClampConfidence(math.Round(c*1e6) / 1e6)
}

// trainingRecommendations emits one recommendation per skill goal.
func (e *Engine) trainingRecommendations(_ context.Context, rc *requestContext) ([]models.Recommendation, error) {
	var recs []models.Recommendation
	for _, skill := range rc.profile.Goals.Skill {
		r := newRecommendation(rc, models.RecommendationTraining, models.PriorityMedium, e.config.Training.Confidence)
		r.Title = fmt.Sprintf("Work on %s", skill)
		r.Description = fmt.Sprintf("A focused session to build your %s.", skill)
		r.Impact = models.Impact{Participants: 1, Engagement: 0.7, Community: 0.2}
		r.Payload["skill"] = skill
		if rc.profile.Preferences.SkillLevel != "" {
			r.Payload["skill_level"] = rc.profile.Preferences.SkillLevel
		}
		recs = append(recs, r)
	}
	return recs, nil
}

// socialRecommendations counts other players nearby who share a sport.
func (e *Engine) socialRecommendations(_ context.Context, rc *requestContext) ([]models.Recommendation, error) {
	if rc.location == nil || len(rc.profile.Preferences.Sports) == 0 {
		return nil, nil
	}
	cfg := e.config.Social

	shared := make(map[string]struct{})
	count := 0
	for _, other := range e.profiles.All() {
		if other.ID == rc.profile.ID || other.Preferences.HomeLocation == nil {
			continue
		}
		if !geo.Within(*rc.location, *other.Preferences.HomeLocation, cfg.Radius) {
			continue
		}
		matched := false
		for _, sport := range other.Preferences.Sports {
			if rc.profile.Preferences.PlaysSport(sport) {
				shared[sport] = struct{}{}
				matched = true
			}
		}
		if matched {
			count++
		}
	}
	if count == 0 {
		return nil, nil
	}

	sports := make([]string, 0, len(shared))
	for s := range shared {
		sports = append(sports, s)
	}
	slices.Sort(sports)

	r := newRecommendation(rc, models.RecommendationSocial, models.PriorityMedium, cfg.Confidence)
	noun := "players"
	if count == 1 {
		noun = "player"
	}
	r.Title = fmt.Sprintf("%d %s near you", count, noun)
	r.Description = fmt.Sprintf("%d %s within %.0f miles also play %s.", count, noun, cfg.Radius, strings.Join(sports, ", "))
	r.Impact = models.Impact{Participants: float64(count), Engagement: 0.6, Community: 0.8}
	r.Payload["count"] = count
	r.Payload["sports"] = sports
	return []models.Recommendation{r}, nil
}

// infrastructureRecommendations raises one alert covering every nearby venue
// with open maintenance issues.
func (e *Engine) infrastructureRecommendations(_ context.Context, rc *requestContext) ([]models.Recommendation, error) {
	var venueIDs []string
	issues := 0
	for i := range rc.nearby {
		open := rc.nearby[i].Venue.Maintenance.OpenIssues()
		if len(open) == 0 {
			continue
		}
		venueIDs = append(venueIDs, rc.nearby[i].Venue.ID)
		issues += len(open)
	}
	if len(venueIDs) == 0 {
		return nil, nil
	}

	r := newRecommendation(rc, models.RecommendationInfrastructure, models.PriorityHigh, e.config.Infrastructure.Confidence)
	r.Title = "Maintenance issues nearby"
	r.Description = fmt.Sprintf("%d open issue(s) at %d venue(s) near you. Check conditions before you go.", issues, len(venueIDs))
	r.Impact = models.Impact{Community: 0.9}
	r.Payload["venue_ids"] = venueIDs
	r.Payload["issue_count"] = issues
	return []models.Recommendation{r}, nil
}

// economicRecommendations points at affordable nearby venues when some
// nearby venues exceed the user's budget.
func (e *Engine) economicRecommendations(_ context.Context, rc *requestContext) ([]models.Recommendation, error) {
	budget := rc.profile.Preferences.Budget.Max
	if budget <= 0 {
		return nil, nil
	}

	var affordable, expensive []string
	var cheapest, dearest float64
	for i := range rc.nearby {
		v := &rc.nearby[i].Venue
		rate := v.Pricing.HourlyRate
		if rate > budget {
			expensive = append(expensive, v.ID)
			dearest = max(dearest, rate)
			continue
		}
		if len(affordable) == 0 || rate < cheapest {
			cheapest = rate
		}
		affordable = append(affordable, v.ID)
	}
	if len(expensive) == 0 || len(affordable) == 0 {
		return nil, nil
	}

	r := newRecommendation(rc, models.RecommendationEconomic, models.PriorityMedium, e.config.Economic.Confidence)
	r.Title = "Save on court time"
	r.Description = fmt.Sprintf("%d venue(s) near you are within your $%.2f/hr budget.", len(affordable), budget)
	r.Impact = models.Impact{
		Revenue:    -(dearest - cheapest),
		Engagement: 0.5,
		Community:  0.3,
	}
	r.Payload["affordable_venue_ids"] = affordable
	r.Payload["over_budget_venue_ids"] = expensive
	r.Payload["budget_max"] = budget
	r.Payload["max_savings_per_hour"] = round2(dearest - cheapest)
	return []models.Recommendation{r}, nil
}
