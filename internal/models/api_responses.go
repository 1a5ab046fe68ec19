// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package models

import (
	"time"
)

// APIResponse is the envelope returned by every HTTP endpoint.
//
// Status is "success" or "error". On error, Error carries a machine-readable
// code. Some errors still carry Data, for example a missing profile returns
// an empty recommendation list alongside PROFILE_NOT_FOUND so that clients can
// tell "no recommendations" apart from "unknown user".
//
//	{
//	  "status": "error",
//	  "data": [],
//	  "metadata": {"timestamp": "2026-05-01T12:00:00Z"},
//	  "error": {"code": "PROFILE_NOT_FOUND", "message": "profile not found"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response timing and cache information.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	Count       *int      `json:"count,omitempty"`
}

// APIError carries structured error details.
//
// Common codes: VALIDATION_ERROR, NOT_FOUND, PROFILE_NOT_FOUND,
// METHOD_NOT_ALLOWED, RATE_LIMIT_EXCEEDED, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is returned by the health endpoints.
type HealthStatus struct {
	Status        string     `json:"status"`
	Version       string     `json:"version"`
	VenuesLoaded  bool       `json:"venues_loaded"`
	Degraded      bool       `json:"degraded"`
	VenueCount    int        `json:"venue_count"`
	ProfileCount  int        `json:"profile_count"`
	Uptime        float64    `json:"uptime_seconds"`
	LastInsightAt *time.Time `json:"last_insight_at,omitempty"`
}

// ActivityReportRequest is the body of POST /api/v1/profiles/{userID}/activity.
// A missing At records the activity at the time of the request.
type ActivityReportRequest struct {
	Kind            string     `json:"kind" validate:"required,oneof=visit booking event training game"`
	VenueID         string     `json:"venue_id" validate:"omitempty,max=128"`
	EventID         string     `json:"event_id" validate:"omitempty,max=128"`
	Sport           string     `json:"sport" validate:"omitempty,max=64"`
	At              *time.Time `json:"at"`
	DurationMinutes float64    `json:"duration_minutes" validate:"gte=0,lte=1440"`
}

// Record converts the request into the stored record for userID.
func (r *ActivityReportRequest) Record(userID string, now time.Time) ActivityRecord {
	at := now
	if r.At != nil && !r.At.IsZero() {
		at = *r.At
	}
	return ActivityRecord{
		UserID:          userID,
		Kind:            r.Kind,
		VenueID:         r.VenueID,
		EventID:         r.EventID,
		Sport:           r.Sport,
		At:              at.UTC(),
		DurationMinutes: r.DurationMinutes,
	}
}

// IssueReportRequest is the body of POST /api/v1/venues/{venueID}/issues.
type IssueReportRequest struct {
	Type        string        `json:"type" validate:"required,oneof=equipment surface lighting plumbing safety hvac other"`
	Severity    IssueSeverity `json:"severity" validate:"required,oneof=low medium high critical"`
	Description string        `json:"description" validate:"required,min=3,max=1000"`
}
