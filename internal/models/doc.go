// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package models defines the data structures shared across Civitas.

Key Components:

  - Venue: a bookable recreation location with live sensor, weather,
    maintenance and pricing state
  - ChangeEvent: an added/modified/removed notification from the venue feed
  - UserProfile: per-user preferences, behavior and goals
  - EventCandidate and ActivityRecord: read-only inputs from external feeds
  - Recommendation: an immutable, scored suggestion for a user
  - CivicInsight: an aggregate trend metric produced each insight cycle
  - AnalyticsSummary: venue-wide aggregates used by the API and insights
  - APIResponse: the standard JSON envelope for every HTTP endpoint

Venue values are owned by the venue registry. Callers outside the registry
receive copies and must treat them as read-only.
*/
package models
