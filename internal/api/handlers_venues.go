// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/civitas/internal/geo"
	"github.com/tomtom215/civitas/internal/models"
	"github.com/tomtom215/civitas/internal/venue"
)

// VenueQuery is the validated form of the GET /api/v1/venues query string.
type VenueQuery struct {
	Sports       []string `query:"sport" validate:"omitempty,dive,venuetype"`
	Amenities    []string `query:"amenity" validate:"omitempty,dive,max=64"`
	Availability string   `query:"availability" validate:"availability"`
	MinPrice     *float64 `query:"min_price" validate:"omitempty,gte=0"`
	MaxPrice     *float64 `query:"max_price" validate:"omitempty,gte=0"`
	MaxDistance  *float64 `query:"max_distance" validate:"omitempty,gt=0,lte=500"`
	Lat          *float64 `query:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon          *float64 `query:"lon" validate:"omitempty,gte=-180,lte=180"`
}

func parseVenueQuery(r *http.Request) (VenueQuery, *models.APIError) {
	q := VenueQuery{
		Sports:       parseCommaSeparated(r, "sport"),
		Amenities:    parseCommaSeparated(r, "amenity"),
		Availability: r.URL.Query().Get("availability"),
	}
	floats := []struct {
		key string
		dst **float64
	}{
		{"min_price", &q.MinPrice},
		{"max_price", &q.MaxPrice},
		{"max_distance", &q.MaxDistance},
		{"lat", &q.Lat},
		{"lon", &q.Lon},
	}
	for _, f := range floats {
		v, apiErr := parseFloatParam(r, f.key)
		if apiErr != nil {
			return VenueQuery{}, apiErr
		}
		*f.dst = v
	}

	if (q.Lat == nil) != (q.Lon == nil) {
		return VenueQuery{}, paramError("lat", "lat and lon must be given together")
	}
	if apiErr := validateRequest(&q); apiErr != nil {
		return VenueQuery{}, apiErr
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return VenueQuery{}, paramError("min_price", "must not exceed max_price")
	}
	return q, nil
}

// Criteria converts the query to registry filter criteria.
func (q *VenueQuery) Criteria() venue.FilterCriteria {
	c := venue.FilterCriteria{
		Amenities:    q.Amenities,
		Availability: q.Availability,
		MinPrice:     q.MinPrice,
		MaxPrice:     q.MaxPrice,
		MaxDistance:  q.MaxDistance,
	}
	for _, s := range q.Sports {
		c.SportTypes = append(c.SportTypes, models.VenueType(s))
	}
	if q.Lat != nil {
		c.UserLocation = &geo.Coordinate{Lat: *q.Lat, Lon: *q.Lon}
	}
	return c
}

// Venues handles GET /api/v1/venues.
func (h *Handler) Venues(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q, apiErr := parseVenueQuery(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	venues := h.venues.Filter(q.Criteria())
	if venues == nil {
		venues = []models.Venue{}
	}
	respondSuccess(w, http.StatusOK, venues, intPtr(len(venues)), start)
}

// Venue handles GET /api/v1/venues/{venueID}.
func (h *Handler) Venue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	v, err := h.venues.Get(chi.URLParam(r, "venueID"))
	if errors.Is(err, venue.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "venue not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load venue", err)
		return
	}
	respondSuccess(w, http.StatusOK, v, nil, start)
}

// ReportIssue handles POST /api/v1/venues/{venueID}/issues.
func (h *Handler) ReportIssue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req models.IssueReportRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	issue, err := h.venues.ReportIssue(chi.URLParam(r, "venueID"), req)
	if errors.Is(err, venue.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "venue not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to record issue", err)
		return
	}
	respondSuccess(w, http.StatusCreated, issue, nil, start)
}

// ResolveIssue handles POST /api/v1/venues/{venueID}/issues/{issueID}/resolve.
func (h *Handler) ResolveIssue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	issue, err := h.venues.ResolveIssue(chi.URLParam(r, "venueID"), chi.URLParam(r, "issueID"))
	switch {
	case errors.Is(err, venue.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "venue not found", nil)
		return
	case errors.Is(err, venue.ErrIssueNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "maintenance issue not found", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to resolve issue", err)
		return
	}
	respondSuccess(w, http.StatusOK, issue, nil, start)
}
