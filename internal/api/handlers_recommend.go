// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/civitas/internal/geo"
	"github.com/tomtom215/civitas/internal/models"
	"github.com/tomtom215/civitas/internal/recommend"
)

// situationQuery holds the optional situational overrides for a request.
type situationQuery struct {
	Lat           *float64 `query:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon           *float64 `query:"lon" validate:"omitempty,gte=-180,lte=180"`
	Precipitation *float64 `query:"precipitation" validate:"omitempty,gte=0"`
}

// Recommendations handles GET /api/v1/recommendations/{userID}.
//
// Query parameters (all optional):
//   - lat, lon: current location, both or neither
//   - precipitation: amount over the last hour, on the same scale as venue
//     weather (inches for imperial units, millimetres otherwise)
//   - at: RFC3339 time used for scheduling heuristics
//
// An unknown user is a 404 with code PROFILE_NOT_FOUND and an empty data list.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		respondValidation(w, paramError("userID", "must not be empty"))
		return
	}

	sit, apiErr := parseSituation(r)
	if apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	recs, err := h.engine.Recommend(r.Context(), userID, sit)
	switch {
	case errors.Is(err, recommend.ErrProfileNotFound):
		respondErrorWithData(w, http.StatusNotFound, "PROFILE_NOT_FOUND",
			"profile not found", []models.Recommendation{}, nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to generate recommendations", err)
		return
	}

	if recs == nil {
		recs = []models.Recommendation{}
	}
	respondSuccess(w, http.StatusOK, recs, intPtr(len(recs)), start)
}

func parseSituation(r *http.Request) (recommend.Situation, *models.APIError) {
	var q situationQuery
	var apiErr *models.APIError
	if q.Lat, apiErr = parseFloatParam(r, "lat"); apiErr != nil {
		return recommend.Situation{}, apiErr
	}
	if q.Lon, apiErr = parseFloatParam(r, "lon"); apiErr != nil {
		return recommend.Situation{}, apiErr
	}
	if q.Precipitation, apiErr = parseFloatParam(r, "precipitation"); apiErr != nil {
		return recommend.Situation{}, apiErr
	}
	if (q.Lat == nil) != (q.Lon == nil) {
		return recommend.Situation{}, paramError("lat", "lat and lon must be given together")
	}
	if apiErr = validateRequest(&q); apiErr != nil {
		return recommend.Situation{}, apiErr
	}

	sit := recommend.Situation{Precipitation: q.Precipitation}
	if q.Lat != nil {
		sit.Location = &geo.Coordinate{Lat: *q.Lat, Lon: *q.Lon}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("at")); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return recommend.Situation{}, paramError("at", "must be an RFC3339 timestamp")
		}
		sit.At = at
	}
	return sit, nil
}
