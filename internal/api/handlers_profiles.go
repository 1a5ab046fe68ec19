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

	"github.com/tomtom215/civitas/internal/models"
	"github.com/tomtom215/civitas/internal/profile"
)

// UpdateProfile handles PATCH /api/v1/profiles/{userID}. Absent fields are
// left unchanged; an update that changes nothing is rejected.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var update models.ProfileUpdate
	if apiErr := decodeJSONBody(w, r, &update); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	if update.Empty() {
		respondValidation(w, &models.APIError{Code: "VALIDATION_ERROR", Message: "no profile fields to update"})
		return
	}
	if apiErr := validateRequest(&update); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	updated, err := h.profiles.Update(r.Context(), chi.URLParam(r, "userID"), update)
	if errors.Is(err, profile.ErrNotFound) {
		respondError(w, http.StatusNotFound, "PROFILE_NOT_FOUND", "profile not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to update profile", err)
		return
	}
	respondSuccess(w, http.StatusOK, updated, nil, start)
}

// RecordActivity handles POST /api/v1/profiles/{userID}/activity. Recorded
// activity fills preferred time-of-day buckets for profiles that set none.
func (h *Handler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.activity == nil {
		respondError(w, http.StatusServiceUnavailable, "ACTIVITY_UNAVAILABLE", "activity log not configured", nil)
		return
	}
	var req models.ActivityReportRequest
	if apiErr := decodeJSONBody(w, r, &req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	userID := chi.URLParam(r, "userID")
	if _, err := h.profiles.Get(r.Context(), userID); err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			respondError(w, http.StatusNotFound, "PROFILE_NOT_FOUND", "profile not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load profile", err)
		return
	}

	rec := req.Record(userID, start)
	if err := h.activity.RecordActivity(r.Context(), rec); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to record activity", err)
		return
	}
	respondSuccess(w, http.StatusCreated, rec, nil, start)
}
