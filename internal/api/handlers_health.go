// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/civitas/internal/models"
)

// HealthLive reports that the process is up, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// HealthReady returns 200 once the venue registry finished its initial load,
// including a degraded start with no venues. It returns 503 before that.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	status := h.healthStatus()
	code := http.StatusOK
	if !status.VenuesLoaded && !status.Degraded {
		status.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, &models.APIResponse{
		Status:   status.Status,
		Data:     status,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

func (h *Handler) healthStatus() models.HealthStatus {
	status := models.HealthStatus{
		Status:       "ready",
		Version:      h.version,
		VenuesLoaded: h.venues.Loaded(),
		Degraded:     h.venues.Degraded(),
		VenueCount:   h.venues.Len(),
		Uptime:       time.Since(h.startTime).Seconds(),
	}
	if status.Degraded {
		status.Status = "degraded"
	}
	if h.profiles != nil {
		status.ProfileCount = h.profiles.Len()
	}
	if h.insights != nil {
		if at, ok := h.insights.LastGenerated(); ok {
			status.LastInsightAt = &at
		}
	}
	return status
}
