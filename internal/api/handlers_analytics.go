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

// Analytics handles GET /api/v1/analytics.
func (h *Handler) Analytics(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	respondSuccess(w, http.StatusOK, h.venues.Analytics(), nil, start)
}

// Insights handles GET /api/v1/insights. Before the first cycle the list is empty.
func (h *Handler) Insights(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	insights := []models.CivicInsight{}
	if h.insights != nil {
		if current := h.insights.Insights(); current != nil {
			insights = current
		}
	}
	respondSuccess(w, http.StatusOK, insights, intPtr(len(insights)), start)
}
