// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/models"
	"github.com/tomtom215/civitas/internal/validation"
)

const maxBodyBytes = 64 << 10

// sanitizeLogValue escapes control characters so request input cannot forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON writes response with status.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess wraps data in a success envelope. Slices get a count.
func respondSuccess(w http.ResponseWriter, status int, data interface{}, count *int, start time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Count:       count,
		},
	})
}

// generateETag is an FNV-1a hash of the body.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondError writes an error envelope with nil data.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	respondErrorWithData(w, status, code, message, nil, err)
}

func respondErrorWithData(w http.ResponseWriter, status int, code, message string, data interface{}, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondValidation writes a 400 VALIDATION_ERROR with field details.
func respondValidation(w http.ResponseWriter, apiErr *models.APIError) {
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    apiErr,
	})
}

// validateRequest runs go-playground/validator over v.
func validateRequest(v interface{}) *models.APIError {
	if errs := validation.Check(v); errs != nil {
		return errs.APIError()
	}
	return nil
}

// paramError builds a VALIDATION_ERROR for a malformed query parameter.
func paramError(name, reason string) *models.APIError {
	return &models.APIError{
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("invalid %s: %s", name, reason),
		Details: map[string]interface{}{"field": name},
	}
}

// parseFloatParam returns nil when the parameter is absent.
func parseFloatParam(r *http.Request, key string) (*float64, *models.APIError) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, paramError(key, "must be a number")
	}
	return &v, nil
}

// parseCommaSeparated collects a repeatable, comma separated query parameter.
func parseCommaSeparated(r *http.Request, key string) []string {
	var out []string
	for _, value := range r.URL.Query()[key] {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// decodeJSONBody decodes a size-limited JSON body into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) *models.APIError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return &models.APIError{Code: "VALIDATION_ERROR", Message: "request body too large"}
		case errors.Is(err, io.EOF):
			return &models.APIError{Code: "VALIDATION_ERROR", Message: "request body is required"}
		default:
			return &models.APIError{Code: "VALIDATION_ERROR", Message: "malformed JSON body"}
		}
	}
	return nil
}

func intPtr(n int) *int { return &n }
