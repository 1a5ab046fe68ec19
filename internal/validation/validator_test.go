// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/civitas/internal/geo"
	"github.com/tomtom215/civitas/internal/models"
)

type venueFilter struct {
	Types        []string `query:"type" validate:"omitempty,dive,venuetype"`
	Availability string   `query:"availability" validate:"availability"`
	MaxPrice     *float64 `query:"max_price" validate:"omitempty,gte=0"`
}

func ptr[T any](v T) *T { return &v }

func TestValidator_Shared(t *testing.T) {
	t.Parallel()
	if Validator() != Validator() {
		t.Error("Validator() returned different instances")
	}
}

func TestCheck_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   interface{}
	}{
		{"empty filter", &venueFilter{}},
		{"full filter", &venueFilter{Types: []string{"gym", "multi-purpose"}, Availability: "available", MaxPrice: ptr(20.0)}},
		{"issue report", &models.IssueReportRequest{Type: "lighting", Severity: models.IssueSeverityHigh, Description: "Court 2 lights flicker"}},
		{"profile update", &models.ProfileUpdate{
			Sports:       ptr([]string{"soccer"}),
			SkillLevel:   ptr("intermediate"),
			SearchRadius: ptr(10.0),
			Availability: ptr([]models.AvailabilityWindow{{Day: 1, StartHour: 18, EndHour: 21}}),
		}},
		{"coordinate", &geo.Coordinate{Lat: 40.7, Lon: -74}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if errs := Check(tt.in); errs != nil {
				t.Errorf("Check() = %v, want nil", errs)
			}
		})
	}
}

func TestCheck_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        interface{}
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{
			name:      "unknown venue type",
			in:        &venueFilter{Types: []string{"ice-rink"}},
			wantField: "type[0]",
			wantTag:   "venuetype",
			wantMsg:   "must be a known venue type",
		},
		{
			name:      "bad availability",
			in:        &venueFilter{Availability: "maybe"},
			wantField: "availability",
			wantTag:   "availability",
			wantMsg:   "must be available or full",
		},
		{
			name:      "negative price",
			in:        &venueFilter{MaxPrice: ptr(-1.0)},
			wantField: "max_price",
			wantTag:   "gte",
			wantMsg:   "max_price must be greater than or equal to 0",
		},
		{
			name:      "short description",
			in:        &models.IssueReportRequest{Type: "other", Severity: models.IssueSeverityLow, Description: "no"},
			wantField: "description",
			wantTag:   "min",
			wantMsg:   "description must be at least 3 characters",
		},
		{
			name:      "unknown skill",
			in:        &models.ProfileUpdate{SkillLevel: ptr("legendary")},
			wantField: "skill_level",
			wantTag:   "oneof",
			wantMsg:   "must be one of",
		},
		{
			name:      "latitude out of range",
			in:        &geo.Coordinate{Lat: 91},
			wantField: "lat",
			wantTag:   "max",
			wantMsg:   "lat must be at most 90",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			errs := Check(tt.in)
			if len(errs) != 1 {
				t.Fatalf("len(Check()) = %d, want 1 (%v)", len(errs), errs)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.wantField)
			}
			if errs[0].Rule != tt.wantTag {
				t.Errorf("Rule = %q, want %q", errs[0].Rule, tt.wantTag)
			}
			if !strings.Contains(errs[0].Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want to contain %q", errs[0].Error(), tt.wantMsg)
			}
		})
	}
}

func TestErrors_APIError(t *testing.T) {
	t.Parallel()

	apiErr := Check(&venueFilter{Availability: "maybe"}).APIError()
	if apiErr.Code != CodeValidation {
		t.Errorf("Code = %q, want %s", apiErr.Code, CodeValidation)
	}
	if apiErr.Details["field"] != "availability" || apiErr.Details["rule"] != "availability" {
		t.Errorf("Details = %v, want field and rule availability", apiErr.Details)
	}

	apiErr = Check(&models.IssueReportRequest{}).APIError()
	fields, ok := apiErr.Details["fields"].([]FieldError)
	if !ok {
		t.Fatalf("Details[fields] has type %T, want []FieldError", apiErr.Details["fields"])
	}
	if len(fields) != 3 {
		t.Errorf("len(fields) = %d, want 3", len(fields))
	}
	if !strings.Contains(apiErr.Message, "type is required") {
		t.Errorf("Message = %q, want to mention type is required", apiErr.Message)
	}
}

func TestErrors_Empty(t *testing.T) {
	t.Parallel()

	var errs Errors
	if errs.Error() != "validation failed" {
		t.Errorf("Error() = %q, want %q", errs.Error(), "validation failed")
	}
	if got := errs.APIError(); got.Message != "Validation failed" || got.Details != nil {
		t.Errorf("APIError() = %+v, want generic message without details", got)
	}
}

func TestCheck_NotAStruct(t *testing.T) {
	t.Parallel()

	errs := Check(42)
	if len(errs) != 1 || errs[0].Rule != "invalid" {
		t.Errorf("Check(42) = %v, want one invalid error", errs)
	}
}
