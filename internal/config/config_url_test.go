// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package config

import (
	"strings"
	"testing"
)

func TestURLRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		check   func(string) error
		raw     string
		wantErr string
	}{
		{"weather base", func(s string) error { return validateHTTPURL(s, "WEATHER_BASE_URL") }, "https://api.openweathermap.org", ""},
		{"weather trailing slash", func(s string) error { return validateHTTPURL(s, "WEATHER_BASE_URL") }, "https://api.openweathermap.org/", ""},
		{"weather path", func(s string) error { return validateHTTPURL(s, "WEATHER_BASE_URL") }, "https://api.openweathermap.org/data", "remove path"},
		{"weather query", func(s string) error { return validateHTTPURL(s, "WEATHER_BASE_URL") }, "https://api.openweathermap.org?appid=x", "query"},
		{"events path allowed", func(s string) error { return validateServiceURL(s, "EVENTS_URL") }, "http://scheduling:8080/api/events", ""},
		{"events ftp", func(s string) error { return validateServiceURL(s, "EVENTS_URL") }, "ftp://scheduling", "scheme"},
		{"events no host", func(s string) error { return validateServiceURL(s, "EVENTS_URL") }, "http://", "host is required"},
		{"nats", validateNATSURL, "nats://nats:4222", ""},
		{"nats tls", validateNATSURL, "tls://nats:4222", ""},
		{"nats http", validateNATSURL, "http://nats:4222", "NATS_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.check(tt.raw)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("check(%q) = %v, want nil", tt.raw, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("check(%q) = %v, want error containing %q", tt.raw, err, tt.wantErr)
			}
		})
	}
}
