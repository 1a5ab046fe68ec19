// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package config

import (
	"fmt"
	"net/url"
	"slices"
)

var (
	httpSchemes = []string{"http", "https"}
	natsSchemes = []string{"nats", "tls", "ws", "wss"}
)

// urlRule describes what an upstream URL setting may contain.
type urlRule struct {
	schemes  []string
	baseOnly bool // no path beyond "/" and no query
}

// check parses raw and applies the rule. field is the environment variable
// name shown to operators.
func (r urlRule) check(raw, field string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid URL: %w", field, err)
	}
	if !slices.Contains(r.schemes, u.Scheme) {
		return fmt.Errorf("%s: scheme must be one of %v, got %q", field, r.schemes, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: host is required", field)
	}
	if !r.baseOnly {
		return nil
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("%s: base URL only, remove path %q", field, u.Path)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s: remove query parameters ?%s", field, u.RawQuery)
	}
	return nil
}

func validateHTTPURL(raw, field string) error {
	return urlRule{schemes: httpSchemes, baseOnly: true}.check(raw, field)
}

func validateServiceURL(raw, field string) error {
	return urlRule{schemes: httpSchemes}.check(raw, field)
}

func validateNATSURL(raw string) error {
	return urlRule{schemes: natsSchemes}.check(raw, "NATS_URL")
}
