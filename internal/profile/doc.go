// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package profile holds user profiles in memory and persists them through a
// pluggable Source.
//
// The production Source is BadgerSource, which also keeps the per-user
// recent-activity log with a retention TTL. Profiles are never deleted here;
// their lifecycle belongs to the external profile system.
package profile
