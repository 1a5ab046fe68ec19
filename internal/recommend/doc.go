// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package recommend produces ranked, multi-category recommendations for a user.
//
// # Generators
//
// Six rule-based generators run concurrently for every request:
//
//   - Venue: nearby underutilized venues for preferred sports, plus indoor
//     venues when precipitation is high
//   - Event: upcoming events scored on sport, time-of-day and budget fit
//   - Training: one recommendation per skill goal
//   - Social: players nearby who share a sport
//   - Infrastructure: nearby venues with open maintenance issues
//   - Economic: affordable alternatives to nearby venues over budget
//
// Outputs are concatenated and sorted by priority rank, then confidence.
// A generator that fails or times out contributes nothing; the rest of the
// list is unaffected. A missing profile fails the whole request with
// ErrProfileNotFound and an empty list.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), recommend.Deps{
//	    Venues:   registry,
//	    Profiles: profiles,
//	    Events:   events,
//	})
//	recs, err := engine.Recommend(ctx, "user-1", recommend.Situation{})
//
// # Thread Safety
//
// The engine holds no per-request state and is safe for concurrent use. The
// last list produced for each user is cached and replaced, never merged.
package recommend
