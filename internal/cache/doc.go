// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package cache provides the in-memory structures Civitas uses to avoid repeated
work: a spatial hash grid for venue proximity lookups and a TTL cache for
upstream query results.

# Spatial Grid

SpatialGrid buckets coordinates into square cells of a fixed size in degrees.
A radius query visits only the cells that can contain a match and then
filters by great-circle distance in miles:

	grid := cache.NewSpatialGrid(0.05)
	grid.Insert("venue-1", geo.Coordinate{Lat: 40.71, Lon: -74.00})
	ids := grid.Nearby(geo.Coordinate{Lat: 40.72, Lon: -74.01}, 5)

# TTL Cache

TTL is a generic key/value cache with per-entry expiry. Expired entries are
dropped lazily on Get and in bulk by Cleanup, which callers schedule:

	c := cache.NewTTL[[]models.EventCandidate](time.Minute, clock)
	c.Set(key, events)
	if events, ok := c.Get(key); ok {
	    return events, nil
	}

Both types are safe for concurrent use.
*/
package cache
