// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package cache

import (
	"math"
	"sort"
	"sync"

	"github.com/tomtom215/civitas/internal/geo"
)

// milesPerDegree is the approximate length of one degree of latitude.
const milesPerDegree = 69.0

// DefaultCellSize is the cell edge in degrees used when none is given.
const DefaultCellSize = 0.05

// SpatialGrid divides the globe into cells for radius queries.
//
// Time Complexity:
//   - Insert: O(1)
//   - Remove: O(1) amortized
//   - Nearby: O(k) where k = entries in the visited cells
type SpatialGrid struct {
	mu       sync.RWMutex
	cells    map[CellKey][]string
	entries  map[string]gridEntry
	cellSize float64
}

// CellKey is a grid cell coordinate.
type CellKey struct {
	X, Y int
}

type gridEntry struct {
	coord geo.Coordinate
	cell  CellKey
}

// Match is one result of a radius query.
type Match struct {
	ID       string
	Distance float64
}

// NewSpatialGrid creates a grid with cells cellSizeDeg degrees on a side.
func NewSpatialGrid(cellSizeDeg float64) *SpatialGrid {
	if cellSizeDeg <= 0 {
		cellSizeDeg = DefaultCellSize
	}
	return &SpatialGrid{
		cells:    make(map[CellKey][]string),
		entries:  make(map[string]gridEntry),
		cellSize: cellSizeDeg,
	}
}

func (g *SpatialGrid) cellKey(c geo.Coordinate) CellKey {
	return CellKey{X: g.cellX(c.Lon), Y: int(math.Floor(c.Lat / g.cellSize))}
}

func (g *SpatialGrid) cellX(lon float64) int {
	return int(math.Floor(normalizeLon(lon) / g.cellSize))
}

// normalizeLon maps lon into [-180, 180).
func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// xRange is an inclusive run of cell columns.
type xRange struct{ from, to int }

// columns returns the cell columns covering center.Lon +/- lonDeg. A span
// across the antimeridian is split in two; a span of half the globe or more
// covers every column.
func (g *SpatialGrid) columns(lon, lonDeg float64) []xRange {
	minX := g.cellX(-180)
	maxX := g.cellX(math.Nextafter(180, 0))
	if lonDeg >= 180 {
		return []xRange{{minX, maxX}}
	}
	lon = normalizeLon(lon)
	lo, hi := lon-lonDeg, lon+lonDeg
	if lo < -180 || hi >= 180 {
		return []xRange{{g.cellX(lo), maxX}, {minX, g.cellX(hi)}}
	}
	return []xRange{{g.cellX(lo), g.cellX(hi)}}
}

// Insert adds or moves id to coord.
func (g *SpatialGrid) Insert(id string, coord geo.Coordinate) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.entries[id]; ok {
		g.removeFromCellLocked(id, existing.cell)
	}
	key := g.cellKey(coord)
	g.cells[key] = append(g.cells[key], id)
	g.entries[id] = gridEntry{coord: coord, cell: key}
}

// Remove deletes id. It reports whether id was present.
func (g *SpatialGrid) Remove(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.entries[id]
	if !ok {
		return false
	}
	g.removeFromCellLocked(id, entry.cell)
	delete(g.entries, id)
	return true
}

// removeFromCellLocked removes id from its cell (caller must hold lock).
func (g *SpatialGrid) removeFromCellLocked(id string, key CellKey) {
	ids := g.cells[key]
	for i, other := range ids {
		if other == id {
			ids[i] = ids[len(ids)-1]
			ids = ids[:len(ids)-1]
			break
		}
	}
	if len(ids) == 0 {
		delete(g.cells, key)
		return
	}
	g.cells[key] = ids
}

// Nearby returns every id within radius miles of center, nearest first.
// Ties are broken by id.
func (g *SpatialGrid) Nearby(center geo.Coordinate, radius float64) []Match {
	if radius < 0 {
		return nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	latDeg := radius/milesPerDegree + g.cellSize
	yFrom := int(math.Floor(math.Max(center.Lat-latDeg, -90) / g.cellSize))
	yTo := int(math.Floor(math.Min(center.Lat+latDeg, 90) / g.cellSize))
	// Longitude degrees shrink toward the poles, so the span is sized at
	// the poleward edge of the searched rows. Near a pole every column is
	// searched.
	lonDeg := 180.0
	edgeLat := math.Min(math.Abs(center.Lat)+latDeg, 90)
	if cosLat := math.Cos(edgeLat * math.Pi / 180); cosLat > 0.01 {
		lonDeg = radius/(milesPerDegree*cosLat) + g.cellSize
	}

	var results []Match
	for _, cols := range g.columns(center.Lon, lonDeg) {
		for x := cols.from; x <= cols.to; x++ {
			for y := yFrom; y <= yTo; y++ {
				for _, id := range g.cells[CellKey{X: x, Y: y}] {
					d := geo.Distance(center, g.entries[id].coord)
					if d <= radius {
						results = append(results, Match{ID: id, Distance: d})
					}
				}
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	return results
}

// Len returns the number of indexed ids.
func (g *SpatialGrid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// NumCells returns the number of non-empty cells.
func (g *SpatialGrid) NumCells() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cells)
}

// Clear removes all entries.
func (g *SpatialGrid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells = make(map[CellKey][]string)
	g.entries = make(map[string]gridEntry)
}
