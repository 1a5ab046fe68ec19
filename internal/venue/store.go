// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package venue

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/civitas/internal/models"
)

// Store is the external venue source used for the startup bulk load.
type Store interface {
	LoadAll(ctx context.Context) ([]models.Venue, error)
}

// FileStore reads venues from a JSON array on disk.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// LoadAll reads and decodes the file.
func (s *FileStore) LoadAll(ctx context.Context) ([]models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read venue file %s: %w", s.path, err)
	}
	var venues []models.Venue
	if err := json.Unmarshal(data, &venues); err != nil {
		return nil, fmt.Errorf("decode venue file %s: %w", s.path, err)
	}
	return venues, nil
}

// StaticStore serves a fixed venue list.
type StaticStore []models.Venue

// LoadAll returns copies of the list.
func (s StaticStore) LoadAll(_ context.Context) ([]models.Venue, error) {
	out := make([]models.Venue, len(s))
	for i := range s {
		out[i] = s[i].Clone()
	}
	return out, nil
}
