// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package profile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/metrics"
	"github.com/tomtom215/civitas/internal/models"
)

// ErrNotFound is returned when no profile exists for an id.
var ErrNotFound = errors.New("profile not found")

// Source is the external profile system.
type Source interface {
	LoadProfiles(ctx context.Context) ([]models.UserProfile, error)
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (models.UserProfile, error)
}

// Getter is implemented by sources that can fetch a single profile. The
// store uses it to load profiles it has not seen yet.
type Getter interface {
	GetProfile(ctx context.Context, id string) (models.UserProfile, error)
}

// Store is the in-memory profile mirror.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]models.UserProfile
	source   Source
	logger   zerolog.Logger
}

// NewStore creates an empty store backed by source.
func NewStore(source Source) *Store {
	return &Store{
		profiles: make(map[string]models.UserProfile),
		source:   source,
		logger:   logging.WithComponent("profile-store"),
	}
}

// Load replaces the in-memory set with the source's profiles.
func (s *Store) Load(ctx context.Context) (int, error) {
	profiles, err := s.source.LoadProfiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("load profiles: %w", err)
	}

	next := make(map[string]models.UserProfile, len(profiles))
	for i := range profiles {
		if profiles[i].ID == "" {
			continue
		}
		next[profiles[i].ID] = profiles[i].Clone()
	}

	s.mu.Lock()
	s.profiles = next
	s.mu.Unlock()

	metrics.ProfilesLoaded.Set(float64(len(next)))
	s.logger.Info().Int("profiles", len(next)).Msg("Profiles loaded")
	return len(next), nil
}

// Get returns a copy of the profile for id. Profiles not yet in memory are
// fetched from the source when it supports single lookups.
func (s *Store) Get(ctx context.Context, id string) (models.UserProfile, error) {
	s.mu.RLock()
	p, ok := s.profiles[id]
	s.mu.RUnlock()
	if ok {
		return p.Clone(), nil
	}

	getter, ok := s.source.(Getter)
	if !ok {
		return models.UserProfile{}, ErrNotFound
	}
	p, err := getter.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.UserProfile{}, ErrNotFound
		}
		return models.UserProfile{}, fmt.Errorf("fetch profile %s: %w", id, err)
	}

	s.mu.Lock()
	s.profiles[id] = p.Clone()
	count := len(s.profiles)
	s.mu.Unlock()
	metrics.ProfilesLoaded.Set(float64(count))
	return p, nil
}

// Update applies a partial update through the source and stores the result.
func (s *Store) Update(ctx context.Context, id string, update models.ProfileUpdate) (models.UserProfile, error) {
	p, err := s.source.UpdateProfile(ctx, id, update)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.UserProfile{}, ErrNotFound
		}
		return models.UserProfile{}, fmt.Errorf("update profile %s: %w", id, err)
	}

	s.mu.Lock()
	s.profiles[id] = p.Clone()
	s.mu.Unlock()

	s.logger.Debug().Str("user_id", id).Msg("Profile updated")
	return p, nil
}

// All returns copies of every profile ordered by id.
func (s *Store) All() []models.UserProfile {
	s.mu.RLock()
	out := make([]models.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of profiles in memory.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// SeedFromFile imports profiles from a JSON array into dst, skipping ids
// that already exist. It returns the number imported.
func SeedFromFile(ctx context.Context, dst *BadgerSource, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read profile seed %s: %w", path, err)
	}
	var profiles []models.UserProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return 0, fmt.Errorf("decode profile seed %s: %w", path, err)
	}

	imported := 0
	for i := range profiles {
		if profiles[i].ID == "" {
			continue
		}
		if _, err := dst.GetProfile(ctx, profiles[i].ID); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return imported, err
		}
		if err := dst.PutProfile(ctx, profiles[i]); err != nil {
			return imported, fmt.Errorf("store profile %s: %w", profiles[i].ID, err)
		}
		imported++
	}
	return imported, nil
}

// MemorySource is an in-process Source for tests and demos.
type MemorySource struct {
	mu       sync.Mutex
	profiles map[string]models.UserProfile
}

// NewMemorySource creates a source holding profiles.
func NewMemorySource(profiles ...models.UserProfile) *MemorySource {
	m := &MemorySource{profiles: make(map[string]models.UserProfile, len(profiles))}
	for i := range profiles {
		m.profiles[profiles[i].ID] = profiles[i].Clone()
	}
	return m
}

// LoadProfiles returns copies of every profile.
func (m *MemorySource) LoadProfiles(_ context.Context) ([]models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.UserProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p.Clone())
	}
	return out, nil
}

// UpdateProfile merges update into the stored profile.
func (m *MemorySource) UpdateProfile(_ context.Context, id string, update models.ProfileUpdate) (models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return models.UserProfile{}, ErrNotFound
	}
	update.Apply(&p)
	m.profiles[id] = p
	return p.Clone(), nil
}
