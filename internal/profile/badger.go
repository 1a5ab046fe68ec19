// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	profileKeyPrefix  = "profile:"
	activityKeyPrefix = "activity:"
)

// OpenDB opens a badger database at path, or an in-memory one.
func OpenDB(path string, inMemory bool) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{logger: logging.WithComponent("badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return db, nil
}

// badgerLogger routes badger's logging through zerolog. Badger is chatty at
// info level, so info lines are logged at debug.
type badgerLogger struct {
	logger zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Trace().Msgf(strings.TrimSpace(format), args...)
}

// BadgerSource implements Source and the activity log on BadgerDB.
type BadgerSource struct {
	db        *badger.DB
	retention time.Duration
	now       func() time.Time
}

// NewBadgerSource wraps db. Activity records expire after retention; zero
// keeps them forever.
func NewBadgerSource(db *badger.DB, retention time.Duration) *BadgerSource {
	return &BadgerSource{db: db, retention: retention, now: time.Now}
}

func profileKey(id string) []byte {
	return []byte(profileKeyPrefix + id)
}

// activityKey sorts by time within a user. Nanoseconds are zero-padded so
// that byte order matches time order.
func activityKey(userID string, at time.Time) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", activityKeyPrefix, userID, at.UnixNano()))
}

// LoadProfiles returns every stored profile.
func (s *BadgerSource) LoadProfiles(ctx context.Context) ([]models.UserProfile, error) {
	var profiles []models.UserProfile

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(profileKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var p models.UserProfile
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return fmt.Errorf("decode profile %s: %w", it.Item().Key(), err)
			}
			profiles = append(profiles, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return profiles, nil
}

// GetProfile returns one profile or ErrNotFound.
func (s *BadgerSource) GetProfile(_ context.Context, id string) (models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	return p, err
}

// PutProfile stores p, replacing any existing record.
func (s *BadgerSource) PutProfile(_ context.Context, p models.UserProfile) error {
	data, err := json.Marshal(&p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(profileKey(p.ID), data)
	})
}

// UpdateProfile applies a partial update inside one transaction.
func (s *BadgerSource) UpdateProfile(_ context.Context, id string, update models.ProfileUpdate) (models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		}); err != nil {
			return fmt.Errorf("unmarshal profile: %w", err)
		}

		update.Apply(&p)
		p.UpdatedAt = s.now()

		data, err := json.Marshal(&p)
		if err != nil {
			return fmt.Errorf("marshal profile: %w", err)
		}
		return txn.Set(profileKey(id), data)
	})
	if err != nil {
		return models.UserProfile{}, err
	}
	return p, nil
}

// RecordActivity appends one activity record.
func (s *BadgerSource) RecordActivity(_ context.Context, rec models.ActivityRecord) error {
	if rec.UserID == "" {
		return errors.New("activity record has no user id")
	}
	if rec.At.IsZero() {
		rec.At = s.now()
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(activityKey(rec.UserID, rec.At), data)
		if s.retention > 0 {
			e = e.WithTTL(s.retention)
		}
		return txn.SetEntry(e)
	})
}

// RecentActivity returns up to limit records for userID, newest first.
func (s *BadgerSource) RecentActivity(ctx context.Context, userID string, limit int) ([]models.ActivityRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	records := make([]models.ActivityRecord, 0, limit)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchSize = limit
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(activityKeyPrefix + userID + ":")
		// In reverse mode Seek lands on the last key <= the seek key.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(records) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec models.ActivityRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read activity for %s: %w", userID, err)
	}
	return records, nil
}

// Count returns the number of stored profiles.
func (s *BadgerSource) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(profileKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
