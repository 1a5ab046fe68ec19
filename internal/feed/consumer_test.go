// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/civitas/internal/models"
)

type recordingApplier struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (r *recordingApplier) ApplyChange(ev models.ChangeEvent) (bool, error) {
	switch ev.ID() {
	case "stale":
		return false, nil
	case "":
		return false, errors.New("missing venue id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return true, nil
}

func (r *recordingApplier) applied() []models.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ChangeEvent(nil), r.events...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestConsumer_AppliesChanges(t *testing.T) {
	t.Parallel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	defer pubSub.Close()

	applier := &recordingApplier{}
	consumer := NewConsumer(pubSub, "venues.changes", applier)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	ts := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	events := []models.ChangeEvent{
		{Kind: models.ChangeAdded, Venue: &models.Venue{ID: "v-1", Name: "Court", Type: models.VenueTypeTennis}, Timestamp: ts},
		{Kind: models.ChangeModified, VenueID: "stale", Timestamp: ts},
		{Kind: models.ChangeRemoved, Timestamp: ts},
		{Kind: models.ChangeRemoved, VenueID: "v-2", Timestamp: ts},
	}
	for _, ev := range events {
		msg, err := NewChangeMessage(ev)
		if err != nil {
			t.Fatalf("NewChangeMessage() error = %v", err)
		}
		if err := pubSub.Publish("venues.changes", msg); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}
	if err := pubSub.Publish("venues.changes", message.NewMessage(watermill.NewUUID(), []byte("{not json"))); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitFor(t, func() bool { return consumer.Stats().Received == 5 })

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v, want nil after cancel", err)
	}

	stats := consumer.Stats()
	want := ConsumerStats{Received: 5, Applied: 2, Stale: 1, Rejected: 2}
	if stats != want {
		t.Errorf("Stats() = %+v, want %+v", stats, want)
	}

	got := applier.applied()
	if len(got) != 2 {
		t.Fatalf("applied %d events, want 2", len(got))
	}
	if got[0].Venue == nil || got[0].Venue.Name != "Court" {
		t.Errorf("first applied event venue = %+v, want Court", got[0].Venue)
	}
	if got[1].Kind != models.ChangeRemoved || got[1].VenueID != "v-2" {
		t.Errorf("second applied event = %+v, want removal of v-2", got[1])
	}
}

func TestNewChangeMessage_Metadata(t *testing.T) {
	t.Parallel()

	msg, err := NewChangeMessage(models.ChangeEvent{Kind: models.ChangeModified, VenueID: "v-9"})
	if err != nil {
		t.Fatalf("NewChangeMessage() error = %v", err)
	}
	if got := msg.Metadata.Get("venue_id"); got != "v-9" {
		t.Errorf("venue_id metadata = %q, want v-9", got)
	}
	if got := msg.Metadata.Get("kind"); got != "modified" {
		t.Errorf("kind metadata = %q, want modified", got)
	}
}
