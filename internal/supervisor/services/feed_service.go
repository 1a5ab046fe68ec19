// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package services

import (
	"context"
	"errors"
	"fmt"
)

// errFeedStopped is returned when a runner exits while its context is live.
var errFeedStopped = errors.New("feed consumer stopped")

// Runner blocks until ctx is canceled or the underlying stream fails.
// Satisfied by *feed.Consumer.
type Runner interface {
	Run(ctx context.Context) error
}

// FeedService supervises the venue change feed consumer.
//
// Any exit while the context is still live is reported as a failure so the
// supervisor resubscribes with backoff.
type FeedService struct {
	runner Runner
	name   string
}

// NewFeedService wraps runner.
func NewFeedService(runner Runner) *FeedService {
	return &FeedService{runner: runner, name: "venue-feed"}
}

// Serve implements suture.Service.
func (s *FeedService) Serve(ctx context.Context) error {
	err := s.runner.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		return errFeedStopped
	}
	return fmt.Errorf("%w: %w", errFeedStopped, err)
}

// String implements fmt.Stringer for suture log lines.
func (s *FeedService) String() string { return s.name }
