// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package main is the entry point for the Civitas server.
//
// Civitas tracks municipal recreation venues, keeps their live sensor and
// weather state fresh, and serves personalized recommendations and
// operational insights over HTTP.
//
// # Startup Order
//
//  1. Configuration: defaults, optional config.yaml, then environment (Koanf v2)
//  2. Venue registry: bulk load from the seed file, degraded on failure
//  3. Profile store: BadgerDB, optional JSON seed
//  4. Event feed: scheduling API, static file, or none
//  5. Recommendation engine and insight generator
//  6. Venue change feed (optional): NATS via Watermill
//  7. HTTP server and supervisor tree
//
// # Example Usage
//
//	export VENUES_SEED_FILE=./testdata/venues.json
//	export PROFILES_IN_MEMORY=true
//	./civitas
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor stops every
// service, the HTTP server drains in-flight requests, and the profile
// database is closed.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/civitas/internal/app"
	"github.com/tomtom215/civitas/internal/config"
	"github.com/tomtom215/civitas/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Caller:  cfg.Logging.Caller,
		Version: version,
	})
	logging.Info().Str("version", version).Msg("Starting Civitas")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	application := app.New(cfg, version, nil)
	if err := application.Initialize(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}

	runErr := application.Run(ctx)
	if err := application.Shutdown(); err != nil {
		logging.Error().Err(err).Msg("Error releasing resources")
	}
	if runErr != nil {
		logging.Error().Err(runErr).Msg("Civitas stopped with an error")
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}
