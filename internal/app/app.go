// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package app assembles the Civitas components into a running service.
//
// Initialize builds the venue registry, profile store, event feed,
// recommendation engine, insight generator, live stream hub, change feed
// consumer, HTTP router and the supervisor tree, in that order. Run serves the tree until
// the context ends. Shutdown releases the resources Initialize opened.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dgraph-io/badger/v4"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tomtom215/civitas/internal/api"
	"github.com/tomtom215/civitas/internal/config"
	"github.com/tomtom215/civitas/internal/feed"
	"github.com/tomtom215/civitas/internal/insight"
	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/profile"
	"github.com/tomtom215/civitas/internal/recommend"
	"github.com/tomtom215/civitas/internal/supervisor"
	"github.com/tomtom215/civitas/internal/supervisor/services"
	"github.com/tomtom215/civitas/internal/venue"
	"github.com/tomtom215/civitas/internal/websocket"
)

// App owns every long-lived component.
type App struct {
	cfg     *config.Config
	clock   clockwork.Clock
	version string
	logger  zerolog.Logger

	Registry *venue.Registry
	Profiles *profile.Store
	Engine   *recommend.Engine
	Insights *insight.Generator
	Consumer *feed.Consumer
	Hub      *websocket.Hub
	Tree     *supervisor.SupervisorTree
	Handler  http.Handler
	Server   *http.Server

	httpService *services.HTTPServerService
	db          *badger.DB
	activity    *profile.BadgerSource
	events      recommend.EventFeed
	httpEvents  *feed.HTTPEventFeed
	subscriber  message.Subscriber
}

// New creates an uninitialized container. A nil clock uses the real clock.
func New(cfg *config.Config, version string, clock clockwork.Clock) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		cfg:     cfg,
		clock:   clock,
		version: version,
		logger:  logging.WithComponent("app"),
	}
}

// Initialize builds and wires the components. A venue store failure is not
// fatal: the registry starts empty and degraded. On error, resources opened
// so far are released.
func (a *App) Initialize(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			if closeErr := a.Shutdown(); closeErr != nil {
				a.logger.Warn().Err(closeErr).Msg("Cleanup after failed initialization")
			}
		}
	}()

	a.initRegistry(ctx)

	if err = a.initProfiles(ctx); err != nil {
		return err
	}
	if err = a.initEvents(); err != nil {
		return err
	}
	if err = a.initEngine(); err != nil {
		return err
	}
	a.Insights = insight.NewGenerator(a.Registry, a.cfg.Insights.Epsilon, a.clock)
	if a.cfg.Server.StreamEnabled {
		a.Hub = websocket.NewHub(a.clock)
	}

	if err = a.initFeed(); err != nil {
		return err
	}
	a.initHTTP()
	return a.initSupervisor()
}

func (a *App) initRegistry(ctx context.Context) {
	var store venue.Store = venue.StaticStore(nil)
	if a.cfg.Venues.SeedFile != "" {
		store = venue.NewFileStore(a.cfg.Venues.SeedFile)
	}

	var weather venue.WeatherProvider = venue.StaticWeather{Clock: a.clock}
	if a.cfg.Weather.Enabled {
		weather = venue.NewOpenWeatherClient(&a.cfg.Weather, a.clock)
		a.logger.Info().Str("base_url", a.cfg.Weather.BaseURL).Msg("OpenWeather provider enabled")
	}

	a.Registry = venue.NewRegistry(venue.Config{
		WeatherTimeout: a.cfg.Venues.WeatherTimeout,
		SensorTimeout:  a.cfg.Venues.SensorTimeout,
		Concurrency:    a.cfg.Venues.RefreshConcurrency,
		GridCellSize:   a.cfg.Venues.GridCellSize,
	}, venue.Deps{
		Store:     store,
		Weather:   weather,
		Telemetry: venue.NewSimulatedTelemetry(a.cfg.Venues.TelemetrySeed, a.clock),
		Clock:     a.clock,
	})

	if _, err := a.Registry.LoadAll(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("Starting with a degraded venue registry")
	}
}

func (a *App) initProfiles(ctx context.Context) error {
	db, err := profile.OpenDB(a.cfg.Profiles.Path, a.cfg.Profiles.InMemory)
	if err != nil {
		return err
	}
	a.db = db
	a.activity = profile.NewBadgerSource(db, a.cfg.Profiles.ActivityRetention)

	if a.cfg.Profiles.SeedFile != "" {
		n, err := profile.SeedFromFile(ctx, a.activity, a.cfg.Profiles.SeedFile)
		if err != nil {
			return fmt.Errorf("seed profiles: %w", err)
		}
		a.logger.Info().Int("imported", n).Str("file", a.cfg.Profiles.SeedFile).Msg("Profile seed applied")
	}

	a.Profiles = profile.NewStore(a.activity)
	n, err := a.Profiles.Load(ctx)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}
	a.logger.Info().Int("profiles", n).Bool("in_memory", a.cfg.Profiles.InMemory).Msg("Profiles loaded")
	return nil
}

func (a *App) initEvents() error {
	ev := a.cfg.Events
	switch {
	case ev.Enabled && ev.URL != "":
		a.httpEvents = feed.NewHTTPEventFeed(&a.cfg.Events, a.clock)
		a.events = a.httpEvents
		a.logger.Info().Str("url", ev.URL).Msg("HTTP event feed enabled")
	case ev.SeedFile != "":
		static, err := feed.LoadStaticEventFeed(ev.SeedFile)
		if err != nil {
			return err
		}
		a.events = static
		a.logger.Info().Str("file", ev.SeedFile).Msg("Static event feed loaded")
	default:
		a.logger.Info().Msg("No event feed configured, event recommendations disabled")
	}
	return nil
}

func (a *App) initEngine() error {
	engine, err := recommend.NewEngine(recommend.FromSettings(&a.cfg.Recommend), recommend.Deps{
		Venues:   a.Registry,
		Profiles: a.Profiles,
		Events:   a.events,
		Activity: a.activity,
		Clock:    a.clock,
	})
	if err != nil {
		return fmt.Errorf("create recommendation engine: %w", err)
	}
	a.Engine = engine
	return nil
}

func (a *App) initFeed() error {
	if !a.cfg.Feed.Enabled {
		a.logger.Info().Msg("Venue change feed disabled")
		return nil
	}
	sub, err := feed.NewNATSSubscriber(&a.cfg.Feed, feed.NewWatermillLogger())
	if err != nil {
		return err
	}
	a.subscriber = sub
	var applier feed.Applier = a.Registry
	if a.Hub != nil {
		applier = streamingApplier{next: a.Registry, hub: a.Hub}
	}
	a.Consumer = feed.NewConsumer(sub, a.cfg.Feed.Subject, applier)
	a.logger.Info().Str("url", a.cfg.Feed.URL).Str("subject", a.cfg.Feed.Subject).Msg("Venue change feed configured")
	return nil
}

func (a *App) initHTTP() {
	deps := api.HandlerDeps{
		Venues:   a.Registry,
		Engine:   a.Engine,
		Profiles: a.Profiles,
		Activity: a.activity,
		Insights: a.Insights,
		Version:  a.version,
	}
	if a.Hub != nil {
		deps.Stream = websocket.Handler(a.Hub, a.cfg.Security.CORSOrigins)
	}
	handler := api.NewHandler(deps)
	if a.cfg.Security.RateLimitDisabled {
		a.logger.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	a.Handler = api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&a.cfg.Security)).Setup()
	a.Server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port),
		Handler:           a.Handler,
		ReadTimeout:       a.cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      a.cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
}

func (a *App) initSupervisor() error {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(&a.cfg.Supervisor))
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	a.Tree = tree

	var (
		sensors  services.SensorRefresher  = a.Registry
		weather  services.WeatherRefresher = a.Registry
		insights services.InsightSource    = a.Insights
	)
	if a.Hub != nil {
		streaming := streamingRegistry{registry: a.Registry, hub: a.Hub}
		sensors, weather = streaming, streaming
		insights = streamingInsights{next: a.Insights, hub: a.Hub}
	}

	tree.AddIngestService(services.NewSensorRefreshService(sensors, a.cfg.Venues.SensorInterval, a.clock))
	tree.AddIngestService(services.NewWeatherRefreshService(weather, a.cfg.Venues.WeatherInterval, a.clock))
	if a.Consumer != nil {
		tree.AddIngestService(services.NewFeedService(a.Consumer))
	}
	if a.httpEvents != nil {
		tree.AddIngestService(services.NewCacheSweepService("event-cache-sweep", a.httpEvents, time.Minute, a.clock))
	}
	tree.AddAnalysisService(services.NewInsightService(insights, a.cfg.Insights.Interval, a.clock))
	if a.Hub != nil {
		tree.AddAPIService(a.Hub)
	}
	a.httpService = services.NewHTTPServerService(a.Server, a.Server.Addr, a.cfg.Server.ShutdownTimeout)
	tree.AddAPIService(a.httpService)
	return nil
}

// Addr returns the address the HTTP server bound, or "" before it starts.
func (a *App) Addr() string {
	if a.httpService == nil {
		return ""
	}
	return a.httpService.Addr()
}

// Run serves the supervisor tree until ctx is canceled and reports services
// that did not stop in time.
func (a *App) Run(ctx context.Context) error {
	if a.Tree == nil {
		return errors.New("app not initialized")
	}
	a.logger.Info().Str("addr", a.Server.Addr).Str("version", a.version).Msg("Starting supervisor tree")
	for layer, names := range a.Tree.Services() {
		a.logger.Debug().Str("layer", string(layer)).Strs("services", names).Msg("Supervisor layer")
	}

	runErr := a.Tree.Serve(ctx)
	if errors.Is(runErr, context.Canceled) || ctx.Err() != nil {
		runErr = nil
	}
	if runErr != nil {
		a.logger.Error().Err(runErr).Msg("Supervisor tree error")
	}

	if unstopped, err := a.Tree.UnstoppedServiceReport(); err == nil {
		for _, svc := range unstopped {
			a.logger.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}
	return runErr
}

// Shutdown closes the change feed subscriber and the profile database. It is
// safe to call more than once.
func (a *App) Shutdown() error {
	var errs []error
	if a.subscriber != nil {
		if err := a.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close feed subscriber: %w", err))
		}
		a.subscriber = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close profile db: %w", err))
		}
		a.db = nil
	}
	return errors.Join(errs...)
}
