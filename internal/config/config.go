// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

// Package config loads and validates Civitas configuration.
//
// Configuration is layered with Koanf v2:
//  1. Defaults: built-in values from defaultConfig()
//  2. Config file: optional YAML (CONFIG_PATH, ./config.yaml, /etc/civitas/config.yaml)
//  3. Environment variables: mapped explicitly in envTransformFunc
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load config")
//	}
//	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
	Venues     VenuesConfig     `koanf:"venues"`
	Weather    WeatherConfig    `koanf:"weather"`
	Events     EventsConfig     `koanf:"events"`
	Feed       FeedConfig       `koanf:"feed"`
	Profiles   ProfilesConfig   `koanf:"profiles"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Insights   InsightsConfig   `koanf:"insights"`
	Security   SecurityConfig   `koanf:"security"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
	// StreamEnabled serves the live venue stream at /api/v1/stream.
	StreamEnabled bool `koanf:"stream_enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig holds suture restart policy.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// VenuesConfig holds venue registry settings.
type VenuesConfig struct {
	// SeedFile is a JSON file of venues used as the bulk-load store.
	SeedFile string `koanf:"seed_file"`

	// SensorInterval is how often telemetry is pulled. Default: 30s
	SensorInterval time.Duration `koanf:"sensor_interval"`

	// SensorTimeout bounds the telemetry read of one venue.
	SensorTimeout time.Duration `koanf:"sensor_timeout"`

	// WeatherInterval is how often weather is refreshed per venue.
	WeatherInterval time.Duration `koanf:"weather_interval"`

	// WeatherTimeout bounds a single provider call.
	WeatherTimeout time.Duration `koanf:"weather_timeout"`

	// RefreshConcurrency caps concurrent per-venue refresh calls.
	RefreshConcurrency int `koanf:"refresh_concurrency"`

	// TelemetrySeed seeds the simulated telemetry source. 0 uses the clock.
	TelemetrySeed int64 `koanf:"telemetry_seed"`

	// GridCellSize is the proximity index cell edge in degrees.
	GridCellSize float64 `koanf:"grid_cell_size"`
}

// WeatherConfig holds weather provider settings.
type WeatherConfig struct {
	Enabled      bool          `koanf:"enabled"`
	BaseURL      string        `koanf:"base_url"`
	APIKey       string        `koanf:"api_key"`
	Units        string        `koanf:"units"`
	Timeout      time.Duration `koanf:"timeout"`
	RateLimitRPS float64       `koanf:"rate_limit_rps"`
	RateBurst    int           `koanf:"rate_burst"`
}

// EventsConfig holds event candidate feed settings.
type EventsConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
	// SeedFile serves candidates from a local JSON file when URL is empty.
	SeedFile string `koanf:"seed_file"`
}

// FeedConfig holds venue change feed settings.
type FeedConfig struct {
	Enabled          bool          `koanf:"enabled"`
	URL              string        `koanf:"url"`
	Subject          string        `koanf:"subject"`
	QueueGroup       string        `koanf:"queue_group"`
	SubscribersCount int           `koanf:"subscribers_count"`
	JetStream        bool          `koanf:"jetstream"`
	DurableName      string        `koanf:"durable_name"`
	AckWaitTimeout   time.Duration `koanf:"ack_wait_timeout"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`
	MaxReconnects    int           `koanf:"max_reconnects"`
	ReconnectWait    time.Duration `koanf:"reconnect_wait"`
}

// ProfilesConfig holds profile source settings.
type ProfilesConfig struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
	// SeedFile is a JSON file of profiles imported on first start.
	SeedFile string `koanf:"seed_file"`
	// ActivityRetention is how long activity records are kept.
	ActivityRetention time.Duration `koanf:"activity_retention"`
}

// RecommendConfig holds recommendation heuristics. Defaults are the
// reference values the product was tuned with.
type RecommendConfig struct {
	DefaultSearchRadius      float64       `koanf:"default_search_radius"`
	UnderutilizedThreshold   float64       `koanf:"underutilized_threshold"`
	VenueConfidence          float64       `koanf:"venue_confidence"`
	WeatherPrecipitation     float64       `koanf:"weather_precipitation"`
	WeatherConfidence        float64       `koanf:"weather_confidence"`
	EventWindow              time.Duration `koanf:"event_window"`
	EventBaseConfidence      float64       `koanf:"event_base_confidence"`
	EventSportWeight         float64       `koanf:"event_sport_weight"`
	EventTimeWeight          float64       `koanf:"event_time_weight"`
	EventBudgetWeight        float64       `koanf:"event_budget_weight"`
	EventTimeout             time.Duration `koanf:"event_timeout"`
	TrainingConfidence       float64       `koanf:"training_confidence"`
	SocialRadius             float64       `koanf:"social_radius"`
	SocialConfidence         float64       `koanf:"social_confidence"`
	InfrastructureConfidence float64       `koanf:"infrastructure_confidence"`
	EconomicConfidence       float64       `koanf:"economic_confidence"`
	GeneratorTimeout         time.Duration `koanf:"generator_timeout"`
	ActivityLimit            int           `koanf:"activity_limit"`
	RecommendationTTL        time.Duration `koanf:"recommendation_ttl"`
}

// InsightsConfig holds insight generator settings.
type InsightsConfig struct {
	Interval time.Duration `koanf:"interval"`
	Epsilon  float64       `koanf:"epsilon"`
}

// SecurityConfig holds HTTP exposure settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}
