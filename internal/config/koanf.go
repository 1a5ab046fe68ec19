// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/civitas/config.yaml",
	"/etc/civitas/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8484,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
			StreamEnabled:   true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
		Venues: VenuesConfig{
			SeedFile:           "/data/venues.json",
			SensorInterval:     30 * time.Second,
			SensorTimeout:      2 * time.Second,
			WeatherInterval:    10 * time.Minute,
			WeatherTimeout:     5 * time.Second,
			RefreshConcurrency: 8,
			GridCellSize:       0.05, // roughly 3.5 miles of latitude
		},
		Weather: WeatherConfig{
			Enabled:      false,
			BaseURL:      "https://api.openweathermap.org",
			Units:        "imperial",
			Timeout:      10 * time.Second,
			RateLimitRPS: 1,
			RateBurst:    5,
		},
		Events: EventsConfig{
			Enabled: false,
			Timeout: 5 * time.Second,
		},
		Feed: FeedConfig{
			Enabled:          false,
			URL:              "nats://127.0.0.1:4222",
			Subject:          "venues.changes",
			QueueGroup:       "civitas",
			SubscribersCount: 1,
			DurableName:      "civitas-venues",
			AckWaitTimeout:   30 * time.Second,
			CloseTimeout:     10 * time.Second,
			MaxReconnects:    -1,
			ReconnectWait:    2 * time.Second,
		},
		Profiles: ProfilesConfig{
			Path:              "/data/profiles",
			ActivityRetention: 30 * 24 * time.Hour,
		},
		Recommend: RecommendConfig{
			DefaultSearchRadius:      10,
			UnderutilizedThreshold:   0.3,
			VenueConfidence:          0.8,
			WeatherPrecipitation:     0.1,
			WeatherConfidence:        0.9,
			EventWindow:              7 * 24 * time.Hour,
			EventBaseConfidence:      0.5,
			EventSportWeight:         0.2,
			EventTimeWeight:          0.2,
			EventBudgetWeight:        0.1,
			EventTimeout:             5 * time.Second,
			TrainingConfidence:       0.7,
			SocialRadius:             5,
			SocialConfidence:         0.6,
			InfrastructureConfidence: 0.9,
			EconomicConfidence:       0.8,
			GeneratorTimeout:         10 * time.Second,
			ActivityLimit:            20,
			RecommendationTTL:        24 * time.Hour,
		},
		Insights: InsightsConfig{
			Interval: 15 * time.Minute,
			Epsilon:  1,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
	}
}

// source is one configuration layer. Later sources override earlier ones.
type source struct {
	name     string
	provider koanf.Provider
	parser   koanf.Parser
}

// sources returns the layers in precedence order: built-in defaults, the
// YAML file if one is found, then mapped environment variables.
func sources() []source {
	out := []source{{name: "defaults", provider: structs.Provider(defaultConfig(), "koanf")}}
	if path := locateConfigFile(); path != "" {
		out = append(out, source{name: "file " + path, provider: file.Provider(path), parser: yaml.Parser()})
	}
	return append(out, source{name: "environment", provider: env.Provider("", ".", envTransformFunc)})
}

// Load builds the configuration from every source and validates it.
func Load() (*Config, error) {
	k := koanf.New(".")
	for _, src := range sources() {
		if err := k.Load(src.provider, src.parser); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", src.name, err)
		}
	}
	if err := splitLists(k, listPaths...); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// locateConfigFile returns CONFIG_PATH when it exists, else the first of
// DefaultConfigPaths that exists, else "".
func locateConfigFile() string {
	candidates := append([]string{os.Getenv(ConfigPathEnvVar)}, DefaultConfigPaths...)
	for _, path := range candidates {
		if path == "" {
			continue
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// listPaths hold lists that arrive from the environment as one
// comma-separated string.
var listPaths = []string{"security.cors_origins"}

func splitLists(k *koanf.Koanf, paths ...string) error {
	for _, path := range paths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			continue
		}
		if err := k.Set(path, items); err != nil {
			return fmt.Errorf("config: split %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	// Server
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"stream_enabled":   "server.stream_enabled",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",

	// Venues
	"venues_seed_file":           "venues.seed_file",
	"venues_sensor_interval":     "venues.sensor_interval",
	"venues_sensor_timeout":      "venues.sensor_timeout",
	"venues_weather_interval":    "venues.weather_interval",
	"venues_weather_timeout":     "venues.weather_timeout",
	"venues_refresh_concurrency": "venues.refresh_concurrency",
	"venues_telemetry_seed":      "venues.telemetry_seed",
	"venues_grid_cell_size":      "venues.grid_cell_size",

	// Weather
	"weather_enabled":        "weather.enabled",
	"weather_base_url":       "weather.base_url",
	"openweather_api_key":    "weather.api_key",
	"weather_api_key":        "weather.api_key",
	"weather_units":          "weather.units",
	"weather_timeout":        "weather.timeout",
	"weather_rate_limit_rps": "weather.rate_limit_rps",
	"weather_rate_burst":     "weather.rate_burst",

	// Events
	"events_enabled":   "events.enabled",
	"events_url":       "events.url",
	"events_api_key":   "events.api_key",
	"events_timeout":   "events.timeout",
	"events_seed_file": "events.seed_file",

	// Venue change feed
	"feed_enabled":           "feed.enabled",
	"nats_url":               "feed.url",
	"feed_subject":           "feed.subject",
	"feed_queue_group":       "feed.queue_group",
	"feed_subscribers_count": "feed.subscribers_count",
	"feed_jetstream":         "feed.jetstream",
	"feed_durable_name":      "feed.durable_name",
	"feed_ack_wait_timeout":  "feed.ack_wait_timeout",
	"feed_close_timeout":     "feed.close_timeout",
	"nats_max_reconnects":    "feed.max_reconnects",
	"nats_reconnect_wait":    "feed.reconnect_wait",

	// Profiles
	"profiles_path":               "profiles.path",
	"profiles_in_memory":          "profiles.in_memory",
	"profiles_seed_file":          "profiles.seed_file",
	"profiles_activity_retention": "profiles.activity_retention",

	// Recommendation heuristics
	"recommend_default_search_radius":     "recommend.default_search_radius",
	"recommend_underutilized_threshold":   "recommend.underutilized_threshold",
	"recommend_venue_confidence":          "recommend.venue_confidence",
	"recommend_weather_precipitation":     "recommend.weather_precipitation",
	"recommend_weather_confidence":        "recommend.weather_confidence",
	"recommend_event_window":              "recommend.event_window",
	"recommend_event_base_confidence":     "recommend.event_base_confidence",
	"recommend_event_sport_weight":        "recommend.event_sport_weight",
	"recommend_event_time_weight":         "recommend.event_time_weight",
	"recommend_event_budget_weight":       "recommend.event_budget_weight",
	"recommend_event_timeout":             "recommend.event_timeout",
	"recommend_training_confidence":       "recommend.training_confidence",
	"recommend_social_radius":             "recommend.social_radius",
	"recommend_social_confidence":         "recommend.social_confidence",
	"recommend_infrastructure_confidence": "recommend.infrastructure_confidence",
	"recommend_economic_confidence":       "recommend.economic_confidence",
	"recommend_generator_timeout":         "recommend.generator_timeout",
	"recommend_activity_limit":            "recommend.activity_limit",
	"recommend_recommendation_ttl":        "recommend.recommendation_ttl",

	// Insights
	"insights_interval": "insights.interval",
	"insights_epsilon":  "insights.epsilon",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
}

// envTransformFunc maps an environment variable name to its koanf path.
// It returns "" for variables Civitas does not read.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
