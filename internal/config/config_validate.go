// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/civitas/internal/logging"
)

// Validate checks that the configuration is complete and in range.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateVenues,
		c.validateWeather,
		c.validateEvents,
		c.validateFeed,
		c.validateProfiles,
		c.validateRecommend,
		c.validateInsights,
		c.validateSecurity,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateVenues() error {
	durations := map[string]time.Duration{
		"VENUES_SENSOR_INTERVAL":  c.Venues.SensorInterval,
		"VENUES_SENSOR_TIMEOUT":   c.Venues.SensorTimeout,
		"VENUES_WEATHER_INTERVAL": c.Venues.WeatherInterval,
		"VENUES_WEATHER_TIMEOUT":  c.Venues.WeatherTimeout,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	if c.Venues.SensorTimeout >= c.Venues.SensorInterval {
		return fmt.Errorf("VENUES_SENSOR_TIMEOUT (%v) must be shorter than VENUES_SENSOR_INTERVAL (%v)",
			c.Venues.SensorTimeout, c.Venues.SensorInterval)
	}
	if c.Venues.RefreshConcurrency < 1 {
		return fmt.Errorf("VENUES_REFRESH_CONCURRENCY must be at least 1, got %d", c.Venues.RefreshConcurrency)
	}
	if c.Venues.GridCellSize <= 0 || c.Venues.GridCellSize > 10 {
		return fmt.Errorf("VENUES_GRID_CELL_SIZE must be in (0, 10] degrees, got %v", c.Venues.GridCellSize)
	}
	return nil
}

func (c *Config) validateWeather() error {
	if !c.Weather.Enabled {
		return nil
	}
	if err := validateHTTPURL(c.Weather.BaseURL, "WEATHER_BASE_URL"); err != nil {
		return err
	}
	if c.Weather.APIKey == "" {
		return fmt.Errorf("WEATHER_API_KEY is required when WEATHER_ENABLED=true")
	}
	switch c.Weather.Units {
	case "imperial", "metric", "standard":
	default:
		return fmt.Errorf("WEATHER_UNITS must be imperial, metric or standard, got %q", c.Weather.Units)
	}
	if c.Weather.RateLimitRPS <= 0 {
		return fmt.Errorf("WEATHER_RATE_LIMIT_RPS must be positive, got %v", c.Weather.RateLimitRPS)
	}
	if c.Weather.RateBurst < 1 {
		return fmt.Errorf("WEATHER_RATE_BURST must be at least 1, got %d", c.Weather.RateBurst)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled || c.Events.URL == "" {
		return nil
	}
	if err := validateServiceURL(c.Events.URL, "EVENTS_URL"); err != nil {
		return err
	}
	if c.Events.Timeout <= 0 {
		return fmt.Errorf("EVENTS_TIMEOUT must be positive, got %v", c.Events.Timeout)
	}
	return nil
}

func (c *Config) validateFeed() error {
	if !c.Feed.Enabled {
		return nil
	}
	if err := validateNATSURL(c.Feed.URL); err != nil {
		return err
	}
	if c.Feed.Subject == "" {
		return fmt.Errorf("FEED_SUBJECT is required when FEED_ENABLED=true")
	}
	if c.Feed.SubscribersCount < 1 {
		return fmt.Errorf("FEED_SUBSCRIBERS_COUNT must be at least 1, got %d", c.Feed.SubscribersCount)
	}
	if c.Feed.JetStream && c.Feed.DurableName == "" {
		return fmt.Errorf("FEED_DURABLE_NAME is required when FEED_JETSTREAM=true")
	}
	return nil
}

func (c *Config) validateProfiles() error {
	if !c.Profiles.InMemory && c.Profiles.Path == "" {
		return fmt.Errorf("PROFILES_PATH is required unless PROFILES_IN_MEMORY=true")
	}
	if c.Profiles.ActivityRetention < 0 {
		return fmt.Errorf("PROFILES_ACTIVITY_RETENTION must not be negative, got %v", c.Profiles.ActivityRetention)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	unitValues := map[string]float64{
		"RECOMMEND_UNDERUTILIZED_THRESHOLD":   r.UnderutilizedThreshold,
		"RECOMMEND_VENUE_CONFIDENCE":          r.VenueConfidence,
		"RECOMMEND_WEATHER_CONFIDENCE":        r.WeatherConfidence,
		"RECOMMEND_EVENT_BASE_CONFIDENCE":     r.EventBaseConfidence,
		"RECOMMEND_EVENT_SPORT_WEIGHT":        r.EventSportWeight,
		"RECOMMEND_EVENT_TIME_WEIGHT":         r.EventTimeWeight,
		"RECOMMEND_EVENT_BUDGET_WEIGHT":       r.EventBudgetWeight,
		"RECOMMEND_TRAINING_CONFIDENCE":       r.TrainingConfidence,
		"RECOMMEND_SOCIAL_CONFIDENCE":         r.SocialConfidence,
		"RECOMMEND_INFRASTRUCTURE_CONFIDENCE": r.InfrastructureConfidence,
		"RECOMMEND_ECONOMIC_CONFIDENCE":       r.EconomicConfidence,
	}
	for name, v := range unitValues {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
	}
	if r.DefaultSearchRadius <= 0 {
		return fmt.Errorf("RECOMMEND_DEFAULT_SEARCH_RADIUS must be positive, got %v", r.DefaultSearchRadius)
	}
	if r.SocialRadius <= 0 {
		return fmt.Errorf("RECOMMEND_SOCIAL_RADIUS must be positive, got %v", r.SocialRadius)
	}
	if r.WeatherPrecipitation < 0 {
		return fmt.Errorf("RECOMMEND_WEATHER_PRECIPITATION must not be negative, got %v", r.WeatherPrecipitation)
	}
	if r.EventWindow <= 0 || r.EventTimeout <= 0 || r.GeneratorTimeout <= 0 {
		return fmt.Errorf("recommendation windows and timeouts must be positive")
	}
	if r.ActivityLimit < 0 {
		return fmt.Errorf("RECOMMEND_ACTIVITY_LIMIT must not be negative, got %d", r.ActivityLimit)
	}
	return nil
}

func (c *Config) validateInsights() error {
	if c.Insights.Interval <= 0 {
		return fmt.Errorf("INSIGHTS_INTERVAL must be positive, got %v", c.Insights.Interval)
	}
	if c.Insights.Epsilon <= 0 {
		return fmt.Errorf("INSIGHTS_EPSILON must be positive, got %v", c.Insights.Epsilon)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
	}
	return nil
}
