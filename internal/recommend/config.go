// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package recommend

import (
	"fmt"
	"time"

	"github.com/tomtom215/civitas/internal/config"
)

// Config contains the heuristics of every generator.
type Config struct {
	// Venue controls nearby venue and weather recommendations.
	Venue VenueConfig `json:"venue"`

	// Event controls event scoring.
	Event EventConfig `json:"event"`

	// Training controls skill-goal recommendations.
	Training TrainingConfig `json:"training"`

	// Social controls nearby-player recommendations.
	Social SocialConfig `json:"social"`

	// Infrastructure controls maintenance alerts.
	Infrastructure InfrastructureConfig `json:"infrastructure"`

	// Economic controls budget recommendations.
	Economic EconomicConfig `json:"economic"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains per-user result caching parameters.
	Cache CacheConfig `json:"cache"`
}

// VenueConfig contains parameters for the venue generator.
type VenueConfig struct {
	// DefaultRadius is used when a profile has no search radius, in miles.
	DefaultRadius float64 `json:"default_radius"`

	// UnderutilizedThreshold is the occupancy ratio below which a venue is
	// recommended as underutilized.
	UnderutilizedThreshold float64 `json:"underutilized_threshold"`

	// Confidence is assigned to underutilized venue recommendations.
	Confidence float64 `json:"confidence"`

	// WeatherPrecipitation is the hourly precipitation amount above which
	// indoor venues are recommended.
	WeatherPrecipitation float64 `json:"weather_precipitation"`

	// WeatherConfidence is assigned to weather-driven recommendations.
	WeatherConfidence float64 `json:"weather_confidence"`
}

// EventConfig contains parameters for the event generator.
// Confidence = Base + SportWeight*sport + TimeWeight*time + BudgetWeight*budget.
type EventConfig struct {
	Window       time.Duration `json:"window"`
	Base         float64       `json:"base"`
	SportWeight  float64       `json:"sport_weight"`
	TimeWeight   float64       `json:"time_weight"`
	BudgetWeight float64       `json:"budget_weight"`

	// Timeout bounds the event feed query. On timeout the event category is
	// empty for that request.
	Timeout time.Duration `json:"timeout"`
}

// TrainingConfig contains parameters for the training generator.
type TrainingConfig struct {
	Confidence float64 `json:"confidence"`
}

// SocialConfig contains parameters for the social generator.
type SocialConfig struct {
	Radius     float64 `json:"radius"`
	Confidence float64 `json:"confidence"`
}

// InfrastructureConfig contains parameters for the infrastructure generator.
type InfrastructureConfig struct {
	Confidence float64 `json:"confidence"`
}

// EconomicConfig contains parameters for the economic generator.
type EconomicConfig struct {
	Confidence float64 `json:"confidence"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// GeneratorTimeout bounds each generator.
	GeneratorTimeout time.Duration `json:"generator_timeout"`

	// ActivityLimit is how many recent activity records are read to infer
	// preferred times of day.
	ActivityLimit int `json:"activity_limit"`
}

// CacheConfig contains per-user caching parameters.
type CacheConfig struct {
	TTL time.Duration `json:"ttl"`
}

// DefaultConfig returns the reference heuristics.
func DefaultConfig() *Config {
	return &Config{
		Venue: VenueConfig{
			DefaultRadius:          10,
			UnderutilizedThreshold: 0.3,
			Confidence:             0.8,
			WeatherPrecipitation:   0.1,
			WeatherConfidence:      0.9,
		},
		Event: EventConfig{
			Window:       7 * 24 * time.Hour,
			Base:         0.5,
			SportWeight:  0.2,
			TimeWeight:   0.2,
			BudgetWeight: 0.1,
			Timeout:      5 * time.Second,
		},
		Training:       TrainingConfig{Confidence: 0.7},
		Social:         SocialConfig{Radius: 5, Confidence: 0.6},
		Infrastructure: InfrastructureConfig{Confidence: 0.9},
		Economic:       EconomicConfig{Confidence: 0.8},
		Limits: LimitsConfig{
			GeneratorTimeout: 10 * time.Second,
			ActivityLimit:    20,
		},
		Cache: CacheConfig{TTL: 24 * time.Hour},
	}
}

// FromSettings builds a Config from the application configuration.
func FromSettings(s *config.RecommendConfig) *Config {
	return &Config{
		Venue: VenueConfig{
			DefaultRadius:          s.DefaultSearchRadius,
			UnderutilizedThreshold: s.UnderutilizedThreshold,
			Confidence:             s.VenueConfidence,
			WeatherPrecipitation:   s.WeatherPrecipitation,
			WeatherConfidence:      s.WeatherConfidence,
		},
		Event: EventConfig{
			Window:       s.EventWindow,
			Base:         s.EventBaseConfidence,
			SportWeight:  s.EventSportWeight,
			TimeWeight:   s.EventTimeWeight,
			BudgetWeight: s.EventBudgetWeight,
			Timeout:      s.EventTimeout,
		},
		Training:       TrainingConfig{Confidence: s.TrainingConfidence},
		Social:         SocialConfig{Radius: s.SocialRadius, Confidence: s.SocialConfidence},
		Infrastructure: InfrastructureConfig{Confidence: s.InfrastructureConfidence},
		Economic:       EconomicConfig{Confidence: s.EconomicConfidence},
		Limits: LimitsConfig{
			GeneratorTimeout: s.GeneratorTimeout,
			ActivityLimit:    s.ActivityLimit,
		},
		Cache: CacheConfig{TTL: s.RecommendationTTL},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	confidences := map[string]float64{
		"venue.confidence":              c.Venue.Confidence,
		"venue.weather_confidence":      c.Venue.WeatherConfidence,
		"event.base":                    c.Event.Base,
		"training.confidence":           c.Training.Confidence,
		"social.confidence":             c.Social.Confidence,
		"infrastructure.confidence":     c.Infrastructure.Confidence,
		"economic.confidence":           c.Economic.Confidence,
		"venue.underutilized_threshold": c.Venue.UnderutilizedThreshold,
	}
	for name, v := range confidences {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %f", name, v)
		}
	}

	if c.Venue.DefaultRadius <= 0 {
		return fmt.Errorf("venue.default_radius must be positive, got %f", c.Venue.DefaultRadius)
	}
	if c.Venue.WeatherPrecipitation < 0 {
		return fmt.Errorf("venue.weather_precipitation must be non-negative, got %f", c.Venue.WeatherPrecipitation)
	}
	if c.Social.Radius <= 0 {
		return fmt.Errorf("social.radius must be positive, got %f", c.Social.Radius)
	}
	if c.Event.Window <= 0 {
		return fmt.Errorf("event.window must be positive, got %v", c.Event.Window)
	}
	if c.Event.Timeout <= 0 {
		return fmt.Errorf("event.timeout must be positive, got %v", c.Event.Timeout)
	}
	if c.Limits.GeneratorTimeout <= 0 {
		return fmt.Errorf("limits.generator_timeout must be positive, got %v", c.Limits.GeneratorTimeout)
	}
	if c.Limits.ActivityLimit < 0 {
		return fmt.Errorf("limits.activity_limit must be non-negative, got %d", c.Limits.ActivityLimit)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
