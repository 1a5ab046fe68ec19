// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package venue

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/tomtom215/civitas/internal/breaker"
	"github.com/tomtom215/civitas/internal/cache"
	"github.com/tomtom215/civitas/internal/config"
	"github.com/tomtom215/civitas/internal/models"
)

// WeatherProvider returns current weather at a coordinate. Calls may fail;
// the registry substitutes models.DefaultWeather when they do.
type WeatherProvider interface {
	GetWeather(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error)
}

// WeatherFunc adapts a function to WeatherProvider.
type WeatherFunc func(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error)

// GetWeather calls f.
func (f WeatherFunc) GetWeather(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error) {
	return f(ctx, lat, lon)
}

// StaticWeather reports the default snapshot for every venue. It stands in
// for a real provider when none is configured.
type StaticWeather struct {
	Clock clockwork.Clock
}

// GetWeather returns models.DefaultWeather.
func (s StaticWeather) GetWeather(_ context.Context, _, _ float64) (models.WeatherSnapshot, error) {
	clock := s.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return models.DefaultWeather(clock.Now()), nil
}

// openWeatherResponse is the subset of the OpenWeatherMap current weather
// response that Civitas uses.
type openWeatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Snow struct {
		OneHour float64 `json:"1h"`
	} `json:"snow"`
	Visibility float64 `json:"visibility"`
	Dt         int64   `json:"dt"`
}

// OpenWeatherClient fetches current conditions from OpenWeatherMap. Requests
// are rate limited, wrapped in a circuit breaker and cached briefly per
// rounded coordinate so that venues sharing a block share one call.
type OpenWeatherClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	units   string
	limiter *rate.Limiter
	breaker *breaker.Breaker
	cache   *cache.TTL[models.WeatherSnapshot]
	clock   clockwork.Clock
}

// NewOpenWeatherClient creates a client from the weather configuration.
func NewOpenWeatherClient(cfg *config.WeatherConfig, clock clockwork.Clock) *OpenWeatherClient {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &OpenWeatherClient{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		units:   cfg.Units,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateBurst),
		breaker: breaker.New("openweather", breaker.DefaultSettings()),
		cache:   cache.NewTTL[models.WeatherSnapshot](5*time.Minute, clock),
		clock:   clock,
	}
}

// GetWeather returns current weather at lat/lon.
func (c *OpenWeatherClient) GetWeather(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error) {
	key := fmt.Sprintf("%.2f,%.2f", lat, lon)
	if snap, ok := c.cache.Get(key); ok {
		return snap, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("weather rate limit: %w", err)
	}

	resp, err := breaker.Execute(c.breaker, func() (*openWeatherResponse, error) {
		return c.fetch(ctx, lat, lon)
	})
	if err != nil {
		return models.WeatherSnapshot{}, err
	}

	snap := c.convert(resp)
	c.cache.Set(key, snap)
	return snap, nil
}

func (c *OpenWeatherClient) fetch(ctx context.Context, lat, lon float64) (*openWeatherResponse, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", c.units)
	reqURL := fmt.Sprintf("%s/data/2.5/weather?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}
	return &out, nil
}

// convert maps the provider response onto a snapshot. Precipitation is
// reported in inches and visibility in miles for imperial units, in
// millimetres and kilometres otherwise.
func (c *OpenWeatherClient) convert(r *openWeatherResponse) models.WeatherSnapshot {
	precipitation := r.Rain.OneHour + r.Snow.OneHour
	visibility := r.Visibility / 1000
	if c.units == "imperial" {
		precipitation /= 25.4
		visibility = r.Visibility / 1609.344
	}

	condition := models.DefaultWeatherCondition
	if len(r.Weather) > 0 && r.Weather[0].Main != "" {
		condition = r.Weather[0].Main
	}

	updated := c.clock.Now()
	if r.Dt > 0 {
		updated = time.Unix(r.Dt, 0).UTC()
	}

	return models.WeatherSnapshot{
		Temperature:   r.Main.Temp,
		Condition:     condition,
		Humidity:      r.Main.Humidity,
		WindSpeed:     r.Wind.Speed,
		WindDirection: r.Wind.Deg,
		Precipitation: precipitation,
		Visibility:    visibility,
		UpdatedAt:     updated,
	}
}
