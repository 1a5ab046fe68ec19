// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/civitas/internal/config"
)

// Layer names one child supervisor of the tree.
type Layer string

const (
	// LayerIngest keeps venue state current: sensor and weather refresh and
	// the change feed consumer.
	LayerIngest Layer = "ingest"
	// LayerAnalysis runs insight generation.
	LayerAnalysis Layer = "analysis"
	// LayerAPI serves HTTP and the live stream.
	LayerAPI Layer = "api"
)

var layerOrder = []Layer{LayerIngest, LayerAnalysis, LayerAPI}

// TreeConfig holds the restart policy shared by every supervisor in the tree.
// Zero fields take the DefaultTreeConfig value.
type TreeConfig struct {
	FailureThreshold float64       // failures before backoff
	FailureDecay     float64       // seconds for one failure to decay
	FailureBackoff   time.Duration // pause once the threshold is crossed
	ShutdownTimeout  time.Duration // per service stop deadline
}

// DefaultTreeConfig returns suture's documented defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// TreeConfigFrom converts the application supervisor settings.
func TreeConfigFrom(cfg *config.SupervisorConfig) TreeConfig {
	return TreeConfig{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		ShutdownTimeout:  cfg.ShutdownTimeout,
	}
}

func (c TreeConfig) withDefaults() (TreeConfig, error) {
	if c.FailureThreshold < 0 || c.FailureDecay < 0 || c.FailureBackoff < 0 || c.ShutdownTimeout < 0 {
		return c, fmt.Errorf("supervisor: negative restart policy %+v", c)
	}
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c, nil
}

func (c TreeConfig) spec() suture.Spec {
	return suture.Spec{
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// SupervisorTree is the Civitas process supervisor: a root with one child
// supervisor per Layer. A service that keeps failing is backed off inside its
// own layer, so a crashing change feed never interrupts the API, which keeps
// serving the last known venue state.
type SupervisorTree struct {
	root   *suture.Supervisor
	layers map[Layer]*suture.Supervisor
	config TreeConfig

	mu       sync.Mutex
	services map[Layer]map[suture.ServiceToken]string
}

// NewSupervisorTree builds the tree. Supervisor events are logged through
// logger with sutureslog.
func NewSupervisorTree(logger *slog.Logger, cfg TreeConfig) (*SupervisorTree, error) {
	if logger == nil {
		return nil, errors.New("supervisor: logger is required")
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	rootSpec := cfg.spec()
	rootSpec.EventHook = (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &SupervisorTree{
		root:     suture.New("civitas", rootSpec),
		layers:   make(map[Layer]*suture.Supervisor, len(layerOrder)),
		config:   cfg,
		services: make(map[Layer]map[suture.ServiceToken]string, len(layerOrder)),
	}
	// Layers inherit the root's event hook when added.
	for _, l := range layerOrder {
		sup := suture.New(string(l)+"-layer", cfg.spec())
		t.root.Add(sup)
		t.layers[l] = sup
		t.services[l] = make(map[suture.ServiceToken]string)
	}
	return t, nil
}

// Add starts svc under layer, or queues it until Serve.
func (t *SupervisorTree) Add(layer Layer, svc suture.Service) (suture.ServiceToken, error) {
	sup, ok := t.layers[layer]
	if !ok {
		return suture.ServiceToken{}, fmt.Errorf("supervisor: unknown layer %q", layer)
	}
	token := sup.Add(svc)
	t.mu.Lock()
	t.services[layer][token] = fmt.Sprint(svc)
	t.mu.Unlock()
	return token, nil
}

// Remove stops the service behind token.
func (t *SupervisorTree) Remove(layer Layer, token suture.ServiceToken) error {
	sup, ok := t.layers[layer]
	if !ok {
		return fmt.Errorf("supervisor: unknown layer %q", layer)
	}
	if err := sup.Remove(token); err != nil {
		return err
	}
	t.mu.Lock()
	delete(t.services[layer], token)
	t.mu.Unlock()
	return nil
}

// AddIngestService adds svc to LayerIngest.
func (t *SupervisorTree) AddIngestService(svc suture.Service) suture.ServiceToken {
	token, _ := t.Add(LayerIngest, svc)
	return token
}

// AddAnalysisService adds svc to LayerAnalysis.
func (t *SupervisorTree) AddAnalysisService(svc suture.Service) suture.ServiceToken {
	token, _ := t.Add(LayerAnalysis, svc)
	return token
}

// AddAPIService adds svc to LayerAPI.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	token, _ := t.Add(LayerAPI, svc)
	return token
}

// Services returns the names of the services currently added to each layer.
func (t *SupervisorTree) Services() map[Layer][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[Layer][]string, len(t.services))
	for _, l := range layerOrder {
		names := make([]string, 0, len(t.services[l]))
		for _, name := range t.services[l] {
			names = append(names, name)
		}
		sort.Strings(names)
		out[l] = names
	}
	return out
}

// Serve runs the tree until ctx is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The channel receives one
// value when the root supervisor stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown deadline.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
