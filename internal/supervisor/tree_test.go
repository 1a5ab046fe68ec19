// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/civitas/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSupervisorTreeConstruction(t *testing.T) {
	t.Run("applies default values for zero config", func(t *testing.T) {
		tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("NewSupervisorTree() error = %v", err)
		}
		if len(tree.layers) != 3 {
			t.Fatalf("layers = %d, want 3", len(tree.layers))
		}
		if tree.config != DefaultTreeConfig() {
			t.Errorf("config = %+v, want %+v", tree.config, DefaultTreeConfig())
		}
	})

	t.Run("rejects a nil logger", func(t *testing.T) {
		if _, err := NewSupervisorTree(nil, TreeConfig{}); err == nil {
			t.Error("NewSupervisorTree(nil) error = nil, want error")
		}
	})

	t.Run("rejects a negative policy", func(t *testing.T) {
		if _, err := NewSupervisorTree(quietLogger(), TreeConfig{FailureBackoff: -time.Second}); err == nil {
			t.Error("NewSupervisorTree(negative backoff) error = nil, want error")
		}
	})

	t.Run("converts application settings", func(t *testing.T) {
		got := TreeConfigFrom(&config.SupervisorConfig{
			FailureThreshold: 3,
			FailureDecay:     10,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  2 * time.Second,
		})
		want := TreeConfig{FailureThreshold: 3, FailureDecay: 10, FailureBackoff: time.Second, ShutdownTimeout: 2 * time.Second}
		if got != want {
			t.Errorf("TreeConfigFrom() = %+v, want %+v", got, want)
		}
	})
}

func TestSupervisorTreeLayers(t *testing.T) {
	layers := []struct {
		name string
		add  func(*SupervisorTree, suture.Service) suture.ServiceToken
	}{
		{"ingest", (*SupervisorTree).AddIngestService},
		{"analysis", (*SupervisorTree).AddAnalysisService},
		{"api", (*SupervisorTree).AddAPIService},
	}

	for _, layer := range layers {
		t.Run(layer.name, func(t *testing.T) {
			tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
			svc := NewMockService(layer.name + "-service")
			layer.add(tree, svc)

			ctx, cancel := context.WithCancel(context.Background())
			errCh := tree.ServeBackground(ctx)

			deadline := time.Now().Add(time.Second)
			for svc.StartCount() < 1 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			if svc.StartCount() < 1 {
				t.Errorf("%s service was not started", layer.name)
			}

			cancel()
			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, context.Canceled) {
					t.Errorf("Serve() error = %v", err)
				}
			case <-time.After(2 * time.Second):
				t.Error("tree did not shut down in time")
			}
			if svc.StopCount() != svc.StartCount() {
				t.Errorf("StopCount() = %d, want %d", svc.StopCount(), svc.StartCount())
			}
		})
	}
}

func TestSupervisorTreeFailureIsolation(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	failing := NewMockService("venue-feed")
	failing.SetFailCount(2)
	stable := NewMockService("http-server")

	tree.AddIngestService(failing)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	go func() { _ = tree.Serve(ctx) }()
	time.Sleep(200 * time.Millisecond)

	if failing.StartCount() < 3 {
		t.Errorf("failing service starts = %d, want at least 3", failing.StartCount())
	}
	if stable.StartCount() != 1 {
		t.Errorf("stable service starts = %d, want 1 (not restarted by a sibling layer)", stable.StartCount())
	}
}

func TestSupervisorTreeServices(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{})
	tree.AddIngestService(NewMockService("weather-refresh"))
	tree.AddIngestService(NewMockService("sensor-refresh"))
	tree.AddAPIService(NewMockService("http-server"))

	if _, err := tree.Add(Layer("storage"), NewMockService("x")); err == nil {
		t.Error("Add(unknown layer) error = nil, want error")
	}

	got := tree.Services()
	if want := []string{"sensor-refresh", "weather-refresh"}; !equalStrings(got[LayerIngest], want) {
		t.Errorf("Services()[ingest] = %v, want %v", got[LayerIngest], want)
	}
	if len(got[LayerAnalysis]) != 0 {
		t.Errorf("Services()[analysis] = %v, want empty", got[LayerAnalysis])
	}
	if want := []string{"http-server"}; !equalStrings(got[LayerAPI], want) {
		t.Errorf("Services()[api] = %v, want %v", got[LayerAPI], want)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRemoveService(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	svc := NewMockService("weather-refresh")
	token := tree.AddIngestService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(time.Second)
	for svc.StartCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := tree.Remove(LayerIngest, token); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if n := len(tree.Services()[LayerIngest]); n != 0 {
		t.Errorf("ingest services after Remove = %d, want 0", n)
	}
	deadline = time.Now().Add(time.Second)
	for svc.StopCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if svc.StopCount() < 1 {
		t.Error("removed service was not stopped")
	}

	cancel()
	<-errCh
}
