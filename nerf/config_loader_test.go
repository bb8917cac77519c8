package nerf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}
	return path
}

// ---------------------------------------------------------------------------
// LoadConfig
// ---------------------------------------------------------------------------

func TestLoadConfig_NotExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `downscale: 4
positionScale: 1.5
refine:
  enabled: true
  targetRadius: 2
render:
  svg: cams.svg
  view: side
notify:
  broker: tcp://localhost:1883
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Downscale != 4 {
		t.Errorf("Downscale = %d, want 4", cfg.Downscale)
	}
	if cfg.PositionScale != 1.5 {
		t.Errorf("PositionScale = %g, want 1.5", cfg.PositionScale)
	}
	if !cfg.Refine.Enabled || cfg.Refine.TargetRadius != 2 {
		t.Errorf("Refine = %+v, want enabled with radius 2", cfg.Refine)
	}
	if cfg.Refine.MinWeight != DefaultMinRayWeight {
		t.Errorf("MinWeight = %g, want default %g", cfg.Refine.MinWeight, DefaultMinRayWeight)
	}
	if cfg.Render.SVG != "cams.svg" || cfg.Render.View != "side" {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.Render.FrustumSize != DefaultFrustumSize {
		t.Errorf("FrustumSize = %g, want default", cfg.Render.FrustumSize)
	}
	if cfg.Notify.Broker != "tcp://localhost:1883" || cfg.Notify.PublishPrefix != "hyper2nerf" {
		t.Errorf("Notify = %+v", cfg.Notify)
	}
}

func TestLoadConfig_Empty(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Downscale != DefaultDownscale || cfg.PositionScale != DefaultPositionScale {
		t.Errorf("empty config = %+v, want defaults", cfg)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "downscale: [1"},
		{"downscale 3", "downscale: 3"},
		{"negative position scale", "positionScale: -1"},
		{"unknown view", "render:\n  view: isometric"},
		{"negative frustum", "render:\n  frustumSize: -0.5"},
		{"refine radius", "refine:\n  enabled: true\n  targetRadius: 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.body)); err == nil {
				t.Errorf("expected error for %q", tt.body)
			}
		})
	}
}

func TestValidate_Downscale(t *testing.T) {
	for _, d := range AllowedDownscales {
		cfg := DefaultConfig()
		cfg.Downscale = d
		if err := cfg.Validate(); err != nil {
			t.Errorf("downscale %d: %v", d, err)
		}
	}

	for _, d := range []int{0, 3, 32, -2} {
		cfg := DefaultConfig()
		cfg.Downscale = d
		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidDownscale) {
			t.Errorf("downscale %d: err = %v, want ErrInvalidDownscale", d, err)
		}
	}
}

// ---------------------------------------------------------------------------
// SaveConfig
// ---------------------------------------------------------------------------

func TestSaveConfig_RoundTrip(t *testing.T) {
	want := DefaultConfig()
	want.Downscale = 8
	want.Refine.Enabled = true
	want.Render.PNG = "cams.png"

	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := SaveConfig(path, want); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if *got != *want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

// ---------------------------------------------------------------------------
// ApplyEnv
// ---------------------------------------------------------------------------

func TestApplyEnv(t *testing.T) {
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("MQTT_CLIENT_ID", "ci")
	t.Setenv("MQTT_USERNAME", "user")
	t.Setenv("MQTT_PASSWORD", "secret")
	t.Setenv("MQTT_PUBLISH_PREFIX", "")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Notify.Broker != "tcp://broker:1883" {
		t.Errorf("Broker = %q", cfg.Notify.Broker)
	}
	if cfg.Notify.ClientID != "ci" || cfg.Notify.Username != "user" || cfg.Notify.Password != "secret" {
		t.Errorf("Notify = %+v", cfg.Notify)
	}
	// empty variables leave the value alone
	if cfg.Notify.PublishPrefix != "hyper2nerf" {
		t.Errorf("PublishPrefix = %q, want hyper2nerf", cfg.Notify.PublishPrefix)
	}
}
