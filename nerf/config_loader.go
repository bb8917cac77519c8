package nerf

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDownscale is returned for a downscale factor with no image folder
var ErrInvalidDownscale = errors.New("invalid downscale factor")

// AllowedDownscales are the image pyramid levels shipped with a dataset
var AllowedDownscales = []int{1, 2, 4, 8, 16}

const (
	// DefaultDownscale matches the 2x image folder
	DefaultDownscale = 2
	// DefaultPositionScale is applied on top of scene.json's scale
	DefaultPositionScale = 3.0
	// DefaultFrustumSize is the half-extent of a drawn camera in world units
	DefaultFrustumSize = 0.1
)

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Downscale:     DefaultDownscale,
		PositionScale: DefaultPositionScale,
		Refine: RefineConfig{
			Enabled:      false,
			MinWeight:    DefaultMinRayWeight,
			TargetRadius: DefaultTargetRadius,
		},
		Render: RenderConfig{
			View:        string(ViewTop),
			FrustumSize: DefaultFrustumSize,
			DPI:         DefaultRenderDPI,
		},
		Notify: NotifyConfig{
			PublishPrefix: "hyper2nerf",
			ClientID:      "hyper2nerf",
		},
	}
}

// LoadConfig loads a YAML configuration on top of DefaultConfig
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Validate checks values that would otherwise fail deep in the pipeline
func (c *Config) Validate() error {
	if !slices.Contains(AllowedDownscales, c.Downscale) {
		return fmt.Errorf("%w: %d (choose from %v)", ErrInvalidDownscale, c.Downscale, AllowedDownscales)
	}
	if c.PositionScale <= 0 {
		return fmt.Errorf("positionScale must be positive, got %g", c.PositionScale)
	}
	if c.Refine.Enabled && c.Refine.TargetRadius <= 0 {
		return fmt.Errorf("refine.targetRadius must be positive, got %g", c.Refine.TargetRadius)
	}
	if c.Render.View != "" {
		if _, err := ParseView(c.Render.View); err != nil {
			return err
		}
	}
	if c.Render.FrustumSize < 0 {
		return fmt.Errorf("render.frustumSize must not be negative, got %g", c.Render.FrustumSize)
	}
	return nil
}

// ApplyEnv lets MQTT_* environment variables override notify settings
func (c *Config) ApplyEnv() {
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		c.Notify.Broker = v
	}
	if v := os.Getenv("MQTT_CLIENT_ID"); v != "" {
		c.Notify.ClientID = v
	}
	if v := os.Getenv("MQTT_USERNAME"); v != "" {
		c.Notify.Username = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		c.Notify.Password = v
	}
	if v := os.Getenv("MQTT_PUBLISH_PREFIX"); v != "" {
		c.Notify.PublishPrefix = v
	}
}
