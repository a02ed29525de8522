// SPDX-License-Identifier: MIT
//
// Package config defines the application settings structure, loaded from
// YAML with environment variable overrides. The defaults reproduce the
// visualizer's stock tuning (44.1 kHz, 4096-sample buffer, 50 bands).
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Visualization modes. Legacy reproduces the original fixed-table band
// mapping and single-rate bar animation; Modern uses log-spaced bands with
// perceptual weighting and the configurable growth/decay animator.
const (
	ModeLegacy = "legacy"
	ModeModern = "modern"
)

// Hard limits for the audio configuration.
const (
	MinDeviceID   = -1     // -1 selects the system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MaxBufferSize = 16384  // Maximum samples per analysis buffer
	MaxBandCount  = 50     // The legacy breakpoint table supports up to 50 bands
)

// Config represents the main application configuration, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`             // Verbose logging and frame diagnostics.
	LogLevel  string          `yaml:"log_level"`         // "debug", "info", "warn", "error".
	Command   string          `yaml:"command,omitempty"` // One-off command instead of running the visualizer (e.g. "list").
	Audio     AudioConfig     `yaml:"audio"`             // Capture settings.
	Viz       VizConfig       `yaml:"visualization"`     // Display and band settings.
	Colors    ColorConfig     `yaml:"colors"`            // Color cycling numeric contract.
	Particles ParticleConfig  `yaml:"particles"`         // Ambient particle field settings.
	Bars      BarConfig       `yaml:"bars"`              // Bar animation dynamics.
	Recording RecordingConfig `yaml:"recording"`         // Raw capture WAV recording.
	Transport TransportConfig `yaml:"transport"`         // Frame transport to external renderers.
}

// AudioConfig holds capture settings.
type AudioConfig struct {
	Device     int     `yaml:"device"`      // PortAudio device index (-1 for default).
	SampleRate float64 `yaml:"sample_rate"` // Sample rate in Hz.
	BufferSize int     `yaml:"buffer_size"` // Samples per analysis frame (power of 2).
	Channels   int     `yaml:"channels"`    // Channels to capture; downmixed to mono for analysis.
}

// VizConfig holds display and band extraction settings.
type VizConfig struct {
	Mode      string `yaml:"mode"`      // "legacy" or "modern".
	Width     int    `yaml:"width"`     // Canvas width in pixels.
	Height    int    `yaml:"height"`    // Canvas height in pixels.
	FPS       int    `yaml:"fps"`       // Target render tick rate.
	BandCount int    `yaml:"bar_count"` // Number of frequency bands / visual bars.
}

// ColorConfig holds the color cycling parameters. Pixel-level styling is
// owned by the renderer; only the phase advance rates live here.
type ColorConfig struct {
	Enabled    bool    `yaml:"enabled"`
	CycleSpeed float64 `yaml:"cycle_speed"` // Legacy phase decrement per tick.
	HueSpeed   float64 `yaml:"hue_speed"`   // Modern hue offset increment per tick.
}

// ParticleConfig holds the ambient particle field settings. The modern
// style splits the population into a slow back layer and a faster front
// layer with independent speed multipliers.
type ParticleConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Count        int     `yaml:"count"`
	Speed        float64 `yaml:"speed"`         // Back layer speed multiplier.
	FrontSpeed   float64 `yaml:"front_speed"`   // Front layer speed multiplier.
	FrontEnabled bool    `yaml:"front_enabled"` // Front layer toggle (modern only).
}

// BarConfig holds the bar animation dynamics.
type BarConfig struct {
	GrowthRate       float64 `yaml:"growth_rate"`       // How fast bars rise (0.001–0.05).
	DecayRate        float64 `yaml:"decay_rate"`        // How fast bars fall (0.005–0.05).
	TriggerThreshold float64 `yaml:"trigger_threshold"` // Relative jump required to trigger a rise (1.0–5.0).
	AmplitudeScale   float64 `yaml:"amplitude_scale"`   // Band amplitude multiplier (1–100); 0 selects auto scaling in modern mode.
}

// RecordingConfig holds raw capture recording settings.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputFile string `yaml:"output_file"` // Empty for a timestamped default name.
	BitDepth   int    `yaml:"bit_depth"`   // 16, 24 or 32.
}

// TransportConfig holds settings for streaming frames to external renderers.
type TransportConfig struct {
	WebSocketEnabled bool   `yaml:"websocket_enabled"`
	WebSocketPort    string `yaml:"websocket_port"`
	UDPEnabled       bool   `yaml:"udp_enabled"`
	UDPTargetAddress string `yaml:"udp_target_address"`
	UDPIntervalMs    int    `yaml:"udp_interval_ms"`
}

// NewConfig returns a Config populated with the stock defaults.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			Device:     MinDeviceID,
			SampleRate: 44100,
			BufferSize: 4096,
			Channels:   1,
		},
		Viz: VizConfig{
			Mode:      ModeModern,
			Width:     800,
			Height:    300,
			FPS:       60,
			BandCount: 50,
		},
		Colors: ColorConfig{
			Enabled:    true,
			CycleSpeed: 0.01,
			HueSpeed:   0.002,
		},
		Particles: ParticleConfig{
			Enabled:      true,
			Count:        100,
			Speed:        0.2,
			FrontSpeed:   0.4,
			FrontEnabled: true,
		},
		Bars: BarConfig{
			GrowthRate:       0.01,
			DecayRate:        0.015,
			TriggerThreshold: 2.5,
			AmplitudeScale:   15.0,
		},
		Recording: RecordingConfig{
			Enabled:  false,
			BitDepth: 32,
		},
		Transport: TransportConfig{
			WebSocketEnabled: true,
			WebSocketPort:    "8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPIntervalMs:    16, // ~60Hz
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches default locations ("config.yaml"). If no file is
// found, the built-in defaults are used. Environment variable overrides are
// applied after loading, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{"config.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration back to a YAML file. The original app
// persists settings edited from its overlay menu; here the same operation
// is exposed for the CLI and orchestrator.
func (c *Config) Save(path string) error {
	if path == "" {
		path = "config.yaml"
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the pipeline cannot serve.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f out of range [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.BufferSize <= 0 || c.Audio.BufferSize > MaxBufferSize {
		return fmt.Errorf("audio.buffer_size %d out of range (0, %d]", c.Audio.BufferSize, MaxBufferSize)
	}
	if c.Audio.Channels < 1 {
		return fmt.Errorf("audio.channels must be at least 1, got %d", c.Audio.Channels)
	}
	if c.Viz.Mode != ModeLegacy && c.Viz.Mode != ModeModern {
		return fmt.Errorf("visualization.mode must be %q or %q, got %q", ModeLegacy, ModeModern, c.Viz.Mode)
	}
	if c.Viz.BandCount < 1 || c.Viz.BandCount > MaxBandCount {
		return fmt.Errorf("visualization.bar_count %d out of range [1, %d]", c.Viz.BandCount, MaxBandCount)
	}
	if c.Viz.FPS < 1 {
		return fmt.Errorf("visualization.fps must be positive, got %d", c.Viz.FPS)
	}
	if c.Viz.Width < 1 || c.Viz.Height < 1 {
		return fmt.Errorf("visualization canvas %dx%d must be positive", c.Viz.Width, c.Viz.Height)
	}
	if c.Particles.Count < 0 {
		return fmt.Errorf("particles.count must not be negative, got %d", c.Particles.Count)
	}
	if c.Bars.TriggerThreshold < 0 {
		return fmt.Errorf("bars.trigger_threshold must not be negative, got %f", c.Bars.TriggerThreshold)
	}
	switch c.Recording.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("recording.bit_depth must be 16, 24 or 32, got %d", c.Recording.BitDepth)
	}
	return nil
}

// applyEnvOverrides applies SPECTRUM_* environment variables on top of the
// loaded configuration. Only a handful of deployment-relevant knobs are
// exposed this way.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("SPECTRUM_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
		}
	}
	if val, ok := os.LookupEnv("SPECTRUM_MODE"); ok {
		c.Viz.Mode = val
	}
	if val, ok := os.LookupEnv("SPECTRUM_WS_PORT"); ok {
		c.Transport.WebSocketPort = val
	}
	if val, ok := os.LookupEnv("SPECTRUM_UDP_TARGET"); ok {
		c.Transport.UDPTargetAddress = val
		c.Transport.UDPEnabled = true
	}
}
