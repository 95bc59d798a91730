// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/led_compass/internal/compass"
)

// Sensor drivers.
const (
	SensorLSM303AGR = "lsm303agr"
	SensorHMC5983   = "hmc5983"
	SensorMock      = "mock"
)

// Display drivers.
const (
	DisplaySSD1306 = "ssd1306"
	DisplayConsole = "console"
)

// Config holds all application configuration values.
type Config struct {
	MQTT        MQTT                `yaml:"mqtt"`
	Sensor      Sensor              `yaml:"sensor"`
	Display     Display             `yaml:"display"`
	Calibration compass.Calibration `yaml:"calibration"`
	Calibrate   Calibrate           `yaml:"calibrate"`
	Web         Web                 `yaml:"web"`
}

// MQTT configures heading telemetry.
type MQTT struct {
	Enabled          bool   `yaml:"enabled"`
	Broker           string `yaml:"broker"`
	ClientIDCompass  string `yaml:"client_id_compass"`
	ClientIDConsole  string `yaml:"client_id_console"`
	ClientIDWeb      string `yaml:"client_id_web"`
	TopicHeading     string `yaml:"topic_heading"`
	TopicCalibration string `yaml:"topic_calibration"`
}

// Sensor selects and configures the magnetometer.
type Sensor struct {
	Driver  string `yaml:"driver"`
	I2CBus  string `yaml:"i2c_bus"`
	I2CAddr uint16 `yaml:"i2c_addr"`
	ODRHz   int    `yaml:"odr_hz"`

	// HMC5983 only.
	AvgSamples int `yaml:"avg_samples"`
	GainCode   int `yaml:"gain_code"`

	// Mock only: sweep speed of the simulated field.
	MockDegPerSec float64 `yaml:"mock_deg_per_sec"`
}

// Display selects where glyphs are rendered.
type Display struct {
	Driver          string `yaml:"driver"`
	I2CBus          string `yaml:"i2c_bus"`
	GlyphDurationMS int    `yaml:"glyph_duration_ms"`
	ShowLabel       bool   `yaml:"show_label"`
	Redraw          bool   `yaml:"redraw"`
}

// Calibrate configures the calibration sweep.
type Calibrate struct {
	DurationSec int `yaml:"duration_sec"`
}

// Web configures the live heading page.
type Web struct {
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"` // directory holding index.html
}

// GlyphDuration is how long each glyph stays on the display.
func (c *Config) GlyphDuration() time.Duration {
	return time.Duration(c.Display.GlyphDurationMS) * time.Millisecond
}

// SweepDuration is how long the calibration sweep samples.
func (c *Config) SweepDuration() time.Duration {
	return time.Duration(c.Calibrate.DurationSec) * time.Second
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex, write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the reference configuration: LSM303AGR at 10 Hz, glyphs
// held for 100 ms, the shipped calibration, telemetry off.
func Default() *Config {
	return &Config{
		MQTT: MQTT{
			Broker:           "tcp://localhost:1883",
			ClientIDCompass:  "led-compass",
			ClientIDConsole:  "led-compass-console",
			ClientIDWeb:      "led-compass-web",
			TopicHeading:     "compass/heading",
			TopicCalibration: "compass/calibration",
		},
		Sensor: Sensor{
			Driver:        SensorLSM303AGR,
			I2CBus:        "1",
			ODRHz:         10,
			AvgSamples:    1,
			GainCode:      1,
			MockDegPerSec: 30,
		},
		Display: Display{
			Driver:          DisplaySSD1306,
			I2CBus:          "1",
			GlyphDurationMS: 100,
			ShowLabel:       true,
		},
		Calibration: compass.Reference,
		Calibrate:   Calibrate{DurationSec: 60},
		Web:         Web{Port: 8080, StaticDir: "web"},
	}
}

// Load reads the configuration file on top of Default and validates it.
// A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		return cfg, cfg.validate()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	switch c.Sensor.Driver {
	case SensorLSM303AGR, SensorHMC5983, SensorMock:
	default:
		return fmt.Errorf("sensor.driver must be one of %s, %s, %s, got %q",
			SensorLSM303AGR, SensorHMC5983, SensorMock, c.Sensor.Driver)
	}
	switch c.Display.Driver {
	case DisplaySSD1306, DisplayConsole:
	default:
		return fmt.Errorf("display.driver must be %s or %s, got %q",
			DisplaySSD1306, DisplayConsole, c.Display.Driver)
	}
	if c.Sensor.ODRHz <= 0 {
		return fmt.Errorf("sensor.odr_hz must be positive, got %d", c.Sensor.ODRHz)
	}
	if c.Display.GlyphDurationMS <= 0 {
		return fmt.Errorf("display.glyph_duration_ms must be positive, got %d", c.Display.GlyphDurationMS)
	}
	if err := c.Calibration.Validate(); err != nil {
		return fmt.Errorf("calibration: %w", err)
	}
	if c.Calibrate.DurationSec <= 0 {
		return fmt.Errorf("calibrate.duration_sec must be positive, got %d", c.Calibrate.DurationSec)
	}
	if c.Web.StaticDir == "" {
		return fmt.Errorf("web.static_dir must not be empty")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
