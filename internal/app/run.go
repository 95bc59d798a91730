// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/led_compass/internal/config"
	"github.com/relabs-tech/led_compass/internal/display"
	"github.com/relabs-tech/led_compass/internal/sensors"
	"github.com/relabs-tech/led_compass/internal/sensors/hmc5983"
	"github.com/relabs-tech/led_compass/internal/sensors/lsm303agr"
	"github.com/relabs-tech/led_compass/internal/telemetry"
)

// Hardware owns the periph host and every bus opened from it. It is built
// once at startup and passed down; nothing else opens buses.
type Hardware struct {
	log    *zap.SugaredLogger
	inited bool
	buses  map[string]i2c.BusCloser
}

// NewHardware returns an empty handle; buses are opened on first use.
func NewHardware(log *zap.SugaredLogger) *Hardware {
	return &Hardware{log: log, buses: map[string]i2c.BusCloser{}}
}

// Bus opens (or reuses) the named I2C bus.
func (h *Hardware) Bus(name string) (i2c.Bus, error) {
	if b, ok := h.buses[name]; ok {
		return b, nil
	}
	if !h.inited {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("periph host init: %w", err)
		}
		h.inited = true
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("i2c open failed on bus %q: %w", name, err)
	}
	h.buses[name] = b
	h.log.Infof("opened i2c bus %s", b)
	return b, nil
}

// Close releases every bus.
func (h *Hardware) Close() error {
	var first error
	for name, b := range h.buses {
		if err := b.Close(); err != nil && first == nil {
			first = fmt.Errorf("close bus %q: %w", name, err)
		}
		delete(h.buses, name)
	}
	return first
}

// OpenSensor builds the magnetometer selected by cfg.
func OpenSensor(hw *Hardware, cfg *config.Config) (Sensor, error) {
	s := cfg.Sensor
	switch s.Driver {
	case config.SensorMock:
		period := time.Second / time.Duration(s.ODRHz)
		hw.log.Infof("using mock magnetometer (%s, %.0f°/s)", period, s.MockDegPerSec)
		return sensors.NewMockSource(cfg.Calibration, period, s.MockDegPerSec), nil

	case config.SensorLSM303AGR:
		bus, err := hw.Bus(s.I2CBus)
		if err != nil {
			return nil, err
		}
		dev, err := lsm303agr.New(bus, lsm303agr.Opts{
			Addr: s.I2CAddr,
			ODR:  physic.Frequency(s.ODRHz) * physic.Hertz,
		})
		if err != nil {
			return nil, err
		}
		hw.log.Infof("magnetometer %s ready at %s", dev, dev.ODR())
		return dev, nil

	case config.SensorHMC5983:
		bus, err := hw.Bus(s.I2CBus)
		if err != nil {
			return nil, err
		}
		dev, err := hmc5983.New(bus, hmc5983.Opts{
			Addr:       s.I2CAddr,
			ODRHz:      s.ODRHz,
			AvgSamples: s.AvgSamples,
			GainCode:   s.GainCode,
		})
		if err != nil {
			return nil, err
		}
		hw.log.Infof("magnetometer HMC5983 ready (odr=%dHz avg=%d gain=%d)", s.ODRHz, s.AvgSamples, s.GainCode)
		return dev, nil
	}
	return nil, fmt.Errorf("unknown sensor driver %q", s.Driver)
}

// OpenDisplay builds the display selected by cfg.
func OpenDisplay(hw *Hardware, cfg *config.Config) (Display, error) {
	d := cfg.Display
	switch d.Driver {
	case config.DisplayConsole:
		return display.NewConsole(os.Stdout, d.Redraw), nil

	case config.DisplaySSD1306:
		bus, err := hw.Bus(d.I2CBus)
		if err != nil {
			return nil, err
		}
		dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize display: %w", err)
		}
		hw.log.Infof("display %s initialized", dev)
		return display.NewPanel(dev, d.ShowLabel), nil
	}
	return nil, fmt.Errorf("unknown display driver %q", d.Driver)
}

// RunCompass wires sensor, display and optional telemetry from cfg and runs
// the display loop until the first fatal error.
func RunCompass(cfg *config.Config, log *zap.SugaredLogger) error {
	hw := NewHardware(log.Named("hw"))
	defer hw.Close()

	sensor, err := OpenSensor(hw, cfg)
	if err != nil {
		return fmt.Errorf("sensor: %w", err)
	}
	disp, err := OpenDisplay(hw, cfg)
	if err != nil {
		return fmt.Errorf("display: %w", err)
	}
	if err := disp.Clear(); err != nil {
		return fmt.Errorf("display clear: %w", err)
	}

	loop := &Loop{
		Sensor:        sensor,
		Display:       disp,
		Calibration:   cfg.Calibration,
		GlyphDuration: cfg.GlyphDuration(),
		Log:           log.Named("loop"),
	}

	if cfg.MQTT.Enabled {
		client, err := telemetry.Connect(cfg.MQTT.Broker, cfg.MQTT.ClientIDCompass)
		if err != nil {
			// Telemetry is optional; the compass still works without it.
			log.Warnf("telemetry disabled: %v", err)
		} else {
			defer client.Disconnect(250)
			log.Infof("publishing headings to %s on %s", cfg.MQTT.TopicHeading, cfg.MQTT.Broker)
			loop.Observer = telemetry.NewPublisher(client, cfg.MQTT.TopicHeading, log.Named("mqtt"))
		}
	}

	log.Infof("using calibration: center=%+v scale=%+v radius=%d",
		cfg.Calibration.Center, cfg.Calibration.Scale, cfg.Calibration.Radius)
	log.Infof("compass loop started (glyph %s)", cfg.GlyphDuration())
	return loop.Run()
}
