// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/led_compass/internal/compass"
	"github.com/relabs-tech/led_compass/internal/config"
	"github.com/relabs-tech/led_compass/internal/telemetry"
)

// Sweep samples a magnetometer for a fixed time while the user turns the
// device through every orientation, and derives a calibration from it.
// It is independent of Loop; nothing requires running it.
type Sweep struct {
	Sensor   Sensor
	Duration time.Duration
	Log      *zap.SugaredLogger

	now func() time.Time
}

// Run collects samples until Duration has elapsed. Sensor errors abort the
// sweep.
func (s *Sweep) Run() (compass.Calibration, error) {
	now := s.now
	if now == nil {
		now = time.Now
	}
	var sampler compass.Sampler
	start := now()
	deadline := start.Add(s.Duration)
	nextReport := start.Add(time.Second)

	for now().Before(deadline) {
		st, err := s.Sensor.Status()
		if err != nil {
			return compass.Calibration{}, fmt.Errorf("sensor status: %w", err)
		}
		if !st.DataReady {
			continue
		}
		m, err := s.Sensor.Read()
		if err != nil {
			return compass.Calibration{}, fmt.Errorf("sensor read: %w", err)
		}
		sampler.Add(m)

		if t := now(); t.After(nextReport) && s.Log != nil {
			lo, hi := sampler.Bounds()
			s.Log.Infof("%2.0fs: %d samples, min=%+v max=%+v coverage=%.2f",
				t.Sub(start).Seconds(), sampler.Count(), lo, hi, sampler.Coverage())
			nextReport = t.Add(time.Second)
		}
	}

	cal, err := sampler.Calibration()
	if err != nil {
		return cal, err
	}
	if s.Log != nil {
		s.Log.Infof("calibration derived from %d samples (coverage %.2f)", sampler.Count(), sampler.Coverage())
	}
	return cal, nil
}

// WriteCalibrationYAML writes cal as a `calibration:` block ready to paste
// into the config file.
func WriteCalibrationYAML(w io.Writer, cal compass.Calibration) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(struct {
		Calibration compass.Calibration `yaml:"calibration"`
	}{cal}); err != nil {
		return fmt.Errorf("encode calibration: %w", err)
	}
	return enc.Close()
}

// RunCalibration runs a sweep on the configured sensor and prints the result.
// When MQTT is enabled the result is also published, retained.
func RunCalibration(cfg *config.Config, out io.Writer, log *zap.SugaredLogger) error {
	hw := NewHardware(log.Named("hw"))
	defer hw.Close()

	sensor, err := OpenSensor(hw, cfg)
	if err != nil {
		return fmt.Errorf("sensor: %w", err)
	}

	log.Infof("rotate the device slowly through every orientation for %s", cfg.SweepDuration())
	sweep := &Sweep{Sensor: sensor, Duration: cfg.SweepDuration(), Log: log.Named("sweep")}
	cal, err := sweep.Run()
	if err != nil {
		return fmt.Errorf("calibration sweep: %w", err)
	}

	if err := WriteCalibrationYAML(out, cal); err != nil {
		return err
	}

	if cfg.MQTT.Enabled {
		client, err := telemetry.Connect(cfg.MQTT.Broker, cfg.MQTT.ClientIDCompass)
		if err != nil {
			log.Warnf("calibration not published: %v", err)
			return nil
		}
		defer client.Disconnect(250)
		if err := telemetry.PublishCalibration(client, cfg.MQTT.TopicCalibration, cal); err != nil {
			log.Warnf("calibration not published: %v", err)
		}
	}
	return nil
}
