// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/led_compass/internal/compass"
	"github.com/relabs-tech/led_compass/internal/sensors"
)

// Sensor is a polled magnetometer.
type Sensor interface {
	Status() (sensors.Status, error)
	Read() (compass.Measurement, error)
}

// Display renders one glyph. Show blocks for the whole duration.
type Display interface {
	Show(g compass.Glyph, d time.Duration) error
	Clear() error
}

// Observer sees every reading before its glyph is shown.
type Observer interface {
	Observe(r compass.Reading)
}

// Loop is the compass display loop: wait for a fresh sample, calibrate,
// classify, show the arrow, repeat.
type Loop struct {
	Sensor        Sensor
	Display       Display
	Calibration   compass.Calibration
	GlyphDuration time.Duration
	Observer      Observer // optional
	Log           *zap.SugaredLogger
}

// Run repeats Step until it fails and returns that error. There is no
// other way out: no timeout, no cancellation.
func (l *Loop) Run() error {
	for {
		if _, err := l.Step(); err != nil {
			return err
		}
	}
}

// Step runs one cycle. Any sensor or display error ends it.
func (l *Loop) Step() (compass.Reading, error) {
	if err := l.waitReady(); err != nil {
		return compass.Reading{}, err
	}
	raw, err := l.Sensor.Read()
	if err != nil {
		return compass.Reading{}, fmt.Errorf("sensor read: %w", err)
	}

	r := compass.Evaluate(raw, l.Calibration)
	glyph := compass.GlyphFor(r.Sector)

	if l.Log != nil {
		nt := compass.Magnitude(r.Calibrated)
		l.Log.Debugf("%s theta=%.1f° |B|=%.0f nT (%.1f mG)", r.Sector, r.Theta*180/math.Pi, nt, nt/100)
	}
	if l.Observer != nil {
		l.Observer.Observe(r)
	}

	if err := l.Display.Show(glyph, l.GlyphDuration); err != nil {
		return r, fmt.Errorf("display: %w", err)
	}
	return r, nil
}

// waitReady spins on the data-ready flag with no bound; a sensor that never
// becomes ready stalls the loop here.
func (l *Loop) waitReady() error {
	for {
		st, err := l.Sensor.Status()
		if err != nil {
			return fmt.Errorf("sensor status: %w", err)
		}
		if st.DataReady {
			return nil
		}
	}
}
