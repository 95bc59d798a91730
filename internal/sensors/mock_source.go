// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/led_compass/internal/compass"
)

type mockSource struct {
	cal     compass.Calibration
	period  time.Duration
	degPerS float64
	now     func() time.Time

	start    time.Time
	lastRead time.Time
}

// NewMockSource creates a magnetometer whose field turns around cal's
// ellipsoid at degPerS, with a new sample every period. Turns repeat the
// pattern level, straight up, level, straight down, so a sweep of four turns
// reaches every axis extreme. Feeding its output through cal gives a vector
// of length ≈ cal.Radius.
func NewMockSource(cal compass.Calibration, period time.Duration, degPerS float64) Magnetometer {
	return newMockSource(cal, period, degPerS, time.Now)
}

func newMockSource(cal compass.Calibration, period time.Duration, degPerS float64, now func() time.Time) *mockSource {
	start := now()
	return &mockSource{
		cal:     cal,
		period:  period,
		degPerS: degPerS,
		now:     now,
		start:   start,
	}
}

func (m *mockSource) Status() (Status, error) {
	ready := m.lastRead.IsZero() || m.now().Sub(m.lastRead) >= m.period
	return Status{DataReady: ready}, nil
}

// turnElevation is the field elevation for each turn of the pattern.
var turnElevation = [...]float64{0, math.Pi / 2, 0, -math.Pi / 2}

func (m *mockSource) Read() (compass.Measurement, error) {
	t := m.now()
	m.lastRead = t
	deg := t.Sub(m.start).Seconds() * m.degPerS
	turn := int(math.Floor(deg / 360))
	heading := math.Mod(deg, 360) * math.Pi / 180
	elev := turnElevation[((turn%4)+4)%4]
	return compass.Measurement{
		X: m.cal.Center.X + int32(math.Round(float64(m.cal.Scale.X)*math.Cos(elev)*math.Cos(heading))),
		Y: m.cal.Center.Y + int32(math.Round(float64(m.cal.Scale.Y)*math.Cos(elev)*math.Sin(heading))),
		Z: m.cal.Center.Z + int32(math.Round(float64(m.cal.Scale.Z)*math.Sin(elev))),
	}, nil
}
