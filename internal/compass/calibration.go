// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package compass turns calibrated magnetometer vectors into an 8-point
// bearing and the 5x5 arrow glyph that points at magnetic north.
package compass

import (
	"fmt"
	"math"
)

// Measurement is a single raw or calibrated magnetometer sample.
// Both drivers in this repo report nanotesla.
type Measurement struct {
	X int32 `json:"x" yaml:"x"`
	Y int32 `json:"y" yaml:"y"`
	Z int32 `json:"z" yaml:"z"`
}

// Calibration removes hard-iron offset (Center) and soft-iron gain (Scale)
// so corrected vectors lie on a sphere of Radius.
//
// Every Scale component must be strictly positive; see Validate.
type Calibration struct {
	Center Measurement `json:"center" yaml:"center"`
	Scale  Measurement `json:"scale" yaml:"scale"`
	Radius int32       `json:"radius" yaml:"radius"`
}

// Reference is the calibration the compass ships with.
var Reference = Calibration{
	Center: Measurement{X: -24728, Y: 32424, Z: 86592},
	Scale:  Measurement{X: 1289, Y: 1309, Z: 1348},
	Radius: 42624,
}

// Validate reports a calibration that would divide by zero (or flip an
// axis) in Apply.
func (c Calibration) Validate() error {
	if c.Scale.X <= 0 || c.Scale.Y <= 0 || c.Scale.Z <= 0 {
		return fmt.Errorf("calibration scale must be positive on every axis, got %+v", c.Scale)
	}
	if c.Radius <= 0 {
		return fmt.Errorf("calibration radius must be positive, got %d", c.Radius)
	}
	return nil
}

// Apply corrects raw with cal:
//
//	calibrated[a] = (raw[a] - center[a]) * radius / scale[a]
//
// Integer division truncates toward zero. The product is formed in 64 bits,
// so it cannot overflow for any int32 input. Apply does not check cal; a zero
// scale panics with an integer divide by zero.
func Apply(raw Measurement, cal Calibration) Measurement {
	return Measurement{
		X: applyAxis(raw.X, cal.Center.X, cal.Scale.X, cal.Radius),
		Y: applyAxis(raw.Y, cal.Center.Y, cal.Scale.Y, cal.Radius),
		Z: applyAxis(raw.Z, cal.Center.Z, cal.Scale.Z, cal.Radius),
	}
}

func applyAxis(raw, center, scale, radius int32) int32 {
	return int32((int64(raw) - int64(center)) * int64(radius) / int64(scale))
}

// Magnitude is the Euclidean norm of m.
func Magnitude(m Measurement) float64 {
	x := float64(m.X)
	y := float64(m.Y)
	z := float64(m.Z)
	return math.Sqrt(x*x + y*y + z*z)
}
