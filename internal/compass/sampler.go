// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoSamples is returned when a calibration is requested before any sample.
	ErrNoSamples = errors.New("no samples collected")
	// ErrInsufficientExcitation means some axis never moved: rotate more in 3D
	// and keep away from metal.
	ErrInsufficientExcitation = errors.New("insufficient magnetometer excitation")
)

// Sampler derives a Calibration from raw samples taken while the device is
// swept through full rotations. It tracks per-axis min/max (a diagonal
// ellipsoid approximation). The zero value is ready to use.
type Sampler struct {
	n        int
	min, max Measurement
}

// Add records one raw sample.
func (s *Sampler) Add(m Measurement) {
	if s.n == 0 {
		s.min, s.max = m, m
		s.n = 1
		return
	}
	s.n++
	s.min = Measurement{X: min(s.min.X, m.X), Y: min(s.min.Y, m.Y), Z: min(s.min.Z, m.Z)}
	s.max = Measurement{X: max(s.max.X, m.X), Y: max(s.max.Y, m.Y), Z: max(s.max.Z, m.Z)}
}

// Count returns the number of samples seen.
func (s *Sampler) Count() int { return s.n }

// Bounds returns the per-axis minimum and maximum seen so far.
func (s *Sampler) Bounds() (lo, hi Measurement) { return s.min, s.max }

// Calibration returns center=(min+max)/2, scale=(max-min)/2 and
// radius=mean(scale), all truncated to integers.
func (s *Sampler) Calibration() (Calibration, error) {
	if s.n == 0 {
		return Calibration{}, ErrNoSamples
	}
	center := Measurement{
		X: midpoint(s.min.X, s.max.X),
		Y: midpoint(s.min.Y, s.max.Y),
		Z: midpoint(s.min.Z, s.max.Z),
	}
	scale := Measurement{
		X: halfRange(s.min.X, s.max.X),
		Y: halfRange(s.min.Y, s.max.Y),
		Z: halfRange(s.min.Z, s.max.Z),
	}
	cal := Calibration{
		Center: center,
		Scale:  scale,
		Radius: int32((int64(scale.X) + int64(scale.Y) + int64(scale.Z)) / 3),
	}
	if scale.X <= 0 || scale.Y <= 0 || scale.Z <= 0 {
		return cal, fmt.Errorf("%w: half-range %+v over %d samples", ErrInsufficientExcitation, scale, s.n)
	}
	return cal, nil
}

// Coverage is the coefficient-of-variation score of the three half-ranges
// mapped to [0,1]; 1 means the axes were excited evenly.
func (s *Sampler) Coverage() float64 {
	if s.n == 0 {
		return 0
	}
	hx := float64(halfRange(s.min.X, s.max.X))
	hy := float64(halfRange(s.min.Y, s.max.Y))
	hz := float64(halfRange(s.min.Z, s.max.Z))
	m := (hx + hy + hz) / 3
	if m <= 0 {
		return 0
	}
	sd := math.Sqrt(((hx-m)*(hx-m) + (hy-m)*(hy-m) + (hz-m)*(hz-m)) / 3)
	return math.Max(0, math.Min(1, 1-(sd/m)/0.7))
}

// Derive runs a Sampler over samples.
func Derive(samples []Measurement) (Calibration, error) {
	var s Sampler
	for _, m := range samples {
		s.Add(m)
	}
	return s.Calibration()
}

func midpoint(lo, hi int32) int32 {
	return int32((int64(lo) + int64(hi)) / 2)
}

func halfRange(lo, hi int32) int32 {
	return int32((int64(hi) - int64(lo)) / 2)
}
