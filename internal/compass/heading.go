// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import (
	"fmt"
	"math"
)

// Sector is one of the 8 compass buckets, each 45° wide.
type Sector uint8

const (
	North Sector = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var sectorNames = [...]string{
	North:     "N",
	NorthEast: "NE",
	East:      "E",
	SouthEast: "SE",
	South:     "S",
	SouthWest: "SW",
	West:      "W",
	NorthWest: "NW",
}

func (s Sector) String() string {
	if int(s) < len(sectorNames) {
		return sectorNames[s]
	}
	return fmt.Sprintf("Sector(%d)", uint8(s))
}

// AllSectors lists every sector in declaration order.
func AllSectors() []Sector {
	return []Sector{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}
}

// Angle returns atan2(y, x) of m in radians, in (-π, π].
func Angle(m Measurement) float64 {
	return math.Atan2(float64(m.Y), float64(m.X))
}

// SectorForAngle buckets theta (radians, (-π, π]) into a sector.
//
// The guards are evaluated in order with strict comparisons, so an angle
// sitting exactly on a boundary falls through to the next guard:
// 7π/8 is NorthWest and -7π/8 is SouthWest, not West.
func SectorForAngle(theta float64) Sector {
	switch {
	case theta > 7.0/8.0*math.Pi:
		return West
	case theta > 5.0/8.0*math.Pi:
		return NorthWest
	case theta > 3.0/8.0*math.Pi:
		return North
	case theta > 1.0/8.0*math.Pi:
		return NorthEast

	case theta < -7.0/8.0*math.Pi:
		return West
	case theta < -5.0/8.0*math.Pi:
		return SouthWest
	case theta < -3.0/8.0*math.Pi:
		return South
	case theta < -1.0/8.0*math.Pi:
		return SouthEast

	default:
		return East
	}
}

// Classify buckets a calibrated vector by its horizontal angle.
// The zero vector has angle 0 and classifies as East.
func Classify(m Measurement) Sector {
	return SectorForAngle(Angle(m))
}

// Reading is one pass of a raw sample through calibration and
// classification.
type Reading struct {
	Raw        Measurement
	Calibrated Measurement
	Theta      float64 // radians, atan2(y, x) of Calibrated
	Sector     Sector
}

// Evaluate applies cal to raw and classifies the result.
func Evaluate(raw Measurement, cal Calibration) Reading {
	c := Apply(raw, cal)
	theta := Angle(c)
	return Reading{
		Raw:        raw,
		Calibrated: c,
		Theta:      theta,
		Sector:     SectorForAngle(theta),
	}
}
